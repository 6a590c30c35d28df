package selector

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webmfit/internal/encoder"
	"webmfit/internal/model"
	"webmfit/internal/validate"
)

type fakePlayer struct {
	done chan struct{}
	once sync.Once
}

func newFakePlayer() *fakePlayer { return &fakePlayer{done: make(chan struct{})} }

func (p *fakePlayer) Exited() <-chan struct{} { return p.done }
func (p *fakePlayer) Err() error              { return nil }
func (p *fakePlayer) Kill() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

type fakeLauncher struct {
	player *fakePlayer
	err    error
	args   []string
}

func (l *fakeLauncher) Launch(_ context.Context, _ string, args []string) (Player, error) {
	l.args = args
	if l.err != nil {
		return nil, l.err
	}
	return l.player, nil
}

// scriptedChannel replays messages and then behaves like a player that
// went away: the process exits and Next returns io.EOF.
type scriptedChannel struct {
	msgs   []Message
	player *fakePlayer
	quit   bool
}

func (c *scriptedChannel) Next() (Message, error) {
	if len(c.msgs) == 0 {
		_ = c.player.Kill()
		return nil, io.EOF
	}
	m := c.msgs[0]
	c.msgs = c.msgs[1:]
	return m, nil
}

func (c *scriptedChannel) Quit() error {
	c.quit = true
	return c.player.Kill()
}

func (c *scriptedChannel) Close() error { return nil }

func newSelector(t *testing.T, msgs ...Message) (*Selector, *scriptedChannel, *fakeLauncher) {
	t.Helper()
	p := newFakePlayer()
	ch := &scriptedChannel{msgs: msgs, player: p}
	l := &fakeLauncher{player: p}
	s := &Selector{
		MPVPath:  "mpv",
		Launcher: l,
		Dial: func(context.Context, string, <-chan struct{}) (Channel, error) {
			return ch, nil
		},
		GracePeriod: time.Second,
		Stderr:      &bytes.Buffer{},
	}
	return s, ch, l
}

func interactiveOpts(t *testing.T) model.Options {
	t.Helper()
	o, err := validate.Validate(model.Options{InputPath: "in.mkv", Interactive: true, PlayerOpts: "--mute=yes"})
	require.NoError(t, err)
	return o
}

var source = model.MediaInfo{Duration: 120, Width: 1280, Height: 720}

func TestSelector_CapturedSelectionIsApplied(t *testing.T) {
	s, ch, l := newSelector(t,
		MarkStart{T: 10},
		MarkEnd{T: 20.5},
		Crop{X: 8, Y: 0, W: 640, H: 360},
		Confirm{},
	)
	o := interactiveOpts(t)

	require.NoError(t, s.Run(context.Background(), &o, source))
	assert.True(t, ch.quit, "player is asked to quit after confirm")
	assert.False(t, o.Interactive)
	assert.Equal(t, 10.0, *o.Trim.Start)
	assert.Equal(t, 20.5, *o.Trim.End)
	assert.Equal(t, &model.CropRect{X: 8, Y: 0, W: 640, H: 360}, o.Crop)

	assert.Contains(t, l.args, "--mute=yes")
	assert.Equal(t, []string{"--", "in.mkv"}, l.args[len(l.args)-2:])
}

func TestSelector_EndBeforeStartRejected(t *testing.T) {
	s, _, _ := newSelector(t, MarkStart{T: 10.0}, MarkEnd{T: 4.0}, Confirm{})
	o := interactiveOpts(t)
	before := o

	err := s.Run(context.Background(), &o, source)
	var ve *validate.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, before, o)
	assert.Nil(t, o.Trim.Start)
}

func TestSelector_PlayerExitWithoutConfirmAborts(t *testing.T) {
	s, _, _ := newSelector(t, Crop{X: 0, Y: 0, W: 100, H: 100})
	o := interactiveOpts(t)

	err := s.Run(context.Background(), &o, source)
	var ae *SelectionAbortedError
	require.True(t, errors.As(err, &ae), "got %v", err)
	assert.Nil(t, o.Crop)
	assert.True(t, o.Interactive)
}

func TestSelector_CropOutsideSourceRejected(t *testing.T) {
	s, _, _ := newSelector(t, Crop{X: 1000, Y: 0, W: 640, H: 360}, Confirm{})
	o := interactiveOpts(t)

	err := s.Run(context.Background(), &o, source)
	var ve *validate.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Nil(t, o.Crop)
}

func TestSelector_DeclinedConfirmationAborts(t *testing.T) {
	s, _, _ := newSelector(t, MarkStart{T: 1}, Confirm{})
	var gotSummary string
	s.Confirm = func(summary string, empty bool) (bool, error) {
		gotSummary = summary
		return false, nil
	}
	o := interactiveOpts(t)

	err := s.Run(context.Background(), &o, source)
	var ae *SelectionAbortedError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "[CUT] 00:00:01 - EOF\n", gotSummary)
	assert.Nil(t, o.Trim.Start)
}

func TestSelector_InfoDump(t *testing.T) {
	s, _, _ := newSelector(t,
		Info{VideoStream: 0, AudioStream: 2, SubIndex: 1, SubDelay: -0.5},
		Confirm{},
	)
	o := interactiveOpts(t)

	require.NoError(t, s.Run(context.Background(), &o, source))
	assert.Equal(t, "0", o.VideoStream)
	assert.Equal(t, "2", o.AudioStream)
	require.NotNil(t, o.Subtitles)
	assert.True(t, o.Subtitles.FromInput)
	assert.Equal(t, 1, *o.Subtitles.Index)
	assert.Equal(t, -0.5, *o.Subtitles.Delay)
}

func TestSelector_LaunchFailure(t *testing.T) {
	s, _, l := newSelector(t)
	l.err = errors.New("exec: \"mpv\": executable file not found in $PATH")
	o := interactiveOpts(t)

	err := s.Run(context.Background(), &o, source)
	var se *encoder.SubprocessFailureError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, "mpv", se.Tool)
}

func TestSelector_DialFailureAborts(t *testing.T) {
	s, _, _ := newSelector(t)
	s.Dial = func(context.Context, string, <-chan struct{}) (Channel, error) {
		return nil, errPlayerExited
	}
	o := interactiveOpts(t)

	err := s.Run(context.Background(), &o, source)
	var ae *SelectionAbortedError
	assert.True(t, errors.As(err, &ae), "got %v", err)
}

func TestSummary(t *testing.T) {
	start, end := 70.0, 85.5
	got := Summary(Selection{
		Start: &start,
		End:   &end,
		Crop:  &model.CropRect{X: 1, Y: 2, W: 3, H: 4},
		Info:  &Info{VideoStream: 0, AudioStream: -1, AudioFile: "dub.flac", SubIndex: -1, SubDelay: 1.25},
	})
	want := "[CUT] 00:01:10 - 00:01:25.5\n" +
		"[CROP] x1=1, y1=2, width=3, height=4\n" +
		"[DUMP] vs=0, aa=dub.flac, sd=1.25\n"
	assert.Equal(t, want, got)
}
