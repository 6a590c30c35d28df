package encoder

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"webmfit/internal/model"
	"webmfit/internal/util/bitrate"
	"webmfit/internal/util/format"
	"webmfit/internal/util/media"
)

// CommandSpec is one ffmpeg invocation of a plan.
type CommandSpec struct {
	Pass   int
	Args   []string
	Output string // os.DevNull for the analysis pass
}

// BuildContext carries what BuildPasses needs beyond the options. It is
// filled in once per plan so that rebuilding yields identical commands.
type BuildContext struct {
	Duration      float64 // output duration in seconds, used in cover mode
	InputTitle    string
	PassLogPrefix string
	Now           time.Time
	Progress      bool // add -progress pipe:1
}

// defaultCoverLoop loops a still image at one frame per second.
var defaultCoverLoop = []string{"-r", "1", "-loop", "1"}

// BuildPasses turns validated options and a resolved video rate into the
// ffmpeg command lines of the plan, one per pass.
func BuildPasses(o model.Options, res bitrate.Resolution, bc BuildContext) ([]CommandSpec, error) {
	if o.Passes != 1 && o.Passes != 2 {
		return nil, fmt.Errorf("unsupported pass count %d", o.Passes)
	}
	if o.OutputPath == "" {
		return nil, fmt.Errorf("output path is not set")
	}
	if o.Passes == 2 && bc.PassLogPrefix == "" {
		bc.PassLogPrefix = media.PassLogPrefix(o.OutputPath)
	}

	raw, err := splitRaw(o)
	if err != nil {
		return nil, err
	}

	specs := make([]CommandSpec, 0, o.Passes)
	for pass := 1; pass <= o.Passes; pass++ {
		args, err := buildPass(o, res, bc, raw, pass)
		if err != nil {
			return nil, err
		}
		out := o.OutputPath
		if pass < o.Passes {
			out = os.DevNull
		}
		args = append(args, "-f", "webm", "-y", out)
		specs = append(specs, CommandSpec{Pass: pass, Args: args, Output: out})
	}
	return specs, nil
}

type rawTokens struct {
	cover, pre, post, extra []string
}

func splitRaw(o model.Options) (rawTokens, error) {
	var r rawTokens
	var err error
	if o.Cover != nil {
		if strings.TrimSpace(*o.Cover) == "" {
			r.cover = defaultCoverLoop
		} else if r.cover, err = shlex.Split(*o.Cover); err != nil {
			return r, fmt.Errorf("split -cover options: %w", err)
		}
	}
	if r.pre, err = shlex.Split(o.Raw.PreInput); err != nil {
		return r, fmt.Errorf("split -foi options: %w", err)
	}
	if r.post, err = shlex.Split(o.Raw.PostInput); err != nil {
		return r, fmt.Errorf("split -foi2 options: %w", err)
	}
	if r.extra, err = shlex.Split(o.Raw.Extra); err != nil {
		return r, fmt.Errorf("split -fo options: %w", err)
	}
	return r, nil
}

func buildPass(o model.Options, res bitrate.Resolution, bc BuildContext, raw rawTokens, pass int) ([]string, error) {
	final := pass == o.Passes

	args := []string{"-hide_banner"}
	if o.Trim.Start != nil {
		args = append(args, "-ss", format.Seconds(*o.Trim.Start))
	}
	args = append(args, raw.cover...)
	args = append(args, raw.pre...)
	args = append(args, "-i", o.InputPath)
	args = append(args, raw.post...)
	if o.ExternalAudio != "" {
		args = append(args, "-i", o.ExternalAudio)
	}
	if t, ok := outputLength(o, bc); ok {
		args = append(args, "-t", format.Seconds(t))
	}

	args = append(args, streamMaps(o)...)
	if o.Passes == 2 {
		args = append(args, "-pass", strconv.Itoa(pass), "-passlogfile", bc.PassLogPrefix)
	}
	args = append(args, "-sn")
	if o.Verbose {
		args = append(args, "-loglevel", "verbose")
	}

	video, err := videoArgs(o, res, pass)
	if err != nil {
		return nil, err
	}
	args = append(args, video...)
	if vf := filterChain(o); vf != "" {
		args = append(args, "-vf", vf)
	}

	audio, err := audioArgs(o, pass)
	if err != nil {
		return nil, err
	}
	args = append(args, audio...)

	if final {
		args = append(args, metadataArgs(o, bc)...)
	}
	args = append(args, raw.extra...)
	if bc.Progress {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}
	return args, nil
}

// outputLength returns the -t value. Input seeking resets timestamps, so
// an end offset becomes a length. A looped cover image never ends on its
// own and is cut to the probed length.
func outputLength(o model.Options, bc BuildContext) (float64, bool) {
	switch {
	case o.Trim.Duration != nil:
		return *o.Trim.Duration, true
	case o.Trim.End != nil:
		return *o.Trim.End - o.Trim.StartOr(), true
	case o.Cover != nil && bc.Duration > 0:
		return bc.Duration, true
	}
	return 0, false
}

func streamMaps(o model.Options) []string {
	if o.VideoStream == "" && o.AudioStream == "" && o.ExternalAudio == "" {
		return nil
	}
	vs := o.VideoStream
	if vs == "" {
		vs = "v:0"
	}
	var args []string
	if strings.HasPrefix(vs, "[") {
		args = append(args, "-map", vs)
	} else {
		args = append(args, "-map", "0:"+vs)
	}
	if o.Audio == model.AudioNone {
		return args
	}
	as := o.AudioStream
	if as == "" {
		as = "a:0"
	}
	input := 0
	if o.ExternalAudio != "" {
		input = 1
	}
	return append(args, "-map", fmt.Sprintf("%d:%s", input, as))
}

func metadataArgs(o model.Options, bc BuildContext) []string {
	if o.Meta.Strip {
		return []string{"-map_metadata", "-1"}
	}
	var args []string
	if title := media.Title(o, bc.InputTitle); title != "" {
		args = append(args, "-metadata", "title="+title)
	}
	if o.Meta.CreationTime {
		args = append(args, "-metadata", "creation_time="+bc.Now.UTC().Format("2006-01-02 15:04:05"))
	}
	return args
}
