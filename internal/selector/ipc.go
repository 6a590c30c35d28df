package selector

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Channel delivers the user's actions from the player.
type Channel interface {
	// Next blocks until the next message. It returns io.EOF once the
	// player is gone.
	Next() (Message, error)
	// Quit asks the player to exit.
	Quit() error
	Close() error
}

// errPlayerExited is returned while dialing when mpv quits first.
var errPlayerExited = errors.New("player exited before its IPC socket was ready")

// ipcEvent is the subset of an mpv JSON IPC line we look at. Replies to
// our own commands carry "error" and no "event".
type ipcEvent struct {
	Event string   `json:"event"`
	Args  []string `json:"args"`
}

// IPC is a Channel over mpv's --input-ipc-server socket.
type IPC struct {
	conn   net.Conn
	r      *bufio.Reader
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// DialIPC waits for mpv to create the socket at path and connects to it.
// It gives up when the player exits or ctx is done.
func DialIPC(ctx context.Context, path string, exited <-chan struct{}, logger *slog.Logger) (*IPC, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := waitForSocket(ctx, path, exited); err != nil {
		return nil, err
	}

	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "unix", path)
		if err == nil {
			logger.Debug("connected to player", "socket", path)
			return &IPC{conn: conn, r: bufio.NewReader(conn), logger: logger}, nil
		}
		// The file exists a moment before mpv listens on it.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-exited:
			return nil, errPlayerExited
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func waitForSocket(ctx context.Context, path string, exited <-chan struct{}) error {
	var events <-chan fsnotify.Event
	if w, err := fsnotify.NewWatcher(); err == nil {
		defer w.Close()
		if w.Add(filepath.Dir(path)) == nil {
			events = w.Events
		}
	}
	// Polling covers filesystems where the watch cannot be added.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-exited:
			return errPlayerExited
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Name == path && ev.Has(fsnotify.Create) {
				return nil
			}
		case <-ticker.C:
		}
	}
}

// Next implements Channel.
func (c *IPC) Next() (Message, error) {
	for {
		line, err := c.r.ReadBytes('\n')
		if len(line) > 0 {
			msg, ok, perr := decodeEvent(line)
			if perr != nil {
				c.logger.Warn("ignoring player message", "error", perr)
			} else if ok {
				return msg, nil
			}
		}
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil, io.EOF
			}
			return nil, err
		}
	}
}

// Quit implements Channel.
func (c *IPC) Quit() error {
	_, err := c.conn.Write([]byte(`{"command":["quit"]}` + "\n"))
	return err
}

// Close implements Channel. It is safe to call more than once.
func (c *IPC) Close() error {
	c.closeOnce.Do(func() { c.closeErr = c.conn.Close() })
	return c.closeErr
}

// decodeEvent turns one IPC line into a Message. ok is false for lines
// that are not ours, such as property replies or other scripts' messages.
func decodeEvent(line []byte) (msg Message, ok bool, err error) {
	var ev ipcEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return nil, false, fmt.Errorf("decode %q: %w", strings.TrimSpace(string(line)), err)
	}
	if ev.Event != "client-message" || len(ev.Args) == 0 || !strings.HasPrefix(ev.Args[0], "webmfit-") {
		return nil, false, nil
	}
	msg, err = parseMessage(ev.Args[0], ev.Args[1:])
	if err != nil {
		return nil, false, err
	}
	return msg, true, nil
}

func parseMessage(name string, args []string) (Message, error) {
	want := map[string]int{
		"webmfit-start":   1,
		"webmfit-end":     1,
		"webmfit-crop":    4,
		"webmfit-info":    6,
		"webmfit-confirm": 0,
	}
	n, known := want[name]
	if !known {
		return nil, fmt.Errorf("unknown message %s", name)
	}
	if len(args) != n {
		return nil, fmt.Errorf("%s: got %d arguments, want %d", name, len(args), n)
	}

	switch name {
	case "webmfit-start", "webmfit-end":
		t, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		t = roundMs(t)
		if name == "webmfit-start" {
			return MarkStart{T: t}, nil
		}
		return MarkEnd{T: t}, nil
	case "webmfit-crop":
		v, err := atois(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if v[2] <= 0 || v[3] <= 0 || v[0] < 0 || v[1] < 0 {
			return nil, fmt.Errorf("%s: empty or negative rectangle %v", name, v)
		}
		return Crop{X: v[0], Y: v[1], W: v[2], H: v[3]}, nil
	case "webmfit-info":
		v, err := atois([]string{args[0], args[1], args[3]})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		delay, err := strconv.ParseFloat(args[5], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return Info{
			VideoStream: v[0],
			AudioStream: v[1],
			AudioFile:   args[2],
			SubIndex:    v[2],
			SubFile:     args[4],
			SubDelay:    roundMs(delay),
		}, nil
	}
	return Confirm{}, nil
}

func atois(ss []string) ([]int, error) {
	out := make([]int, len(ss))
	for i, s := range ss {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func roundMs(v float64) float64 {
	return math.Round(v*1000) / 1000
}
