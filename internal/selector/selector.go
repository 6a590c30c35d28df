package selector

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/shlex"

	"webmfit/internal/encoder"
	"webmfit/internal/model"
	"webmfit/internal/util"
)

//go:embed script.lua
var luaScript []byte

// DefaultGracePeriod is how long the player gets to quit before it is
// killed.
const DefaultGracePeriod = 3 * time.Second

// Selector runs one interactive session.
type Selector struct {
	MPVPath  string
	Launcher Launcher
	// Dial opens the control channel; DialIPC when nil.
	Dial func(ctx context.Context, path string, exited <-chan struct{}) (Channel, error)
	// Confirm, when set, is asked before the selection is applied.
	Confirm     func(summary string, empty bool) (bool, error)
	GracePeriod time.Duration
	Stderr      io.Writer
	Logger      *slog.Logger
}

// SocketPath is the IPC endpoint for this process.
func SocketPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("webmfit-%d.sock", os.Getpid()))
}

// Run launches the player on the input, waits for a confirmed selection
// and applies it to o. Any failure leaves o unchanged.
func (s *Selector) Run(ctx context.Context, o *model.Options, info model.MediaInfo) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stderr := s.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	launcher := s.Launcher
	if launcher == nil {
		launcher = ExecLauncher{Stderr: stderr, Verbose: o.Verbose}
	}
	dial := s.Dial
	if dial == nil {
		dial = func(ctx context.Context, path string, exited <-chan struct{}) (Channel, error) {
			return DialIPC(ctx, path, exited, logger)
		}
	}
	grace := s.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	m := NewMachine()

	script, err := writeScript()
	if err != nil {
		return err
	}
	defer removeLogged(logger, script)

	sock := SocketPath()
	if err := util.RemoveIfExists(sock); err != nil {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	defer removeLogged(logger, sock)

	args, err := playerArgs(o, sock, script)
	if err != nil {
		return err
	}
	PrintUsage(stderr)
	player, err := launcher.Launch(ctx, s.MPVPath, args)
	if err != nil {
		return &encoder.SubprocessFailureError{Tool: "mpv", Code: -1, Err: err}
	}
	defer func() { _ = player.Kill() }()

	ch, err := dial(ctx, sock, player.Exited())
	if err != nil {
		m.Abort()
		return &SelectionAbortedError{Reason: err.Error()}
	}
	defer ch.Close()
	if err := m.Ready(); err != nil {
		return err
	}
	logger.Info("waiting for selection", "socket", sock)

	// A vanished player must unblock Next.
	go func() {
		<-player.Exited()
		_ = ch.Close()
	}()

	for m.State() == AwaitingSelection {
		msg, err := ch.Next()
		if err != nil {
			m.Abort()
			if errors.Is(err, io.EOF) {
				return &SelectionAbortedError{Reason: "player closed without confirming"}
			}
			return &SelectionAbortedError{Reason: err.Error()}
		}
		logger.Debug("player message", "message", fmt.Sprintf("%#v", msg))
		if _, err := m.Feed(msg); err != nil {
			return err
		}
	}

	s.stopPlayer(logger, ch, player, grace)

	sel := m.Selection()
	summary := Summary(sel)
	fmt.Fprintln(stderr, "==================================================")
	fmt.Fprint(stderr, summary)
	if s.Confirm != nil {
		ok, err := s.Confirm(summary, sel.Empty())
		if err != nil {
			return &SelectionAbortedError{Reason: err.Error()}
		}
		if !ok {
			return &SelectionAbortedError{Reason: "declined"}
		}
	}
	return Apply(sel, o, info)
}

func (s *Selector) stopPlayer(logger *slog.Logger, ch Channel, player Player, grace time.Duration) {
	if err := ch.Quit(); err != nil {
		logger.Debug("quit command failed", "error", err)
	}
	select {
	case <-player.Exited():
	case <-time.After(grace):
		logger.Warn("player did not quit, killing it")
		_ = player.Kill()
		<-player.Exited()
	}
}

func playerArgs(o *model.Options, sock, script string) ([]string, error) {
	args := []string{
		"--msg-level=all=error",
		"--input-ipc-server=" + sock,
		"--script=" + script,
	}
	extra, err := shlex.Split(o.PlayerOpts)
	if err != nil {
		return nil, fmt.Errorf("split -po options: %w", err)
	}
	args = append(args, extra...)
	return append(args, "--", o.InputPath), nil
}

// writeScript stores the Lua extension in a temp file; mpv ignores
// scripts without the .lua suffix.
func writeScript() (string, error) {
	f, err := os.CreateTemp("", "webmfit-*.lua")
	if err != nil {
		return "", fmt.Errorf("create player script: %w", err)
	}
	if _, err := f.Write(luaScript); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write player script: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write player script: %w", err)
	}
	return f.Name(), nil
}

func removeLogged(logger *slog.Logger, path string) {
	if err := util.RemoveIfExists(path); err != nil {
		logger.Warn("cleanup failed", "path", path, "error", err)
	}
}
