package selector

import (
	"context"
	"io"
	"os/exec"
	"sync"

	"webmfit/internal/util"
)

// Player is a running player process.
type Player interface {
	// Exited is closed once the process is gone.
	Exited() <-chan struct{}
	// Err is the wait error; valid after Exited is closed.
	Err() error
	Kill() error
}

// Launcher starts the player.
type Launcher interface {
	Launch(ctx context.Context, path string, args []string) (Player, error)
}

// ExecLauncher starts mpv with os/exec.
type ExecLauncher struct {
	Stderr  io.Writer
	Verbose bool
}

// Launch implements Launcher.
func (l ExecLauncher) Launch(ctx context.Context, path string, args []string) (Player, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = l.Stderr
	cmd.Stderr = l.Stderr
	if l.Verbose && l.Stderr != nil {
		_, _ = io.WriteString(l.Stderr, "+ "+util.ShellQuote(path, args)+"\n")
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p := &execPlayer{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

type execPlayer struct {
	cmd      *exec.Cmd
	done     chan struct{}
	err      error
	killOnce sync.Once
}

func (p *execPlayer) Exited() <-chan struct{} { return p.done }

func (p *execPlayer) Err() error {
	<-p.done
	return p.err
}

func (p *execPlayer) Kill() error {
	var err error
	p.killOnce.Do(func() {
		select {
		case <-p.done:
		default:
			err = p.cmd.Process.Kill()
		}
	})
	return err
}
