package encoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"webmfit/internal/progress"
	"webmfit/internal/util"
)

// SubprocessFailureError reports an external tool that could not be
// started or exited with a nonzero status.
type SubprocessFailureError struct {
	Tool   string // "ffmpeg" or "mpv"
	Pass   int    // 0 when not an encoder pass
	Passes int
	Code   int // -1 when the process never ran
	Stderr []byte
	Err    error
}

func (e *SubprocessFailureError) Error() string {
	stage := e.Tool
	if e.Pass > 0 {
		stage = fmt.Sprintf("%s pass %d/%d", e.Tool, e.Pass, e.Passes)
	}
	if e.Code < 0 {
		return fmt.Sprintf("%s could not be run: %v", stage, e.Err)
	}
	return fmt.Sprintf("%s failed with exit status %d", stage, e.Code)
}

func (e *SubprocessFailureError) Unwrap() error { return e.Err }

// RunOptions control how passes are executed.
type RunOptions struct {
	FFmpegPath    string
	Runner        util.CmdRunner
	PassLogPrefix string
	Verbose       bool

	// Stderr receives ffmpeg's diagnostics verbatim. Nil keeps them in
	// the error only.
	Stderr io.Writer

	JobID    string
	Duration float64
	Reporter progress.Reporter
	Logger   *slog.Logger
}

// Output describes the file a successful run produced.
type Output struct {
	Path  string
	Bytes int64
}

// RunPasses executes the specs in order and stops at the first failure.
// Pass-log files are removed whatever the outcome. On failure the output
// is removed only if the failing pass was the one writing it, so an
// earlier file at that path survives an analysis-pass failure.
func RunPasses(ctx context.Context, specs []CommandSpec, opts RunOptions) (Output, error) {
	if opts.FFmpegPath == "" {
		return Output{}, errors.New("ffmpeg path is required")
	}
	if len(specs) == 0 {
		return Output{}, errors.New("no passes to run")
	}
	if opts.Runner == nil {
		opts.Runner = util.NewDefaultRunner()
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	final := specs[len(specs)-1].Output
	if err := util.EnsureDir(filepath.Dir(final)); err != nil {
		return Output{}, fmt.Errorf("ensure output dir: %w", err)
	}

	if opts.PassLogPrefix != "" {
		defer func() {
			removed, err := util.RemoveFiles(PassLogFiles(opts.PassLogPrefix)...)
			if err != nil {
				logger.Warn("could not remove pass log", "prefix", opts.PassLogPrefix, "error", err)
				return
			}
			if len(removed) > 0 {
				logger.Debug("removed pass log", "files", removed)
			}
		}()
	}

	total := len(specs)
	for _, spec := range specs {
		stage := progress.PassStage(spec.Pass, total)
		logger.Info("starting pass", "pass", spec.Pass, "of", total, "output", spec.Output)
		opts.Reporter.Update(progress.Update{JobID: opts.JobID, Stage: stage, Percent: 0, Message: "Encoding " + string(stage)})

		ps := &ProgressState{}
		res, err := opts.Runner.Run(ctx, util.CmdSpec{
			Path:    opts.FFmpegPath,
			Args:    spec.Args,
			Verbose: opts.Verbose,
			Stderr:  opts.Stderr,
			StdoutLine: func(line string) {
				if u, ok := ps.UpdateFromLine(line, opts.JobID, stage, opts.Duration); ok {
					opts.Reporter.Update(u)
				}
			},
			StderrLine: func(line string) {
				opts.Reporter.Log(progress.Log{JobID: opts.JobID, Stream: progress.StreamStderr, Line: line})
			},
		})
		if err != nil {
			if spec.Output == final {
				if rmErr := util.RemoveIfExists(final); rmErr != nil {
					logger.Warn("could not remove partial output", "path", final, "error", rmErr)
				}
			}
			code := res.Code
			if code == 0 {
				code = -1
			}
			return Output{}, &SubprocessFailureError{
				Tool:   "ffmpeg",
				Pass:   spec.Pass,
				Passes: total,
				Code:   code,
				Stderr: res.Stderr,
				Err:    err,
			}
		}
	}

	fi, err := os.Stat(final)
	if err != nil {
		return Output{}, fmt.Errorf("stat output: %w", err)
	}
	return Output{Path: final, Bytes: fi.Size()}, nil
}

// PassLogFiles lists the files ffmpeg writes for a pass-log prefix. The
// video stream is always output stream 0.
func PassLogFiles(prefix string) []string {
	return []string{prefix + "-0.log", prefix + "-0.log.mbtree"}
}
