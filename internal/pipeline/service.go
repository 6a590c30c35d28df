// Package pipeline ties probing, planning and the pass runner together
// for one encode.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"webmfit/internal/encoder"
	"webmfit/internal/progress"
	"webmfit/internal/util"
	"webmfit/internal/util/bitrate"
	"webmfit/internal/util/format"
)

// Service plans and runs encodes.
type Service struct {
	ffmpegPath string
	runner     util.CmdRunner
	reporter   progress.Reporter
	policy     bitrate.Policy
	logger     *slog.Logger
	stderr     io.Writer
	jobID      string
	progress   bool
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithFFmpegPath sets the ffmpeg binary path.
func WithFFmpegPath(p string) Option {
	return func(s *Service) {
		s.ffmpegPath = p
	}
}

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithReporter attaches a progress reporter and asks ffmpeg for
// machine-readable progress.
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) {
		s.reporter = rp
		s.progress = rp != nil
	}
}

// WithPolicy overrides the size-fit constants.
func WithPolicy(p bitrate.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithStderr passes ffmpeg's diagnostics through to w.
func WithStderr(w io.Writer) Option {
	return func(s *Service) {
		s.stderr = w
	}
}

// WithJobID sets the job ID associated with reporter events.
func WithJobID(id string) Option {
	return func(s *Service) {
		s.jobID = id
	}
}

// WithClock replaces time.Now, used for the creation_time tag.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService constructs a Service, filling in defaults for anything not
// configured.
func NewService(opts ...Option) *Service {
	s := &Service{policy: bitrate.DefaultPolicy()}
	for _, o := range opts {
		o(s)
	}
	if s.runner == nil {
		s.runner = util.NewDefaultRunner()
	}
	if s.reporter == nil {
		s.reporter = progress.Nop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Result is the outcome of Run.
type Result struct {
	Plan       *Plan
	OutputPath string
	Bytes      int64
	LimitBytes int64 // 0 without a size limit
	Overweight bool
	// Delta is how many bytes the output is over (positive) or under
	// (negative) the limit.
	Delta   int64
	Elapsed time.Duration
}

// Run executes the passes of a plan and reports the output size against
// the size limit.
func (s *Service) Run(ctx context.Context, p *Plan) (Result, error) {
	if s.ffmpegPath == "" {
		return Result{}, fmt.Errorf("ffmpeg path is required")
	}
	start := s.now()
	res := Result{Plan: p}

	s.logger.Info("encoding",
		"input", p.Options.InputPath,
		"output", p.Options.OutputPath,
		"passes", len(p.Commands),
		"video_kbps", p.Resolution.Kbps,
		"quality_only", p.Resolution.QualityOnly,
	)
	out, err := encoder.RunPasses(ctx, p.Commands, encoder.RunOptions{
		FFmpegPath:    s.ffmpegPath,
		Runner:        s.runner,
		PassLogPrefix: p.PassLogPrefix,
		Verbose:       p.Options.Verbose,
		Stderr:        s.stderr,
		JobID:         s.jobID,
		Duration:      p.Duration,
		Reporter:      s.reporter,
		Logger:        s.logger,
	})
	if err != nil {
		s.reporter.Update(progress.Update{JobID: s.jobID, Stage: progress.StageError, Percent: -1, Message: err.Error()})
		s.reporter.Result(progress.Result{JobID: s.jobID, OutputPath: p.Options.OutputPath, Err: err})
		return res, fmt.Errorf("encode: %w", err)
	}

	res.OutputPath = out.Path
	res.Bytes = out.Bytes
	res.Elapsed = s.now().Sub(start)
	if l := p.Options.SizeLimitMiB; l != nil {
		res.LimitBytes = format.LimitBytes(*l)
		res.Overweight, res.Delta = checkOvershoot(out.Bytes, res.LimitBytes)
	}
	if res.Overweight {
		s.logger.Warn("output exceeds size limit", "bytes", res.Bytes, "limit", res.LimitBytes)
	}

	s.emitSaved(res)
	return res, nil
}

// emitSaved sends a final "saved" update and reporter result for TUI.
func (s *Service) emitSaved(r Result) {
	name := filepath.Base(r.OutputPath)
	size := format.HumanizeBytes(r.Bytes)
	s.reporter.Update(progress.Update{
		JobID:   s.jobID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("Saved: %s (%s)", name, size),
	})
	s.reporter.Result(progress.Result{
		JobID:      s.jobID,
		OutputPath: r.OutputPath,
		Bytes:      r.Bytes,
		LimitBytes: r.LimitBytes,
	})
}

// checkOvershoot compares the output size against the limit.
func checkOvershoot(outBytes, limitBytes int64) (bool, int64) {
	if limitBytes <= 0 {
		return false, 0
	}
	delta := outBytes - limitBytes
	return delta > 0, delta
}
