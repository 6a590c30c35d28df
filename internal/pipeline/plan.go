package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"webmfit/internal/encoder"
	"webmfit/internal/model"
	"webmfit/internal/probe"
	"webmfit/internal/progress"
	"webmfit/internal/util"
	"webmfit/internal/util/bitrate"
	"webmfit/internal/util/format"
	"webmfit/internal/util/media"
)

// Plan is everything decided before the first pass runs.
type Plan struct {
	Options       model.Options // with the output path filled in
	Info          model.MediaInfo
	Duration      float64 // output duration in seconds
	Resolution    bitrate.Resolution
	AudioKbps     int
	EstimatedMiB  float64 // 0 in quality-only mode
	PassLogPrefix string
	Commands      []encoder.CommandSpec
}

// Probe reads the input. In cover mode the duration and title come from
// the external audio; copied external audio contributes its bitrate.
func (s *Service) Probe(ctx context.Context, o model.Options) (model.MediaInfo, error) {
	if s.ffmpegPath == "" {
		return model.MediaInfo{}, fmt.Errorf("ffmpeg path is required")
	}
	s.reporter.Update(progress.Update{JobID: s.jobID, Stage: progress.StageProbe, Percent: -1, Message: "Probing input"})

	if o.Cover != nil {
		return s.probe(ctx, o.ExternalAudio)
	}
	info, err := s.probe(ctx, o.InputPath)
	if err != nil {
		return info, err
	}
	if o.ExternalAudio != "" {
		ext, err := s.probe(ctx, o.ExternalAudio)
		if err != nil {
			return info, err
		}
		info.AudioKbps = ext.AudioKbps
		info.AudioTracks = ext.AudioTracks
	}
	return info, nil
}

func (s *Service) probe(ctx context.Context, path string) (model.MediaInfo, error) {
	info, err := probe.Probe(ctx, s.runner, s.ffmpegPath, path)
	if err != nil {
		return info, err
	}
	s.logger.Debug("probed", "path", path, "duration", info.Duration,
		"width", info.Width, "height", info.Height, "audio_kbps", info.AudioKbps)
	return info, nil
}

// Plan resolves the output path and video rate and builds the pass
// commands. o must already be validated.
func (s *Service) Plan(_ context.Context, o model.Options, info model.MediaInfo) (*Plan, error) {
	if o.OutputPath == "" {
		o.OutputPath = media.OutputFilename(o, info)
	}

	dur, err := bitrate.OutputDuration(o, info)
	if err != nil {
		return nil, err
	}
	res, err := bitrate.Resolve(o, info, s.policy)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Options:    o,
		Info:       info,
		Duration:   dur,
		Resolution: res,
		AudioKbps:  bitrate.AudioKbps(o, info, s.policy),
	}
	if !res.QualityOnly {
		p.EstimatedMiB = bitrate.EstimateMiB(res.Kbps, p.AudioKbps, dur)
	}
	if o.Passes == 2 {
		p.PassLogPrefix = media.PassLogPrefix(o.OutputPath)
	}

	p.Commands, err = encoder.BuildPasses(o, res, encoder.BuildContext{
		Duration:      dur,
		InputTitle:    info.Title,
		PassLogPrefix: p.PassLogPrefix,
		Now:           s.now(),
		Progress:      s.progress,
	})
	if err != nil {
		return nil, fmt.Errorf("build passes: %w", err)
	}
	return p, nil
}

// WriteCommands prints the pass command lines, one per line.
func (p *Plan) WriteCommands(w io.Writer, ffmpegPath string) {
	for _, c := range p.Commands {
		fmt.Fprintln(w, util.ShellQuote(ffmpegPath, c.Args))
	}
}

// WriteStats prints the summary shown after a successful encode.
func WriteStats(w io.Writer, r Result) {
	p := r.Plan
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "Output filename: %s\n", filepath.Base(r.OutputPath))
	if abs, err := filepath.Abs(r.OutputPath); err == nil {
		fmt.Fprintf(w, "Output filepath: %s\n", util.ShellQuote(abs, nil))
	}
	fmt.Fprintf(w, "Output duration: %s\n", format.Timestamp(p.Duration))
	if p.Resolution.QualityOnly {
		fmt.Fprintln(w, "Output video bitrate: quality-only")
	} else {
		fmt.Fprintf(w, "Output video bitrate: %dk\n", p.Resolution.Kbps)
	}
	fmt.Fprintf(w, "Output audio bitrate: %dk\n", p.AudioKbps)
	fmt.Fprintf(w, "Output file size: %s\n", sizeInfo(r))
	fmt.Fprintf(w, "Overall time spent: %s\n", format.Timestamp(r.Elapsed.Seconds()))
}

func sizeInfo(r Result) string {
	s := format.SizeBreakdown(r.Bytes)
	switch {
	case r.LimitBytes == 0:
	case r.Delta > 0:
		s += fmt.Sprintf(", OVERWEIGHT: %d B", r.Delta)
	case r.Delta < 0:
		s += fmt.Sprintf(", underweight: %d B", -r.Delta)
	}
	return s
}
