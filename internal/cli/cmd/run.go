package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"webmfit/internal/config"
	"webmfit/internal/dirs"
	"webmfit/internal/encoder"
	"webmfit/internal/logging"
	"webmfit/internal/model"
	"webmfit/internal/pipeline"
	"webmfit/internal/progress"
	"webmfit/internal/selector"
	"webmfit/internal/ui"
	"webmfit/internal/util/deps"
	"webmfit/internal/validate"
)

// session holds what every encode command sets up before probing.
type session struct {
	settings config.Settings
	logger   *slog.Logger
	closer   io.Closer
	opts     model.Options
	ffmpeg   string
	mpv      string
}

func (s *session) close() {
	if s != nil && s.closer != nil {
		_ = s.closer.Close()
	}
}

// loadSettings reads the config file named by --config, if any.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	file, _ := cmd.Flags().GetString("config")
	s, err := config.Load(cmd.Flags(), file)
	if err != nil {
		return s, &ExitError{Code: ExitCLIError, Err: err}
	}
	return s, nil
}

// newSession loads settings, builds the logger, validates the options
// and locates the tools. console receives log output; nil keeps the
// terminal free for the TUI.
func newSession(cmd *cobra.Command, args []string, console io.Writer) (*session, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	level := settings.LogLevel
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = "debug"
	}
	logFile := settings.LogFile
	if console == nil && logFile == "" {
		logFile = stateLogFile()
	}
	logger, closer := logging.New(logging.Config{Level: level, File: logFile, Console: console})
	s := &session{settings: settings, logger: logger, closer: closer}

	o, err := optionsFromFlags(cmd.Flags(), args, settings)
	if err == nil {
		o, err = validate.Validate(o)
	}
	if err != nil {
		return s, exitErr(err)
	}
	s.opts = o

	if skip, _ := cmd.Flags().GetBool("cn"); skip {
		if s.ffmpeg, err = deps.FindFFmpeg(settings.FFmpeg); err != nil {
			return s, exitErr(err)
		}
		if o.Interactive {
			if s.mpv, err = deps.FindPlayer(settings.MPV); err != nil {
				return s, exitErr(err)
			}
		}
		return s, nil
	}

	rep, err := deps.Check(cmd.Context(), nil, deps.Need{
		FFmpeg:   settings.FFmpeg,
		MPV:      settings.MPV,
		Player:   o.Interactive,
		Encoders: deps.RequiredEncoders(o),
	})
	if err != nil {
		return s, exitErr(err)
	}
	logger.Debug("dependencies", "ffmpeg", rep.FFmpegPath, "ffmpeg_version", rep.FFmpegVersion,
		"mpv", rep.MPVPath, "mpv_version", rep.MPVVersion)
	s.ffmpeg, s.mpv = rep.FFmpegPath, rep.MPVPath
	return s, nil
}

// stateLogFile returns the default log path, or "" when the state
// directory cannot be created.
func stateLogFile() string {
	dir, err := dirs.StateDir()
	if err != nil || dirs.Ensure(dir) != nil {
		return ""
	}
	f, err := dirs.DefaultLogFile()
	if err != nil {
		return ""
	}
	return f
}

func (s *session) serviceOptions(extra ...pipeline.Option) []pipeline.Option {
	return append([]pipeline.Option{
		pipeline.WithFFmpegPath(s.ffmpeg),
		pipeline.WithPolicy(s.settings.Policy()),
		pipeline.WithLogger(logging.WithComponent(s.logger, "pipeline")),
	}, extra...)
}

// prepare probes the input and, with -p, lets the user pick the cut and
// crop in mpv.
func (s *session) prepare(cmd *cobra.Command) (model.MediaInfo, error) {
	ctx := cmd.Context()
	info, err := pipeline.NewService(s.serviceOptions()...).Probe(ctx, s.opts)
	if err != nil {
		return info, exitErr(fmt.Errorf("probe: %w", err))
	}
	if !s.opts.Interactive {
		return info, nil
	}

	sel := selector.Selector{
		MPVPath: s.mpv,
		Stderr:  cmd.ErrOrStderr(),
		Logger:  logging.WithComponent(s.logger, "selector"),
	}
	if isTerminal(os.Stdin) {
		sel.Confirm = ui.Confirm(os.Stdin, cmd.ErrOrStderr())
	}
	if err := sel.Run(ctx, &s.opts, info); err != nil {
		return info, exitErr(err)
	}
	return info, nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	if hi, _ := cmd.Flags().GetBool("help-imode"); hi {
		selector.PrintHelp(cmd.OutOrStdout())
		return nil
	}
	if !cmd.Flags().Changed("input") && len(args) == 0 {
		_ = cmd.Usage()
		return &ExitError{Code: ExitCLIError}
	}
	noUI, _ := cmd.Flags().GetBool("no-ui")
	verbose, _ := cmd.Flags().GetBool("verbose")
	useTUI := !noUI && !verbose && isTerminal(os.Stdout) && isTerminal(os.Stderr)

	var console io.Writer = cmd.ErrOrStderr()
	if useTUI {
		console = nil
	}
	s, err := newSession(cmd, args, console)
	defer s.close()
	if err != nil {
		return err
	}
	info, err := s.prepare(cmd)
	if err != nil {
		return err
	}

	var res pipeline.Result
	if useTUI {
		err = ui.Run(cmd.Context(), filepath.Base(s.opts.InputPath), func(ctx context.Context, rep progress.Reporter) error {
			var err error
			res, err = s.planAndRun(ctx, info, pipeline.WithReporter(rep))
			return err
		})
		if err != nil {
			writeEncoderTail(cmd.ErrOrStderr(), err)
		}
	} else {
		res, err = s.planAndRun(cmd.Context(), info, pipeline.WithStderr(cmd.ErrOrStderr()))
	}
	if err != nil {
		return exitErr(err)
	}

	pipeline.WriteStats(cmd.OutOrStdout(), res)
	return nil
}

func (s *session) planAndRun(ctx context.Context, info model.MediaInfo, opts ...pipeline.Option) (pipeline.Result, error) {
	svc := pipeline.NewService(s.serviceOptions(opts...)...)
	p, err := svc.Plan(ctx, s.opts, info)
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("plan: %w", err)
	}
	return svc.Run(ctx, p)
}

// writeEncoderTail prints the end of ffmpeg's diagnostics, which the TUI
// kept off the terminal.
func writeEncoderTail(w io.Writer, err error) {
	var fe *encoder.SubprocessFailureError
	if !errors.As(err, &fe) || len(fe.Stderr) == 0 {
		return
	}
	const maxLines = 20
	lines := bytes.Split(bytes.TrimRight(fe.Stderr, "\n"), []byte("\n"))
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	for _, l := range lines {
		fmt.Fprintf(w, "%s\n", l)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
