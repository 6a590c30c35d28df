package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"webmfit/internal/cli"
	"webmfit/internal/encoder"
	"webmfit/internal/selector"
	"webmfit/internal/util/bitrate"
	"webmfit/internal/util/deps"
	"webmfit/internal/validate"
)

// Version is set at build time with -ldflags.
var Version = "dev"

const (
	ExitOK           = 0
	ExitCLIError     = 1
	ExitMissingDep   = 2
	ExitSizeFit      = 3
	ExitAborted      = 4
	ExitEncoderError = 5
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// exitCode maps the error taxonomy to process exit codes.
func exitCode(err error) int {
	var (
		ve *validate.ValidationError
		ce *validate.ConflictError
		me *deps.MissingError
		se *bitrate.SizeInfeasibleError
		ae *selector.SelectionAbortedError
		fe *encoder.SubprocessFailureError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ve), errors.As(err, &ce):
		return ExitCLIError
	case errors.As(err, &me):
		return ExitMissingDep
	case errors.As(err, &se):
		return ExitSizeFit
	case errors.As(err, &ae):
		return ExitAborted
	case errors.As(err, &fe):
		return ExitEncoderError
	default:
		return ExitCLIError
	}
}

// exitErr wraps err with the exit code its type calls for.
func exitErr(err error) error {
	if err == nil {
		return nil
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee
	}
	return &ExitError{Code: exitCode(err), Err: err}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "webmfit -i infile [flags] [outfile]",
		Short: "Encode WebM clips that fit a size limit",
		Long: `webmfit converts videos to WebM (VP9/VP8/AV1 with Opus or Vorbis) using a
two-pass ffmpeg encode whose video bitrate is computed to fit a file size
limit (8 MiB unless -l or -vb is given; -crf alone still fits the limit,
use -vb 0 for quality-only). With -p the clip is cut and cropped
interactively in mpv first.

Options are written with a single dash, e.g. -vb 900 -ss 1:10 -t 15.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(cmd, args)
		},
	}

	// Persistent flags available to all subcommands
	pf := root.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Show full ffmpeg/mpv commands and output")
	pf.String("config", "", "Config file (default: config.yaml in the user config dir)")
	pf.String("ffmpeg", "", "Path to ffmpeg (env WEBM_FFMPEG)")
	pf.String("mpv", "", "Path to mpv (env WEBM_MPV)")
	pf.String("log-file", "", "Also write logs to this file, rotated")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.Bool("cn", false, "Skip dependency and version checks (advanced)")

	root.Flags().BoolP("version", "V", false, "Print the version and exit")
	root.Flags().Bool("help-imode", false, "Show help on interactive mode (-hi)")
	root.Flags().Bool("no-ui", false, "Disable the progress TUI; print plain output")
	bindEncodeFlags(root.Flags())
	registerFlagCompletions(root)

	root.AddCommand(newPlanCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

// bindEncodeFlags defines the encode options shared by the root command
// and plan.
func bindEncodeFlags(fs *pflag.FlagSet) {
	fs.StringP("input", "i", "", "Input file, e.g. infile.mkv (required)")

	fs.String("ss", "", "Seek in input to position (seconds or [hh:]mm:ss[.xxx])")
	fs.StringP("duration", "t", "", "Limit the duration read from input; exclusive with -to")
	fs.String("to", "", "Stop writing the output at position")

	fs.Float64P("limit", "l", 0, "Target size limit in MiB (default from config, 8); exclusive with -vb")
	fs.Float64("vb", 0, "Target video bitrate in kbit/s; 0 means constant quality")
	fs.Int("crf", 0, "Video quality level (0..63)")
	fs.Int("qmin", 0, "Minimum (best) video quality level (0..63)")
	fs.Int("qmax", 0, "Maximum (worst) video quality level (0..63)")

	fs.String("vc", "", "Video codec: vp9 (default), vp8, av1")
	fs.Bool("vp8", false, "Use VP8 for video, implies -vorbis")
	fs.Bool("av1", false, "Use AV1 (libaom) for video")
	fs.Int("speed", 0, "Compression effort 0..8 (-speed for libvpx, -cpu-used for libaom)")
	fs.Int("passes", 0, "Number of passes, 1 or 2 (default 2)")
	fs.Int("threads", 0, "Encoder threads (default: number of CPUs)")
	fs.Int("vw", 0, "Output video width in pixels")
	fs.Int("vh", 0, "Output video height in pixels")
	fs.String("vs", "", "Video stream number to use (default: best)")
	fs.String("vf", "", "Additional video filters")
	fs.String("vfi", "", "Video filters to insert at the start of the chain")
	fs.String("crop", "", "Crop rectangle w:h:x:y in source pixels")

	fs.Bool("an", false, "Strip audio; exclusive with -ab, -aq, -aa, -as, -af")
	fs.Bool("opus", false, "Use Opus for audio (default unless -vp8 or -vorbis)")
	fs.Bool("vorbis", false, "Use Vorbis for audio")
	fs.Bool("acopy", false, "Copy the audio stream without re-encoding")
	fs.Float64("ab", 0, "Opus audio bitrate in kbit/s (default 64)")
	fs.Int("aq", 0, "Vorbis audio quality -1..10 (default 0)")
	fs.String("aa", "", "External audio file to mux (first audio stream unless -as)")
	fs.String("as", "", "Audio stream number to use (default: best)")
	fs.String("af", "", "Audio filters")

	fs.String("sa", "", "Burn subtitles from the given file, or from the input when omitted")
	fs.Lookup("sa").NoOptDefVal = cli.OptionalValue
	fs.Int("si", 0, "Subtitle index among subtitle streams (default: best)")
	fs.Float64("sd", 0, "Delay subtitles by this number of seconds")
	fs.String("sf", "", "Override the default subtitle style")

	fs.BoolP("play", "p", false, "Pick cut and crop interactively in mpv; exclusive with -ss, -t, -to")
	fs.String("po", "", "Additional raw mpv options, e.g. -po='--mute'")
	fs.String("cover", "", "Album cover mode: input is an image, -aa the song; optional loop options (default '-r 1 -loop 1')")
	fs.Lookup("cover").NoOptDefVal = cli.OptionalValue

	fs.String("mt", "", "Set the title; the output name without extension when omitted")
	fs.Lookup("mt").NoOptDefVal = cli.OptionalValue
	fs.Bool("mc", false, "Add creation time to the output")
	fs.Bool("mn", false, "Strip metadata; exclusive with -mt, -mc")

	fs.String("fo", "", "Additional raw ffmpeg options, e.g. -fo='-aspect 16:9'")
	fs.String("foi", "", "Raw ffmpeg options to insert before the first input")
	fs.String("foi2", "", "Raw ffmpeg options to insert after the first input")
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	root.SetArgs(cli.NormalizeArgs(os.Args[1:]))
	return root.ExecuteContext(ctx)
}
