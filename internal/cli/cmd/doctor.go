package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"webmfit/internal/util/deps"
)

// encoders webmfit can use, in the order doctor lists them.
var knownEncoders = []string{"libvpx-vp9", "libvpx", "libaom-av1", "libopus", "libvorbis"}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Check ffmpeg, mpv and the encoders they provide",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			rep, err := deps.Check(cmd.Context(), nil, deps.Need{FFmpeg: settings.FFmpeg, MPV: settings.MPV})
			if err != nil {
				return exitErr(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "FFmpeg: %s (%s)\n", rep.FFmpegPath, rep.FFmpegVersion)
			if rep.MPVPath != "" {
				fmt.Fprintf(out, "mpv:    %s (%s)\n", rep.MPVPath, rep.MPVVersion)
			} else {
				fmt.Fprintln(out, "mpv:    not found, interactive mode unavailable")
			}
			for _, enc := range knownEncoders {
				mark := "missing"
				if i := sort.SearchStrings(rep.Encoders, enc); i < len(rep.Encoders) && rep.Encoders[i] == enc {
					mark = "ok"
				}
				fmt.Fprintf(out, "  %-11s %s\n", enc, mark)
			}
			return nil
		},
	}
}
