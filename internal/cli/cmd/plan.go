package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"webmfit/internal/pipeline"
	"webmfit/internal/selector"
	"webmfit/internal/util/format"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "plan -i infile [flags] [outfile]",
		Short:         "Print the ffmpeg commands without running them",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if hi, _ := cmd.Flags().GetBool("help-imode"); hi {
				selector.PrintHelp(cmd.OutOrStdout())
				return nil
			}
			s, err := newSession(cmd, args, cmd.ErrOrStderr())
			defer s.close()
			if err != nil {
				return err
			}
			info, err := s.prepare(cmd)
			if err != nil {
				return err
			}
			p, err := pipeline.NewService(s.serviceOptions()...).Plan(cmd.Context(), s.opts, info)
			if err != nil {
				return exitErr(fmt.Errorf("plan: %w", err))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Output:   %s\n", p.Options.OutputPath)
			fmt.Fprintf(out, "Duration: %s\n", format.Timestamp(p.Duration))
			if p.Resolution.QualityOnly {
				fmt.Fprint(out, "Video:    constant quality")
				if p.Options.CRF != nil {
					fmt.Fprintf(out, ", crf %d", *p.Options.CRF)
				}
				fmt.Fprintln(out)
			} else {
				fmt.Fprintf(out, "Video:    %dk\n", p.Resolution.Kbps)
			}
			fmt.Fprintf(out, "Audio:    %dk\n", p.AudioKbps)
			if p.EstimatedMiB > 0 {
				fmt.Fprintf(out, "Estimate: %.2f MiB\n", p.EstimatedMiB)
			}
			fmt.Fprintln(out)
			p.WriteCommands(out, s.ffmpeg)
			return nil
		},
	}
	cmd.Flags().Bool("help-imode", false, "Show help on interactive mode (-hi)")
	bindEncodeFlags(cmd.Flags())
	registerFlagCompletions(cmd)
	return cmd
}
