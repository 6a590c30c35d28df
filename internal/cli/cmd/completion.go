package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `To load completions:

Bash:
	source <(webmfit completion bash)

Zsh:
	webmfit completion zsh > "${fpath[1]}/_webmfit"

Fish:
	webmfit completion fish | source

PowerShell:
	webmfit completion powershell | Out-String | Invoke-Expression

Completed options use the double-dash spelling; both are accepted.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("unknown shell %q", args[0])}
		},
	}
}

var (
	videoExts    = []string{"mkv", "mp4", "webm", "avi", "mov", "flv", "ts", "m2ts", "wmv"}
	audioExts    = []string{"mp3", "flac", "ogg", "opus", "m4a", "wav", "mka"}
	imageExts    = []string{"jpg", "jpeg", "png", "webp", "bmp"}
	subtitleExts = []string{"ass", "ssa", "srt", "vtt"}
)

// registerFlagCompletions adds value completion for the encode flags.
func registerFlagCompletions(cmd *cobra.Command) {
	fixed := func(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return values, cobra.ShellCompDirectiveNoFileComp
		}
	}
	_ = cmd.RegisterFlagCompletionFunc("vc", fixed("vp9", "vp8", "av1"))
	_ = cmd.RegisterFlagCompletionFunc("passes", fixed("1", "2"))
	_ = cmd.RegisterFlagCompletionFunc("limit", fixed("4", "8", "25", "50"))
	_ = cmd.MarkFlagFilename("input", append(append([]string{}, videoExts...), imageExts...)...)
	_ = cmd.MarkFlagFilename("aa", append(append([]string{}, audioExts...), videoExts...)...)
	_ = cmd.MarkFlagFilename("sa", subtitleExts...)
}
