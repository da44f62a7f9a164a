package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/waveflow/pkg/quantize"
	"github.com/matzehuels/waveflow/pkg/render"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for waveflow.

Completions cover the subcommands (generate, model, preview, serve, cache),
their flags, the values of --method (uniform, kmeans) and --format
(png, bmp, tiff), and file names for config files, sample images and
exported models.

Load them for the current session:

  bash:        source <(waveflow completion bash)
  zsh:         source <(waveflow completion zsh)
  fish:        waveflow completion fish | source
  powershell:  waveflow completion powershell | Out-String | Invoke-Expression

To load them in every session, write the script to your shell's completion
directory, e.g. waveflow completion zsh > "${fpath[1]}/_waveflow".`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeFlagValues registers value completions for the --method and
// --format flags of cmd, where present.
func completeFlagValues(cmd *cobra.Command) {
	if cmd.Flags().Lookup("method") != nil {
		methods := make([]string, len(quantize.Methods))
		for i, m := range quantize.Methods {
			methods[i] = string(m)
		}
		_ = cmd.RegisterFlagCompletionFunc("method", cobra.FixedCompletions(methods, cobra.ShellCompDirectiveNoFileComp))
	}
	if cmd.Flags().Lookup("format") != nil {
		formats := make([]string, len(render.Formats))
		for i, f := range render.Formats {
			formats[i] = string(f)
		}
		_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(formats, cobra.ShellCompDirectiveNoFileComp))
	}
	if cmd.Flags().Lookup("from") != nil {
		_ = cmd.MarkFlagFilename("from", "json")
	}
}
