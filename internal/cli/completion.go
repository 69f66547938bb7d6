package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for wheeltag.

Bash:
  $ source <(wheeltag completion bash)

  # To load completions for each session, execute once:
  $ wheeltag completion bash > /etc/bash_completion.d/wheeltag

Zsh:
  # Enable completion once if it is not already enabled:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  $ wheeltag completion zsh > "${fpath[1]}/_wheeltag"

Fish:
  $ wheeltag completion fish | source
  $ wheeltag completion fish > ~/.config/fish/completions/wheeltag.fish

PowerShell:
  PS> wheeltag completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
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
