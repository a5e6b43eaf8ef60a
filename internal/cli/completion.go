package cli

import (
	"github.com/spf13/cobra"
)

// documentExts are the snapshot extensions offered for document arguments.
var documentExts = []string{"json", "yaml", "yml", "toml"}

// completeDocument completes the single document argument of a command.
func completeDocument(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return documentExts, cobra.ShellCompDirectiveFilterFileExt
}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for xsheet.

Bash:
  $ source <(xsheet completion bash)
  $ xsheet completion bash > /etc/bash_completion.d/xsheet

Zsh:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  $ xsheet completion zsh > "${fpath[1]}/_xsheet"

Fish:
  $ xsheet completion fish > ~/.config/fish/completions/xsheet.fish

PowerShell:
  PS> xsheet completion powershell | Out-String | Invoke-Expression
`,
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
