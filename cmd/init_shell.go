package cmd

import (
	"github.com/spf13/cobra"

	"github.com/chris-regnier/daybook/internal/shell"
)

var initShellCmd = &cobra.Command{
	Use:   "init <shell>",
	Short: "Print shell integration script",
	Long: `Print a script for eval that sets up:
- Shell completions
- A prompt hook exporting DAYBOOK_TODAY, DAYBOOK_STREAK and DAYBOOK_ENTRIES

Supported shells: bash, zsh, fish`,
	Example: `  # Add to ~/.bashrc
  eval "$(daybook init bash)"

  # Add to ~/.zshrc
  eval "$(daybook init zsh)"

  # Add to ~/.config/fish/config.fish
  daybook init fish | source`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: shell.Shells,
	// Runs at every shell start and needs no config or session.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shell.WriteInit(cmd.OutOrStdout(), args[0]); err != nil {
			return userError(err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initShellCmd)
}
