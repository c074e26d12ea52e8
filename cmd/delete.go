package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/daybook/internal/draft"
	"github.com/chris-regnier/daybook/internal/ui"
)

var forceDelete bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a diary entry",
	Long:  "Permanently delete a diary entry. Requires confirmation unless --force is used.",
	Example: `  daybook delete a3kf9x2m
  daybook delete a3kf9x2m --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openDiary(false); err != nil {
			return err
		}
		var confirm draft.Confirmer
		switch {
		case forceDelete:
			confirm = draft.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
		case stdinIsTerminal():
			confirm = ui.TerminalConfirmer{Theme: ui.ResolveTheme(appConfig.Theme)}
		default:
			confirm = ui.LineConfirmer{In: cmd.InOrStdin(), Out: os.Stderr}
		}
		return deleteRun(cmd.Context(), cmd.OutOrStdout(), args[0], confirm, !forceDelete)
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&forceDelete, "force", "f", false, "skip confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

func deleteRun(ctx context.Context, w io.Writer, id string, confirm draft.Confirmer, preview bool) error {
	e, err := lookup(id)
	if err != nil {
		return err
	}
	if preview && !jsonOutput {
		fmt.Fprintf(w, "Entry: %s (%s)\n", e.ID, e.DisplayTitle())
		if p := e.Preview(60); p != "" {
			fmt.Fprintf(w, "Preview: %s\n", p)
		}
		fmt.Fprintln(w)
	}

	ed := draft.New(diary, confirm)
	ed.BeginEdit(e)
	deleted, err := ed.Delete(ctx)
	if err != nil {
		return systemError(err)
	}
	if !deleted {
		if jsonOutput {
			return ui.FormatJSON(w, ui.DeleteResult{ID: id, Deleted: false})
		}
		fmt.Fprintln(w, "Cancelled.")
		return nil
	}
	if jsonOutput {
		return ui.FormatJSON(w, ui.DeleteResult{ID: id, Deleted: true})
	}
	ui.FormatEntryDeleted(w, id)
	return nil
}
