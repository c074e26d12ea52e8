package cmd

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/ui"
)

var showStoryOnly bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Display a diary entry",
	Long:  "Display the full story of a diary entry with its date and photos.",
	Example: `  daybook show a3kf9x2m
  daybook show a3kf9x2m --story-only
  daybook show a3kf9x2m --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openDiary(false); err != nil {
			return err
		}
		return showRun(cmd.OutOrStdout(), args[0], showStoryOnly)
	},
}

func init() {
	showCmd.Flags().BoolVar(&showStoryOnly, "story-only", false, "print only the story text")
	rootCmd.AddCommand(showCmd)
}

// lookup returns the entry with id or a user error naming it.
func lookup(id string) (entry.Entry, error) {
	e, ok := diary.Get(id)
	if !ok {
		return entry.Entry{}, userError(fmt.Errorf("entry %s not found", id))
	}
	return e, nil
}

func showRun(w io.Writer, id string, storyOnly bool) error {
	e, err := lookup(id)
	if err != nil {
		return err
	}
	if storyOnly {
		fmt.Fprintln(w, e.Story)
		return nil
	}
	if jsonOutput {
		return ui.FormatJSON(w, ui.ToJSON(e))
	}

	theme := ui.ResolveTheme(appConfig.Theme)
	var buf bytes.Buffer
	ui.FormatEntryFull(&buf, e, theme.MarkdownStyle)
	return ui.OutputOrPage(w, buf.String(), false, appConfig.MaxWidth, theme)
}
