package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/daybook/internal/draft"
	"github.com/chris-regnier/daybook/internal/editor"
	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/photo"
	"github.com/chris-regnier/daybook/internal/ui"
)

type newOptions struct {
	Title  string
	Story  string
	Date   string
	Photos []string
}

var newOpts newOptions

var newCmd = &cobra.Command{
	Use:     "new [story]",
	Aliases: []string{"create"},
	Short:   "Write a new diary entry",
	Long: `Write a new diary entry dated today unless --date says otherwise.

The story comes from --story, the arguments, or stdin when the only argument
is "-". With none of these and a terminal attached, your editor opens.`,
	Example: `  daybook new --title "Beach day" "Swam until sunset."
  echo "Long walk." | daybook new -
  daybook new --date 2025-06-01 --photo ~/Pictures/ridge.jpg
  daybook new`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openDiary(false); err != nil {
			return err
		}
		opts := newOpts
		story, err := readStory(cmd.InOrStdin(), args, cmd.Flags().Changed("story"), opts.Title != "" || len(opts.Photos) > 0)
		if err != nil {
			return err
		}
		if story != nil {
			opts.Story = *story
		}
		return newRun(cmd.Context(), cmd.OutOrStdout(), opts)
	},
}

func init() {
	newCmd.Flags().StringVarP(&newOpts.Title, "title", "t", "", "entry title")
	newCmd.Flags().StringVar(&newOpts.Story, "story", "", "entry story")
	newCmd.Flags().StringVarP(&newOpts.Date, "date", "d", "", "entry day (YYYY-MM-DD), default today")
	newCmd.Flags().StringSliceVarP(&newOpts.Photos, "photo", "p", nil, "image file to attach (repeatable, at most 5)")
	rootCmd.AddCommand(newCmd)
}

// readStory resolves the story from the positional arguments. It returns nil
// when the story is already set by flag, or when there is nothing to read
// and the entry has other content.
func readStory(in io.Reader, args []string, fromFlag, hasOther bool) (*string, error) {
	if fromFlag {
		if len(args) > 0 {
			return nil, userError(errors.New("give the story either with --story or as arguments, not both"))
		}
		return nil, nil
	}
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, systemError(fmt.Errorf("reading stdin: %w", err))
		}
		s := strings.TrimSpace(string(data))
		return &s, nil
	}
	if len(args) > 0 {
		s := strings.Join(args, " ")
		return &s, nil
	}
	if hasOther || !stdinIsTerminal() {
		return nil, nil
	}
	s, _, err := editor.Edit(editor.ResolveEditor(appConfig.Editor), "")
	if err != nil {
		return nil, editorError(err)
	}
	if strings.TrimSpace(s) == "" {
		return nil, userError(errors.New("empty story, entry not saved"))
	}
	return &s, nil
}

func newRun(ctx context.Context, w io.Writer, opts newOptions) error {
	ed := draft.New(diary, noPrompt)
	ed.BeginCreate()

	if opts.Date != "" {
		t, err := entry.ParseDay(opts.Date)
		if err != nil {
			return userError(fmt.Errorf("invalid date format (use YYYY-MM-DD): %s", opts.Date))
		}
		ed.SelectDate(t)
	}
	ed.SetTitle(opts.Title)
	ed.SetStory(opts.Story)

	if err := attachPhotos(ctx, ed, opts.Photos); err != nil {
		return err
	}

	e, err := ed.Save(ctx)
	if err != nil {
		return systemError(err)
	}
	if jsonOutput {
		return ui.FormatJSON(w, ui.ToJSON(e))
	}
	ui.FormatEntryCreated(w, e)
	return nil
}

// attachPhotos imports paths into the photo library and adds them to the
// draft, warning on stderr about any that did not fit.
func attachPhotos(ctx context.Context, ed *draft.Editor, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	n, err := ed.AttachPhotos(ctx, photo.Files{Library: photoLibrary(), Paths: paths})
	if err != nil {
		return userError(err)
	}
	if n < len(paths) {
		fmt.Fprintf(os.Stderr, "Warning: attached %d of %d photos, an entry holds at most %d.\n", n, len(paths), entry.MaxPhotos)
	}
	return nil
}

// noPrompt refuses every confirmation. Commands that never cancel or delete
// through the draft use it.
var noPrompt = draft.ConfirmFunc(func(context.Context, string) (bool, error) {
	return false, nil
})
