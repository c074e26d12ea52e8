package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/daybook/internal/draft"
	"github.com/chris-regnier/daybook/internal/editor"
	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/ui"
)

// editOptions holds the requested changes; nil fields are left alone.
type editOptions struct {
	Title        *string
	Story        *string
	Date         *string
	AddPhotos    []string
	RemovePhotos []int
}

var (
	editTitle        string
	editStory        string
	editDate         string
	editAddPhotos    []string
	editRemovePhotos []int
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a diary entry",
	Long: `Change an entry's title, story, date or photos.

Without any change flags the story opens in your editor.`,
	Example: `  daybook edit a3kf9x2m
  daybook edit a3kf9x2m --title "Beach day" --date 2025-06-02
  daybook edit a3kf9x2m --add-photo ~/Pictures/sunset.jpg --remove-photo 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openDiary(false); err != nil {
			return err
		}
		id := args[0]

		var opts editOptions
		flags := cmd.Flags()
		if flags.Changed("title") {
			opts.Title = &editTitle
		}
		if flags.Changed("story") {
			opts.Story = &editStory
		}
		if flags.Changed("date") {
			opts.Date = &editDate
		}
		opts.AddPhotos = editAddPhotos
		opts.RemovePhotos = editRemovePhotos

		if opts.empty() {
			e, err := lookup(id)
			if err != nil {
				return err
			}
			story, changed, err := editor.Edit(editor.ResolveEditor(appConfig.Editor), e.Story)
			if err != nil {
				return editorError(err)
			}
			if !changed {
				ui.FormatNoChanges(cmd.OutOrStdout(), id)
				return nil
			}
			opts.Story = &story
		}
		return editRun(cmd.Context(), cmd.OutOrStdout(), id, opts)
	},
}

func init() {
	editCmd.Flags().StringVarP(&editTitle, "title", "t", "", "new title")
	editCmd.Flags().StringVar(&editStory, "story", "", "new story")
	editCmd.Flags().StringVarP(&editDate, "date", "d", "", "new day (YYYY-MM-DD)")
	editCmd.Flags().StringSliceVar(&editAddPhotos, "add-photo", nil, "image file to attach (repeatable)")
	editCmd.Flags().IntSliceVar(&editRemovePhotos, "remove-photo", nil, "photo number to remove, as listed by show (repeatable)")
	rootCmd.AddCommand(editCmd)
}

func (o editOptions) empty() bool {
	return o.Title == nil && o.Story == nil && o.Date == nil && len(o.AddPhotos) == 0 && len(o.RemovePhotos) == 0
}

func editRun(ctx context.Context, w io.Writer, id string, opts editOptions) error {
	e, err := lookup(id)
	if err != nil {
		return err
	}
	ed := draft.New(diary, noPrompt)
	ed.BeginEdit(e)

	if opts.Title != nil {
		ed.SetTitle(*opts.Title)
	}
	if opts.Story != nil {
		ed.SetStory(*opts.Story)
	}
	if opts.Date != nil {
		t, err := entry.ParseDay(*opts.Date)
		if err != nil {
			return userError(fmt.Errorf("invalid date format (use YYYY-MM-DD): %s", *opts.Date))
		}
		ed.SelectDate(t)
	}

	// Remove from the back so earlier numbers stay valid.
	remove := append([]int(nil), opts.RemovePhotos...)
	sort.Sort(sort.Reverse(sort.IntSlice(remove)))
	for i, n := range remove {
		if i > 0 && remove[i-1] == n {
			continue
		}
		if err := ed.RemovePhoto(n - 1); err != nil {
			if errors.Is(err, draft.ErrPhotoIndex) {
				return userError(fmt.Errorf("entry %s has no photo %d", id, n))
			}
			return err
		}
	}
	if err := attachPhotos(ctx, ed, opts.AddPhotos); err != nil {
		return err
	}

	if !ed.Dirty() {
		if jsonOutput {
			return ui.FormatJSON(w, ui.ToJSON(e))
		}
		ui.FormatNoChanges(w, id)
		return nil
	}
	saved, err := ed.Save(ctx)
	if err != nil {
		return systemError(err)
	}
	if jsonOutput {
		return ui.FormatJSON(w, ui.ToJSON(saved))
	}
	ui.FormatEntryUpdated(w, saved)
	return nil
}
