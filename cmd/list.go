package cmd

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/daybook/internal/calendar"
	"github.com/chris-regnier/daybook/internal/filter"
	"github.com/chris-regnier/daybook/internal/ui"
)

type listOptions struct {
	Date   string
	Search string
	IDOnly bool
}

var listOpts listOptions

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List diary entries",
	Long:  "List diary entries newest first, optionally narrowed to one day or to entries matching every search word.",
	Example: `  daybook list
  daybook list --date 2025-06-03
  daybook list --search "beach sunset"
  daybook list --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openDiary(false); err != nil {
			return err
		}
		return listRun(cmd.OutOrStdout(), listOpts)
	},
}

func init() {
	listCmd.Flags().StringVar(&listOpts.Date, "date", "", "only entries on this day (YYYY-MM-DD)")
	listCmd.Flags().StringVarP(&listOpts.Search, "search", "s", "", "only entries matching every word")
	listCmd.Flags().BoolVar(&listOpts.IDOnly, "id-only", false, "print just entry IDs, one per line")
	rootCmd.AddCommand(listCmd)
}

func listQuery(opts listOptions) (filter.Query, error) {
	q := calendar.Clear()
	if opts.Date != "" {
		var err error
		q, err = calendar.Select(opts.Date)
		if err != nil {
			return filter.Query{}, userError(fmt.Errorf("invalid date format (use YYYY-MM-DD): %s", opts.Date))
		}
	}
	q.Text = opts.Search
	return q, nil
}

func listRun(w io.Writer, opts listOptions) error {
	q, err := listQuery(opts)
	if err != nil {
		return err
	}
	entries := filter.Apply(diary.Entries(), q)

	if opts.IDOnly {
		for _, e := range entries {
			fmt.Fprintln(w, e.ID)
		}
		return nil
	}
	if jsonOutput {
		return ui.FormatJSON(w, ui.ToJSONList(entries))
	}

	var buf bytes.Buffer
	if ind := ui.FilterIndicator(q); ind != "" {
		fmt.Fprintln(&buf, ind)
	}
	ui.FormatEntryList(&buf, entries)
	return ui.OutputOrPage(w, buf.String(), false, appConfig.MaxWidth, ui.ResolveTheme(appConfig.Theme))
}
