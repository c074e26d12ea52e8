package cmd

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/daybook/internal/calendar"
	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/filter"
	"github.com/chris-regnier/daybook/internal/ui"
)

type calendarOptions struct {
	Month  string
	Select string
}

var calendarOpts calendarOptions

var calendarCmd = &cobra.Command{
	Use:     "calendar",
	Aliases: []string{"cal"},
	Short:   "Show a month with the days you wrote on",
	Long: `Show a month grid. Days with at least one entry are marked with *, today is
shown in brackets. --select lists the entries of one day below the grid.`,
	Example: `  daybook calendar
  daybook calendar --month 2025-05
  daybook calendar --select 2025-06-03`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openDiary(false); err != nil {
			return err
		}
		return calendarRun(cmd.OutOrStdout(), calendarOpts, time.Now())
	},
}

func init() {
	calendarCmd.Flags().StringVarP(&calendarOpts.Month, "month", "m", "", "month to show (YYYY-MM), default this month or the selected day's")
	calendarCmd.Flags().StringVar(&calendarOpts.Select, "select", "", "day to select (YYYY-MM-DD)")
	rootCmd.AddCommand(calendarCmd)
}

type calendarJSON struct {
	Month       string         `json:"month"`
	MarkedDays  []string       `json:"marked_days"`
	TodayMarked bool           `json:"today_marked"`
	Streak      int            `json:"streak"`
	Selected    string         `json:"selected,omitempty"`
	Entries     []ui.EntryJSON `json:"entries,omitempty"`
}

func calendarRun(w io.Writer, opts calendarOptions, now time.Time) error {
	year, month := now.Year(), now.Month()

	var q filter.Query
	if opts.Select != "" {
		var err error
		q, err = calendar.Select(opts.Select)
		if err != nil {
			return userError(fmt.Errorf("invalid date format (use YYYY-MM-DD): %s", opts.Select))
		}
		t, _ := entry.ParseDay(q.Day)
		year, month = t.Year(), t.Month()
	}
	if opts.Month != "" {
		t, err := time.ParseInLocation("2006-01", opts.Month, time.Local)
		if err != nil {
			return userError(fmt.Errorf("invalid month format (use YYYY-MM): %s", opts.Month))
		}
		year, month = t.Year(), t.Month()
	}

	entries := diary.Entries()
	marked := calendar.MarkedDays(entries)
	todayMarked, streak := calendar.Streak(marked, now)

	var selected []entry.Entry
	if q.Day != "" {
		selected = filter.Apply(entries, q)
	}

	if jsonOutput {
		out := calendarJSON{
			Month:       fmt.Sprintf("%04d-%02d", year, int(month)),
			MarkedDays:  calendar.MarkedInMonth(marked, year, month),
			TodayMarked: todayMarked,
			Streak:      streak,
			Selected:    q.Day,
		}
		if q.Day != "" {
			out.Entries = ui.ToJSONList(selected)
		}
		return ui.FormatJSON(w, out)
	}

	var buf bytes.Buffer
	ui.FormatCalendar(&buf, calendar.Month(year, month, marked, entry.DayKey(now), q.Day))
	if q.Day != "" {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, ui.FilterIndicator(q))
		ui.FormatEntryList(&buf, selected)
	}
	_, err := io.WriteString(w, buf.String())
	return err
}
