// Package calendar turns the entry collection into per-day marks and turns a
// tapped day back into a filter query.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/filter"
)

// MarkedDays returns the set of YYYY-MM-DD days that have at least one entry.
// Entries without a usable date are skipped.
func MarkedDays(entries []entry.Entry) map[string]bool {
	marked := make(map[string]bool, len(entries))
	for _, e := range entries {
		if key := entry.DayKey(e.Date); key != "" {
			marked[key] = true
		}
	}
	return marked
}

// Dates returns the marked days in ascending order.
func Dates(entries []entry.Entry) []string {
	marked := MarkedDays(entries)
	days := make([]string, 0, len(marked))
	for d := range marked {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// Select returns the query that shows only entries on day.
func Select(day string) (filter.Query, error) {
	t, err := entry.ParseDay(day)
	if err != nil {
		return filter.Query{}, err
	}
	return filter.Query{Day: entry.DayKey(t)}, nil
}

// Clear returns the query that removes the day constraint.
func Clear() filter.Query {
	return filter.Query{}
}

// Cell is one square of a month grid. Padding cells before the first and
// after the last day of the month have Day == 0.
type Cell struct {
	Day      int
	Key      string
	Marked   bool
	Today    bool
	Selected bool
}

// Grid is a month laid out in Sunday-first weeks.
type Grid struct {
	Year  int
	Month time.Month
	Weeks [][7]Cell
}

// Title renders as "June 2025".
func (g Grid) Title() string {
	return fmt.Sprintf("%s %d", g.Month, g.Year)
}

// Month lays out the given month. today and selected are YYYY-MM-DD keys and
// may be empty.
func Month(year int, month time.Month, marked map[string]bool, today, selected string) Grid {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	daysIn := first.AddDate(0, 1, -1).Day()

	g := Grid{Year: year, Month: month}
	var week [7]Cell
	col := int(first.Weekday())
	for day := 1; day <= daysIn; day++ {
		key := time.Date(year, month, day, 0, 0, 0, 0, time.Local).Format(entry.DayLayout)
		week[col] = Cell{
			Day:      day,
			Key:      key,
			Marked:   marked[key],
			Today:    key == today,
			Selected: key == selected,
		}
		col++
		if col == 7 {
			g.Weeks = append(g.Weeks, week)
			week = [7]Cell{}
			col = 0
		}
	}
	if col > 0 {
		g.Weeks = append(g.Weeks, week)
	}
	return g
}

// Streak reports whether today is marked and how many consecutive marked
// days end at today. A streak is broken by the first unmarked day.
func Streak(marked map[string]bool, today time.Time) (todayMarked bool, streak int) {
	check := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	todayMarked = marked[check.Format(entry.DayLayout)]
	for marked[check.Format(entry.DayLayout)] {
		streak++
		check = check.AddDate(0, 0, -1)
	}
	return todayMarked, streak
}

// MarkedInMonth returns the marked day keys of the given month in order. The
// result is never nil.
func MarkedInMonth(marked map[string]bool, year int, month time.Month) []string {
	days := []string{}
	for _, week := range Month(year, month, marked, "", "").Weeks {
		for _, c := range week {
			if c.Marked {
				days = append(days, c.Key)
			}
		}
	}
	return days
}
