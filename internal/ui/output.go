package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/chris-regnier/daybook/internal/calendar"
	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/filter"
)

// FormatEntryCreated formats a creation confirmation message.
func FormatEntryCreated(w io.Writer, e entry.Entry) {
	fmt.Fprintf(w, "Created entry %s (%s)\n", e.ID, dateOrUndated(e))
}

// FormatEntryUpdated formats an update confirmation message.
func FormatEntryUpdated(w io.Writer, e entry.Entry) {
	fmt.Fprintf(w, "Updated entry %s (%s)\n", e.ID, dateOrUndated(e))
}

// FormatEntryDeleted formats a deletion confirmation message.
func FormatEntryDeleted(w io.Writer, id string) {
	fmt.Fprintf(w, "Deleted entry %s.\n", id)
}

// FormatNoChanges formats a "no changes" message.
func FormatNoChanges(w io.Writer, id string) {
	fmt.Fprintf(w, "No changes detected for entry %s.\n", id)
}

func dateOrUndated(e entry.Entry) string {
	if !e.HasDate() {
		return "undated"
	}
	return entry.FormatDate(e.Date)
}

// FormatEntryFull formats a full entry display with a metadata header.
// The markdownStyle parameter controls glamour rendering (e.g. "dark", "light").
func FormatEntryFull(w io.Writer, e entry.Entry, markdownStyle string) {
	fmt.Fprintf(w, "%s\n", e.DisplayTitle())
	fmt.Fprintf(w, "Entry: %s\n", e.ID)
	fmt.Fprintf(w, "Date: %s\n", dateOrUndated(e))
	if len(e.Photo) > 0 {
		fmt.Fprintf(w, "Photos (%d/%d):\n", len(e.Photo), entry.MaxPhotos)
		for i, p := range e.Photo {
			fmt.Fprintf(w, "  %d. %s\n", i+1, p)
		}
	}
	fmt.Fprintln(w)

	if strings.TrimSpace(e.Story) != "" {
		fmt.Fprintln(w, RenderStory(e.Story, 80, markdownStyle))
	}
}

// FormatEntryList formats a list of entries, one per line.
func FormatEntryList(w io.Writer, entries []entry.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No diary entries found.")
		return
	}
	for _, e := range entries {
		date := entry.FormatDate(e.Date)
		if date == "" {
			date = "-"
		}
		line := fmt.Sprintf("%s  %-11s  %s", e.ID, date, e.DisplayTitle())
		if preview := e.Preview(50); preview != "" {
			line += "  " + preview
		}
		fmt.Fprintln(w, line)
	}
}

// FilterIndicator describes active filters, or "" when none are set.
func FilterIndicator(q filter.Query) string {
	var parts []string
	if q.Day != "" {
		if t, err := entry.ParseDay(q.Day); err == nil {
			parts = append(parts, "on "+entry.FormatDate(t))
		} else {
			parts = append(parts, "on "+q.Day)
		}
	}
	if strings.TrimSpace(q.Text) != "" {
		parts = append(parts, fmt.Sprintf("matching %q", strings.TrimSpace(q.Text)))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Filtered: " + strings.Join(parts, ", ")
}

// FormatCalendar writes a month grid. Marked days carry a trailing "*",
// today is wrapped in brackets.
func FormatCalendar(w io.Writer, g calendar.Grid) {
	fmt.Fprintf(w, "%s\n", centerText(g.Title(), 7*cellWidth))
	var head strings.Builder
	for _, d := range []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"} {
		head.WriteString(" " + d + "  ")
	}
	fmt.Fprintln(w, strings.TrimRight(head.String(), " "))
	for _, week := range g.Weeks {
		var b strings.Builder
		for _, c := range week {
			b.WriteString(plainCell(c))
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

const cellWidth = 5

func plainCell(c calendar.Cell) string {
	if c.Day == 0 {
		return strings.Repeat(" ", cellWidth)
	}
	left, right, mark := " ", " ", " "
	if c.Today {
		left, right = "[", "]"
	}
	if c.Marked {
		mark = "*"
	}
	return fmt.Sprintf("%s%2d%s%s", left, c.Day, right, mark)
}

func centerText(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", (width-len(s))/2) + s
}

// FormatStatus writes the one-line status summary.
func FormatStatus(w io.Writer, s Status) {
	today := "no entry today"
	if s.TodayMarked {
		today = "written today"
	}
	fmt.Fprintf(w, "%d entries, %s, %d-day streak\n", s.Entries, today, s.Streak)
}

// Status is the JSON shape of `daybook status`.
type Status struct {
	Backend     string `json:"backend"`
	User        string `json:"user,omitempty"`
	Entries     int    `json:"entries"`
	TodayMarked bool   `json:"today_marked"`
	Streak      int    `json:"streak"`
	Live        bool   `json:"live"`
}

// FormatJSON writes any value as JSON to the writer.
func FormatJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// EntryJSON is the JSON representation of an entry in command output.
type EntryJSON struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Story  string   `json:"story"`
	Date   string   `json:"date"`
	Photos []string `json:"photos"`
}

// ToJSON converts an entry for JSON output. Dates are day keys; undated
// entries carry "".
func ToJSON(e entry.Entry) EntryJSON {
	photos := e.Photo
	if photos == nil {
		photos = []string{}
	}
	return EntryJSON{
		ID:     e.ID,
		Title:  e.Title,
		Story:  e.Story,
		Date:   entry.DayKey(e.Date),
		Photos: photos,
	}
}

// ToJSONList converts entries for JSON list output.
func ToJSONList(entries []entry.Entry) []EntryJSON {
	out := make([]EntryJSON, len(entries))
	for i, e := range entries {
		out[i] = ToJSON(e)
	}
	return out
}

// DeleteResult is a JSON representation for delete output.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
