package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/chris-regnier/daybook/internal/calendar"
	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/filter"
)

func TestFormatEntryFull(t *testing.T) {
	e := entry.Entry{
		ID:    "hike0001",
		Title: "Hike",
		Story: "great **day**",
		Date:  time.Date(2025, 6, 1, 8, 0, 0, 0, time.Local),
		Photo: []string{"a.jpg", "b.jpg"},
	}
	var buf bytes.Buffer
	FormatEntryFull(&buf, e, "notty")
	out := buf.String()

	for _, want := range []string{"Hike\n", "Entry: hike0001", "Date: 1 Jun 2025", "Photos (2/5):", "  2. b.jpg", "great"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatEntryFullUndated(t *testing.T) {
	var buf bytes.Buffer
	FormatEntryFull(&buf, entry.Entry{ID: "blank001"}, "notty")
	out := buf.String()
	if !strings.Contains(out, "(untitled)") || !strings.Contains(out, "Date: undated") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "Photos") {
		t.Error("no photo section expected")
	}
}

func TestFormatEntryList(t *testing.T) {
	var buf bytes.Buffer
	FormatEntryList(&buf, nil)
	if buf.String() != "No diary entries found.\n" {
		t.Errorf("empty list = %q", buf.String())
	}

	buf.Reset()
	FormatEntryList(&buf, []entry.Entry{
		{ID: "beach001", Title: "Beach", Story: "sand\nand sun", Date: time.Date(2025, 6, 3, 0, 0, 0, 0, time.Local)},
		{ID: "blank001"},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0] != "beach001  3 Jun 2025   Beach  sand and sun" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "blank001  -            (untitled)" {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestFilterIndicator(t *testing.T) {
	tests := []struct {
		q    filter.Query
		want string
	}{
		{filter.Query{}, ""},
		{filter.Query{Text: "   "}, ""},
		{filter.Query{Day: "2025-06-03"}, "Filtered: on 3 Jun 2025"},
		{filter.Query{Text: " beach "}, `Filtered: matching "beach"`},
		{filter.Query{Day: "2025-06-03", Text: "day"}, `Filtered: on 3 Jun 2025, matching "day"`},
	}
	for _, tt := range tests {
		if got := FilterIndicator(tt.q); got != tt.want {
			t.Errorf("FilterIndicator(%+v) = %q, want %q", tt.q, got, tt.want)
		}
	}
}

func TestFormatCalendar(t *testing.T) {
	marked := map[string]bool{"2025-06-01": true, "2025-06-03": true}
	g := calendar.Month(2025, time.June, marked, "2025-06-03", "")

	var buf bytes.Buffer
	FormatCalendar(&buf, g)
	lines := strings.Split(buf.String(), "\n")

	if strings.TrimSpace(lines[0]) != "June 2025" {
		t.Errorf("title = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], " Su   Mo") {
		t.Errorf("header = %q", lines[1])
	}
	// 1 June 2025 is a Sunday.
	if want := "  1 *  2  [ 3]*  4"; !strings.HasPrefix(lines[2], want) {
		t.Errorf("first week = %q, want prefix %q", lines[2], want)
	}
}

func TestFormatStatus(t *testing.T) {
	var buf bytes.Buffer
	FormatStatus(&buf, Status{Entries: 4, TodayMarked: true, Streak: 3})
	if got := buf.String(); got != "4 entries, written today, 3-day streak\n" {
		t.Errorf("status = %q", got)
	}
}

func TestToJSON(t *testing.T) {
	out := ToJSON(entry.Entry{ID: "blank001"})
	if out.Date != "" {
		t.Errorf("undated entry date = %q", out.Date)
	}
	if out.Photos == nil {
		t.Error("photos should encode as []")
	}

	var buf bytes.Buffer
	if err := FormatJSON(&buf, ToJSONList([]entry.Entry{{
		ID:    "beach001",
		Title: "Beach",
		Date:  time.Date(2025, 6, 3, 18, 0, 0, 0, time.Local),
		Photo: []string{"a.jpg"},
	}})); err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded[0]["date"] != "2025-06-03" {
		t.Errorf("date = %v", decoded[0]["date"])
	}
}

func TestLineConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"y", true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		c := LineConfirmer{In: strings.NewReader(tt.input), Out: &out}
		got, err := c.Confirm(context.Background(), "Delete?")
		if err != nil {
			t.Fatalf("input %q: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("input %q = %v, want %v", tt.input, got, tt.want)
		}
		if out.String() != "Delete? [y/N] " {
			t.Errorf("prompt = %q", out.String())
		}
	}
}
