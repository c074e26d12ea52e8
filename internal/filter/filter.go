// Package filter derives the displayed subset and order of diary entries from
// the full collection, an optional calendar day and optional search text.
//
// Everything here is a pure function of its inputs: the caller's slice is never
// reordered or mutated, so the same query over the same entries always yields
// the same result.
package filter

import (
	"sort"
	"strings"

	"github.com/chris-regnier/daybook/internal/entry"
)

// Query holds the two optional constraints applied to the entry list.
// Empty fields mean "no constraint" for that axis.
type Query struct {
	// Day is a YYYY-MM-DD calendar day.
	Day string
	// Text is free-form search text, split on whitespace.
	Text string
}

// IsZero reports whether the query constrains nothing.
func (q Query) IsZero() bool {
	return q.Day == "" && len(Tokens(q.Text)) == 0
}

// Apply returns the entries matching q, most recent first.
func Apply(entries []entry.Entry, q Query) []entry.Entry {
	words := Tokens(q.Text)
	out := make([]entry.Entry, 0, len(entries))
	for _, e := range entries {
		if q.Day != "" && entry.DayKey(e.Date) != q.Day {
			continue
		}
		if !matchesTokens(e, words) {
			continue
		}
		out = append(out, e)
	}
	SortByDateDesc(out)
	return out
}

// Matches reports whether a single entry satisfies q.
func Matches(e entry.Entry, q Query) bool {
	if q.Day != "" && entry.DayKey(e.Date) != q.Day {
		return false
	}
	return matchesTokens(e, Tokens(q.Text))
}

// Tokens lowercases text and splits it on whitespace, dropping empty words.
func Tokens(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Haystack is the lowercased text a search query is matched against:
// title, story and the display-formatted date.
func Haystack(e entry.Entry) string {
	return strings.ToLower(e.Title) + " " +
		strings.ToLower(e.Story) + " " +
		strings.ToLower(entry.FormatDate(e.Date))
}

func matchesTokens(e entry.Entry, words []string) bool {
	if len(words) == 0 {
		return true
	}
	hay := Haystack(e)
	for _, w := range words {
		if !strings.Contains(hay, w) {
			return false
		}
	}
	return true
}

// SortByDateDesc orders entries newest first in place. Equal dates keep their
// relative order; entries without a usable date go last.
func SortByDateDesc(entries []entry.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		left, right := entries[i].Date, entries[j].Date
		switch {
		case left.IsZero():
			return false
		case right.IsZero():
			return true
		default:
			return left.After(right)
		}
	})
}
