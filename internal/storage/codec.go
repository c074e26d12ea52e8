package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chris-regnier/daybook/internal/entry"
)

// TimestampLayout is the wire form of entry dates: ISO-8601 in UTC with
// millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// record is the persisted shape of an entry. The date travels as a string so
// a bad value only costs that entry its date, not the whole collection.
type record struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Story string   `json:"story"`
	Date  string   `json:"date"`
	Photo []string `json:"photo"`
}

// FormatTimestamp renders t in the wire layout, or "" for the zero time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp reads a wire date back into local time. It accepts any
// RFC 3339 timestamp and bare YYYY-MM-DD days. Anything else yields the zero
// time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.Local()
	}
	if t, err := entry.ParseDay(s); err == nil {
		return t
	}
	return time.Time{}
}

func toRecord(e entry.Entry) record {
	photos := e.Photo
	if photos == nil {
		photos = []string{}
	}
	return record{
		ID:    e.ID,
		Title: e.Title,
		Story: e.Story,
		Date:  FormatTimestamp(e.Date),
		Photo: photos,
	}
}

func fromRecord(r record) entry.Entry {
	photos := r.Photo
	if photos == nil {
		photos = []string{}
	}
	return entry.Entry{
		ID:    r.ID,
		Title: r.Title,
		Story: r.Story,
		Date:  ParseTimestamp(r.Date),
		Photo: photos,
	}
}

// MarshalEntries encodes the collection as a single JSON array.
func MarshalEntries(entries []entry.Entry) ([]byte, error) {
	records := make([]record, len(entries))
	for i, e := range entries {
		records[i] = toRecord(e)
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding entries: %v", ErrStorage, err)
	}
	return data, nil
}

// UnmarshalEntries decodes a JSON array written by MarshalEntries. Empty input
// is an empty collection.
func UnmarshalEntries(data []byte) ([]entry.Entry, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return []entry.Entry{}, nil
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding entries: %v", ErrCorrupt, err)
	}
	entries := make([]entry.Entry, len(records))
	for i, r := range records {
		entries[i] = fromRecord(r)
	}
	return entries, nil
}
