package entry

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 8

	// MaxPhotos is the maximum number of photos attached to a single entry.
	MaxPhotos = 5

	// DayLayout is the calendar-day key format used for filtering and marking.
	DayLayout = "2006-01-02"

	// DisplayLayout is the human-readable date format, also searched by text queries.
	DisplayLayout = "2 Jan 2006"
)

var idPattern = regexp.MustCompile(`^[a-z0-9]{8}$`)

// Validation errors.
var (
	ErrInvalidID     = errors.New("invalid entry ID")
	ErrTooManyPhotos = fmt.Errorf("an entry holds at most %d photos", MaxPhotos)
)

// Entry represents a single diary entry.
type Entry struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Story string    `json:"story"`
	Date  time.Time `json:"date"`
	Photo []string  `json:"photo"`
}

// NewID generates a new nanoid for an entry.
func NewID() (string, error) {
	return gonanoid.Generate(idAlphabet, idLength)
}

// ValidateID checks that id has the shape NewID mints. Stored entries may
// carry any non-empty ID, so only freshly minted IDs are checked this way.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q (must be 8 lowercase alphanumeric characters)", ErrInvalidID, id)
	}
	return nil
}

// Validate checks the invariants every stored entry must hold. IDs are
// opaque: entries written elsewhere keep whatever non-empty ID they came
// with. Empty titles and stories are allowed.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if len(e.Photo) > MaxPhotos {
		return fmt.Errorf("%w: got %d", ErrTooManyPhotos, len(e.Photo))
	}
	return nil
}

// Clone returns a deep copy so callers never alias the photo slice.
func (e Entry) Clone() Entry {
	c := e
	c.Photo = make([]string, len(e.Photo))
	copy(c.Photo, e.Photo)
	return c
}

// HasDate reports whether the entry carries a usable date.
func (e Entry) HasDate() bool {
	return !e.Date.IsZero()
}

// DayKey returns the YYYY-MM-DD key of t in the local timezone, or "" for the zero time.
func DayKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD string as local midnight.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
	}
	return t, nil
}

// FormatDate renders t as "1 Jun 2025", or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(DisplayLayout)
}

// Preview returns a single-line preview of the story at most maxLen
// characters long, ending in "..." when cut.
func (e *Entry) Preview(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(strings.Join(strings.Fields(e.Story), " "))
	if len(runes) <= maxLen {
		return string(runes)
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// DisplayTitle returns the title, or a placeholder for untitled entries.
func (e *Entry) DisplayTitle() string {
	if strings.TrimSpace(e.Title) == "" {
		return "(untitled)"
	}
	return e.Title
}
