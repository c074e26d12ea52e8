package entry

import (
	"errors"
	"testing"
	"time"
	"unicode/utf8"
)

func TestNewIDMatchesPattern(t *testing.T) {
	for i := 0; i < 50; i++ {
		id, err := NewID()
		if err != nil {
			t.Fatalf("NewID: %v", err)
		}
		if err := ValidateID(id); err != nil {
			t.Fatalf("generated id %q rejected: %v", id, err)
		}
	}
}

func TestValidatePhotoCap(t *testing.T) {
	e := Entry{ID: "abc12345", Photo: []string{"1", "2", "3", "4", "5"}}
	if err := e.Validate(); err != nil {
		t.Fatalf("five photos should be valid: %v", err)
	}
	e.Photo = append(e.Photo, "6")
	if err := e.Validate(); !errors.Is(err, ErrTooManyPhotos) {
		t.Errorf("expected ErrTooManyPhotos, got %v", err)
	}
}

func TestValidateAcceptsForeignIDs(t *testing.T) {
	for _, id := range []string{"1717200000000", "Xk3pQ9aB7cD2eF5gH8jK", "abc12345"} {
		if err := (Entry{ID: id}).Validate(); err != nil {
			t.Errorf("id %q rejected: %v", id, err)
		}
	}
	for _, id := range []string{"", "   "} {
		if err := (Entry{ID: id}).Validate(); !errors.Is(err, ErrInvalidID) {
			t.Errorf("id %q: expected ErrInvalidID, got %v", id, err)
		}
	}
	if err := ValidateID("1717200000000"); !errors.Is(err, ErrInvalidID) {
		t.Error("ValidateID should still enforce the minted shape")
	}
}

func TestValidateAllowsEmptyFields(t *testing.T) {
	e := Entry{ID: "abc12345"}
	if err := e.Validate(); err != nil {
		t.Errorf("empty title/story should be valid: %v", err)
	}
}

func TestCloneDoesNotAliasPhotos(t *testing.T) {
	e := Entry{ID: "abc12345", Photo: []string{"a.jpg"}}
	c := e.Clone()
	c.Photo[0] = "b.jpg"
	c.Photo = append(c.Photo, "c.jpg")
	if e.Photo[0] != "a.jpg" || len(e.Photo) != 1 {
		t.Errorf("original mutated through clone: %v", e.Photo)
	}
}

func TestDayKeyIgnoresTimeOfDay(t *testing.T) {
	morning := time.Date(2025, 6, 1, 0, 5, 0, 0, time.Local)
	night := time.Date(2025, 6, 1, 23, 55, 0, 0, time.Local)
	if DayKey(morning) != "2025-06-01" || DayKey(night) != "2025-06-01" {
		t.Errorf("DayKey = %q / %q, want 2025-06-01", DayKey(morning), DayKey(night))
	}
	if DayKey(time.Time{}) != "" {
		t.Error("zero time should have an empty day key")
	}
}

func TestDayKeyNormalizesZone(t *testing.T) {
	local := time.Date(2025, 6, 3, 12, 0, 0, 0, time.Local)
	if DayKey(local.UTC()) != DayKey(local) {
		t.Errorf("same instant in different zones gave %q and %q", DayKey(local.UTC()), DayKey(local))
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	if got := FormatDate(d); got != "1 Jun 2025" {
		t.Errorf("FormatDate = %q, want %q", got, "1 Jun 2025")
	}
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2025-06-03")
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}
	if DayKey(d) != "2025-06-03" {
		t.Errorf("round trip gave %q", DayKey(d))
	}
	if _, err := ParseDay("03/06/2025"); err == nil {
		t.Error("expected error for non-ISO day")
	}
}

func TestPreview(t *testing.T) {
	e := Entry{Story: "line one\nline two"}
	if got := e.Preview(60); got != "line one line two" {
		t.Errorf("Preview = %q", got)
	}
	e.Story = "abcdefghijklmnop"
	if got := e.Preview(10); got != "abcdefg..." {
		t.Errorf("Preview = %q", got)
	}
}

func TestPreviewCutsOnRunes(t *testing.T) {
	e := Entry{Story: "Día de playa con ñandúes"}
	tests := []struct {
		maxLen int
		want   string
	}{
		{5, "Dí..."},
		{6, "Día..."},
		{3, "Día"},
		{1, "D"},
		{0, ""},
		{-1, ""},
		{100, "Día de playa con ñandúes"},
	}
	for _, tt := range tests {
		got := e.Preview(tt.maxLen)
		if got != tt.want {
			t.Errorf("Preview(%d) = %q, want %q", tt.maxLen, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("Preview(%d) = %q is not valid UTF-8", tt.maxLen, got)
		}
	}
}
