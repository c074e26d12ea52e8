package api

import (
	"github.com/chris-regnier/daybook/internal/entry"
)

// EntryRequest is the body of POST /entries and PUT /entries/:id. On update,
// omitted fields keep their current value.
type EntryRequest struct {
	Title  *string   `json:"title"`
	Story  *string   `json:"story"`
	Date   *string   `json:"date"`
	Photos *[]string `json:"photos"`
}

// EntryResponse is an entry as served by the API. Date is a YYYY-MM-DD key,
// empty for undated entries.
type EntryResponse struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Story  string   `json:"story"`
	Date   string   `json:"date"`
	Photos []string `json:"photos"`
}

// ListResponse is the body of GET /entries.
type ListResponse struct {
	Entries []EntryResponse `json:"entries"`
	Total   int             `json:"total"`
}

// CalendarResponse is the body of GET /calendar.
type CalendarResponse struct {
	Month       string   `json:"month"`
	MarkedDays  []string `json:"marked_days"`
	TodayMarked bool     `json:"today_marked"`
	Streak      int      `json:"streak"`
}

func toResponse(e entry.Entry) EntryResponse {
	photos := e.Photo
	if photos == nil {
		photos = []string{}
	}
	return EntryResponse{
		ID:     e.ID,
		Title:  e.Title,
		Story:  e.Story,
		Date:   entry.DayKey(e.Date),
		Photos: photos,
	}
}
