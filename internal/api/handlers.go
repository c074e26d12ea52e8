package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chris-regnier/daybook/internal/calendar"
	"github.com/chris-regnier/daybook/internal/draft"
	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/filter"
	"github.com/chris-regnier/daybook/internal/journal"
)

var confirmed = draft.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) { return true, nil })

// ListEntries handles GET /entries?date=YYYY-MM-DD&q=words&limit=n.
func (h *Handler) ListEntries(c *gin.Context) {
	q := filter.Query{Text: c.Query("q")}
	if day := c.Query("date"); day != "" {
		sel, err := calendar.Select(day)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		q.Day = sel.Day
	}

	matched := filter.Apply(h.journal.Entries(), q)
	resp := ListResponse{Entries: make([]EntryResponse, 0, len(matched)), Total: len(matched)}
	limit := len(matched)
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		if n > 0 && n < limit {
			limit = n
		}
	}
	for _, e := range matched[:limit] {
		resp.Entries = append(resp.Entries, toResponse(e))
	}
	c.JSON(http.StatusOK, resp)
}

// GetEntry handles GET /entries/:id.
func (h *Handler) GetEntry(c *gin.Context) {
	e, ok := h.journal.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}
	c.JSON(http.StatusOK, toResponse(e))
}

// CreateEntry handles POST /entries.
func (h *Handler) CreateEntry(c *gin.Context) {
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	ed := draft.New(h.journal, confirmed, draft.WithClock(h.now))
	ed.BeginCreate()
	if !h.apply(c, ed, req, 0) {
		return
	}
	saved, err := ed.Save(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(saved))
}

// UpdateEntry handles PUT /entries/:id. Omitted fields are left unchanged.
func (h *Handler) UpdateEntry(c *gin.Context) {
	src, ok := h.journal.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	ed := draft.New(h.journal, confirmed)
	ed.BeginEdit(src)
	if !h.apply(c, ed, req, len(src.Photo)) {
		return
	}
	if !ed.Dirty() {
		c.JSON(http.StatusOK, toResponse(src))
		return
	}
	saved, err := ed.Save(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(saved))
}

// DeleteEntry handles DELETE /entries/:id.
func (h *Handler) DeleteEntry(c *gin.Context) {
	src, ok := h.journal.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}
	ed := draft.New(h.journal, confirmed)
	ed.BeginEdit(src)
	if _, err := ed.Delete(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": src.ID, "deleted": true})
}

// Calendar handles GET /calendar?month=YYYY-MM.
func (h *Handler) Calendar(c *gin.Context) {
	today := h.now()
	year, month := today.Year(), today.Month()
	if s := c.Query("month"); s != "" {
		t, err := time.ParseInLocation("2006-01", s, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid month %q (use YYYY-MM)", s)})
			return
		}
		year, month = t.Year(), t.Month()
	}

	marked := calendar.MarkedDays(h.journal.Entries())
	resp := CalendarResponse{
		Month:      fmt.Sprintf("%04d-%02d", year, month),
		MarkedDays: calendar.MarkedInMonth(marked, year, month),
	}
	resp.TodayMarked, resp.Streak = calendar.Streak(marked, today)
	c.JSON(http.StatusOK, resp)
}

// apply copies the request fields into the editor. It writes the error
// response and returns false when a field is invalid.
func (h *Handler) apply(c *gin.Context, ed *draft.Editor, req EntryRequest, existingPhotos int) bool {
	if req.Photos != nil && len(*req.Photos) > entry.MaxPhotos {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": draft.ErrPhotoLimit.Error()})
		return false
	}
	if req.Title != nil {
		ed.SetTitle(*req.Title)
	}
	if req.Story != nil {
		ed.SetStory(*req.Story)
	}
	if req.Date != nil {
		t, err := entry.ParseDay(*req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return false
		}
		ed.SelectDate(t)
	}
	if req.Photos != nil {
		for i := 0; i < existingPhotos; i++ {
			ed.RemovePhoto(0)
		}
		if len(*req.Photos) > 0 {
			if _, err := ed.AddPhotos(*req.Photos); err != nil {
				h.writeError(c, err)
				return false
			}
		}
	}
	return true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, draft.ErrPhotoLimit), errors.Is(err, entry.ErrTooManyPhotos):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, journal.ErrNotLoaded), errors.Is(err, journal.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.log.Errorw("request failed", "request_id", c.GetString(requestIDKey), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
