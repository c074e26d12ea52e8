package mcptools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chris-regnier/daybook/internal/calendar"
	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/filter"
)

const defaultLimit = 20

// ListHandler returns the handler function for the list_entries MCP tool.
func ListHandler(j Journal) func(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, EntriesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, EntriesOutput, error) {
		q, err := dayQuery(input.Date)
		if err != nil {
			return nil, EntriesOutput{}, err
		}
		return nil, summarize(filter.Apply(j.Entries(), q), input.Limit), nil
	}
}

// SearchHandler returns the handler function for the search_entries MCP tool.
func SearchHandler(j Journal) func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, EntriesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, EntriesOutput, error) {
		q, err := dayQuery(input.Date)
		if err != nil {
			return nil, EntriesOutput{}, err
		}
		q.Text = input.Query
		return nil, summarize(filter.Apply(j.Entries(), q), input.Limit), nil
	}
}

// GetHandler returns the handler function for the get_entry MCP tool.
func GetHandler(j Journal) func(ctx context.Context, req *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, EntryOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, EntryOutput, error) {
		e, ok := j.Get(input.ID)
		if !ok {
			return nil, EntryOutput{}, fmt.Errorf("entry %s not found", input.ID)
		}
		return nil, full(e), nil
	}
}

// CalendarHandler returns the handler function for the calendar MCP tool.
func CalendarHandler(j Journal, now func() time.Time) func(ctx context.Context, req *mcp.CallToolRequest, input CalendarInput) (*mcp.CallToolResult, CalendarOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CalendarInput) (*mcp.CallToolResult, CalendarOutput, error) {
		today := now()
		year, month := today.Year(), today.Month()
		if input.Month != "" {
			t, err := time.ParseInLocation("2006-01", input.Month, time.Local)
			if err != nil {
				return nil, CalendarOutput{}, fmt.Errorf("invalid month %q (use YYYY-MM)", input.Month)
			}
			year, month = t.Year(), t.Month()
		}

		marked := calendar.MarkedDays(j.Entries())
		out := CalendarOutput{
			Month:      fmt.Sprintf("%04d-%02d", year, month),
			MarkedDays: calendar.MarkedInMonth(marked, year, month),
		}
		out.TodayMarked, out.Streak = calendar.Streak(marked, today)
		return nil, out, nil
	}
}

func dayQuery(day string) (filter.Query, error) {
	if day == "" {
		return filter.Query{}, nil
	}
	return calendar.Select(day)
}

func summarize(entries []entry.Entry, limit int) EntriesOutput {
	if limit <= 0 {
		limit = defaultLimit
	}
	out := EntriesOutput{Entries: []EntryResult{}, Total: len(entries)}
	for i, e := range entries {
		if i == limit {
			break
		}
		out.Entries = append(out.Entries, EntryResult{
			ID:      e.ID,
			Title:   e.Title,
			Date:    entry.DayKey(e.Date),
			Preview: e.Preview(100),
			Photos:  len(e.Photo),
		})
	}
	return out
}

func full(e entry.Entry) EntryOutput {
	photos := e.Photo
	if photos == nil {
		photos = []string{}
	}
	return EntryOutput{
		ID:     e.ID,
		Title:  e.Title,
		Story:  e.Story,
		Date:   entry.DayKey(e.Date),
		Photos: photos,
	}
}
