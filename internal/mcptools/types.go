package mcptools

// ListInput is the input schema for the list_entries MCP tool.
type ListInput struct {
	Date  string `json:"date,omitempty" jsonschema:"Only entries on this day (YYYY-MM-DD)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return"`
}

// SearchInput is the input schema for the search_entries MCP tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"Words that must all appear in the title, story or date"`
	Date  string `json:"date,omitempty" jsonschema:"Only entries on this day (YYYY-MM-DD)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return"`
}

// EntriesOutput is the output schema for the listing tools.
type EntriesOutput struct {
	Entries []EntryResult `json:"entries"`
	Total   int           `json:"total"`
}

// EntryResult is the summary of an entry returned by the listing tools.
type EntryResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Preview string `json:"preview"`
	Photos  int    `json:"photos"`
}

// GetInput is the input schema for the get_entry MCP tool.
type GetInput struct {
	ID string `json:"id" jsonschema:"Entry ID"`
}

// EntryOutput is a complete entry.
type EntryOutput struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Story  string   `json:"story"`
	Date   string   `json:"date"`
	Photos []string `json:"photos"`
}

// CreateEntryInput is the input schema for the create_entry MCP tool.
type CreateEntryInput struct {
	Title  string   `json:"title,omitempty" jsonschema:"Entry title"`
	Story  string   `json:"story,omitempty" jsonschema:"Entry story in markdown"`
	Date   string   `json:"date,omitempty" jsonschema:"Day of the entry (YYYY-MM-DD), defaults to today"`
	Photos []string `json:"photos,omitempty" jsonschema:"Photo references, at most 5"`
}

// UpdateEntryInput is the input schema for the update_entry MCP tool. Omitted
// fields keep their current value.
type UpdateEntryInput struct {
	ID     string    `json:"id" jsonschema:"Entry ID"`
	Title  *string   `json:"title,omitempty" jsonschema:"New title"`
	Story  *string   `json:"story,omitempty" jsonschema:"New story"`
	Date   string    `json:"date,omitempty" jsonschema:"New day (YYYY-MM-DD)"`
	Photos *[]string `json:"photos,omitempty" jsonschema:"Replacement photo references, at most 5"`
}

// DeleteEntryInput is the input schema for the delete_entry MCP tool.
type DeleteEntryInput struct {
	ID string `json:"id" jsonschema:"Entry ID"`
}

// DeleteEntryOutput reports the outcome of delete_entry.
type DeleteEntryOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// CalendarInput is the input schema for the calendar MCP tool.
type CalendarInput struct {
	Month string `json:"month,omitempty" jsonschema:"Month to report (YYYY-MM), defaults to the current month"`
}

// CalendarOutput lists the days of a month that have entries.
type CalendarOutput struct {
	Month       string   `json:"month"`
	MarkedDays  []string `json:"marked_days"`
	TodayMarked bool     `json:"today_marked"`
	Streak      int      `json:"streak"`
}
