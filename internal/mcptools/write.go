package mcptools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chris-regnier/daybook/internal/draft"
	"github.com/chris-regnier/daybook/internal/entry"
)

// A tool call is itself the user's confirmation.
var confirmed = draft.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// CreateEntryHandler returns the handler function for the create_entry MCP tool.
func CreateEntryHandler(j Journal, now func() time.Time) func(ctx context.Context, req *mcp.CallToolRequest, input CreateEntryInput) (*mcp.CallToolResult, EntryOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CreateEntryInput) (*mcp.CallToolResult, EntryOutput, error) {
		if len(input.Photos) > entry.MaxPhotos {
			return nil, EntryOutput{}, draft.ErrPhotoLimit
		}
		ed := draft.New(j, confirmed, draft.WithClock(now))
		ed.BeginCreate()
		ed.SetTitle(input.Title)
		ed.SetStory(input.Story)
		if input.Date != "" {
			t, err := entry.ParseDay(input.Date)
			if err != nil {
				return nil, EntryOutput{}, err
			}
			ed.SelectDate(t)
		}
		if len(input.Photos) > 0 {
			if _, err := ed.AddPhotos(input.Photos); err != nil {
				return nil, EntryOutput{}, err
			}
		}
		saved, err := ed.Save(ctx)
		if err != nil {
			return nil, EntryOutput{}, err
		}
		return nil, full(saved), nil
	}
}

// UpdateEntryHandler returns the handler function for the update_entry MCP tool.
func UpdateEntryHandler(j Journal) func(ctx context.Context, req *mcp.CallToolRequest, input UpdateEntryInput) (*mcp.CallToolResult, EntryOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input UpdateEntryInput) (*mcp.CallToolResult, EntryOutput, error) {
		src, ok := j.Get(input.ID)
		if !ok {
			return nil, EntryOutput{}, fmt.Errorf("entry %s not found", input.ID)
		}
		if input.Photos != nil && len(*input.Photos) > entry.MaxPhotos {
			return nil, EntryOutput{}, draft.ErrPhotoLimit
		}

		ed := draft.New(j, confirmed)
		ed.BeginEdit(src)
		if input.Title != nil {
			ed.SetTitle(*input.Title)
		}
		if input.Story != nil {
			ed.SetStory(*input.Story)
		}
		if input.Date != "" {
			t, err := entry.ParseDay(input.Date)
			if err != nil {
				return nil, EntryOutput{}, err
			}
			ed.SelectDate(t)
		}
		if input.Photos != nil {
			for range src.Photo {
				ed.RemovePhoto(0)
			}
			if len(*input.Photos) > 0 {
				if _, err := ed.AddPhotos(*input.Photos); err != nil {
					return nil, EntryOutput{}, err
				}
			}
		}
		if !ed.Dirty() {
			return nil, full(src), nil
		}
		saved, err := ed.Save(ctx)
		if err != nil {
			return nil, EntryOutput{}, err
		}
		return nil, full(saved), nil
	}
}

// DeleteEntryHandler returns the handler function for the delete_entry MCP tool.
func DeleteEntryHandler(j Journal) func(ctx context.Context, req *mcp.CallToolRequest, input DeleteEntryInput) (*mcp.CallToolResult, DeleteEntryOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeleteEntryInput) (*mcp.CallToolResult, DeleteEntryOutput, error) {
		src, ok := j.Get(input.ID)
		if !ok {
			return nil, DeleteEntryOutput{}, fmt.Errorf("entry %s not found", input.ID)
		}
		ed := draft.New(j, confirmed)
		ed.BeginEdit(src)
		deleted, err := ed.Delete(ctx)
		if err != nil {
			return nil, DeleteEntryOutput{}, err
		}
		return nil, DeleteEntryOutput{ID: input.ID, Deleted: deleted}, nil
	}
}
