package mcptools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chris-regnier/daybook/internal/draft"
	"github.com/chris-regnier/daybook/internal/entry"
)

// Journal is the diary the tools read and write. *journal.Store satisfies it.
type Journal interface {
	draft.Sink
	Entries() []entry.Entry
	Get(id string) (entry.Entry, bool)
}

// NewInMemoryServer creates an MCP server over j connected to an in-memory
// transport. It returns the server and the client end of the transport.
func NewInMemoryServer(j Journal) (*mcp.Server, mcp.Transport) {
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	server := CreateMCPServer(j, time.Now)

	go func() {
		_, _ = server.Connect(context.Background(), serverTransport, nil)
	}()

	return server, clientTransport
}

// CreateMCPServer creates an MCP server with registered diary tools. now
// supplies today's date for defaults and streaks.
func CreateMCPServer(j Journal, now func() time.Time) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "daybook",
		Version: "1.0.0",
	}, nil)

	// Read tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_entries",
		Description: "List diary entries, newest first, optionally on one day",
	}, ListHandler(j))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_entries",
		Description: "Search diary entries: every word must appear in the title, story or date",
	}, SearchHandler(j))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_entry",
		Description: "Get a diary entry by ID",
	}, GetHandler(j))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "calendar",
		Description: "Days of a month that have entries, plus today's writing streak",
	}, CalendarHandler(j, now))

	// Write tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_entry",
		Description: "Create a diary entry",
	}, CreateEntryHandler(j, now))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_entry",
		Description: "Change fields of an existing diary entry",
	}, UpdateEntryHandler(j))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_entry",
		Description: "Delete a diary entry",
	}, DeleteEntryHandler(j))

	return server
}
