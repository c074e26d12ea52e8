package cmd

import (
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/daybook/internal/mcptools"
)

var mcpServeCmd = &cobra.Command{
	Use:   "mcp-serve",
	Short: "Run MCP server on stdio",
	Long: `Starts a Model Context Protocol (MCP) server that exposes diary tools
over stdio transport, so MCP clients can read and write your diary.

Available tools:
  - list_entries: Entries newest first, optionally for one day
  - search_entries: Entries matching every word of a query
  - get_entry: One entry in full
  - calendar: Days with entries in a month, plus today's streak
  - create_entry, update_entry, delete_entry

Example client config:
  {
    "mcpServers": {
      "daybook": {
        "command": "/path/to/daybook",
        "args": ["mcp-serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openDiary(true); err != nil {
			return err
		}
		server := mcptools.CreateMCPServer(diary, time.Now)

		// Logs go to stderr; stdout carries the protocol.
		logger.Infow("starting MCP server", "transport", "stdio", "storage", appConfig.Storage, "data_dir", appConfig.DataDir)
		return server.Run(cmd.Context(), &mcp.StdioTransport{})
	},
}

func init() {
	rootCmd.AddCommand(mcpServeCmd)
}
