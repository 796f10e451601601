package commands

import (
	"github.com/spf13/cobra"

	"github.com/doeshing/unigraph/internal/app"
	"github.com/doeshing/unigraph/internal/infrastructure/mcp"
	"github.com/doeshing/unigraph/internal/version"
)

// NewMCPCommand serves the query tracker as MCP tools over stdio.
func NewMCPCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve query tools to MCP clients over stdio",
		Long: "Starts a Model Context Protocol server on stdin/stdout exposing execute_query,\n" +
			"query_history, clear_history, clear_cache, cache_stats and common_queries.",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := container.RequireQueryService()
			if err != nil {
				return err
			}
			tm := mcp.NewToolManager(svc, container.Config)
			s := mcp.NewServer("unigraph", version.Version, tm)
			container.Logger.Info("mcp server listening on stdio", map[string]interface{}{
				"endpoint": container.Config.Endpoint.URL,
			})
			return mcp.ServeStdio(s)
		},
	}
}
