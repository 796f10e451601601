// Package mcp exposes the query tracker as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/doeshing/unigraph/internal/application/query"
	"github.com/doeshing/unigraph/internal/domain"
)

// ToolManager registers tracker operations as MCP tools.
type ToolManager struct {
	service *query.Service
	cfg     domain.Config
}

// NewToolManager creates a new tool manager
func NewToolManager(service *query.Service, cfg domain.Config) *ToolManager {
	return &ToolManager{service: service, cfg: cfg}
}

// NewServer builds an MCP server with every tool registered.
func NewServer(name, version string, tm *ToolManager) *server.MCPServer {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(true))
	tm.RegisterTools(s)
	return s
}

// ServeStdio blocks serving s over stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("stdio transport failed: %w", err)
	}
	return nil
}

// RegisterTools registers all available tools with the MCP server
func (tm *ToolManager) RegisterTools(s *server.MCPServer) {
	executeTool := mcp.NewTool("execute_query",
		mcp.WithDescription("Run a SPARQL query against the university knowledge graph. "+
			"A LIMIT is appended when the query has none; repeated queries are served from cache."),
		mcp.WithString("query",
			mcp.Description("SPARQL query text. Prefixes univ, rdf, rdfs, owl, xsd and foaf are predeclared."),
		),
		mcp.WithString("template",
			mcp.Description("Name of a built-in template to run instead of query text"),
		),
		mcp.WithNumber("limit",
			mcp.Description("LIMIT appended when the query has none (default 100)"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Store timeout in seconds (default 30)"),
		),
	)
	s.AddTool(executeTool, tm.handleExecuteQuery)

	historyTool := mcp.NewTool("query_history",
		mcp.WithDescription("List recent store executions, oldest first"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries to return (default 50)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(historyTool, tm.handleQueryHistory)

	s.AddTool(mcp.NewTool("clear_history",
		mcp.WithDescription("Forget all recorded executions"),
	), tm.handleClearHistory)

	s.AddTool(mcp.NewTool("clear_cache",
		mcp.WithDescription("Drop all cached query results"),
	), tm.handleClearCache)

	s.AddTool(mcp.NewTool("cache_stats",
		mcp.WithDescription("Report cache occupancy, hit and miss counts, and history size"),
		mcp.WithReadOnlyHintAnnotation(true),
	), tm.handleCacheStats)

	s.AddTool(mcp.NewTool("common_queries",
		mcp.WithDescription("Return the built-in query templates keyed by name"),
		mcp.WithReadOnlyHintAnnotation(true),
	), tm.handleCommonQueries)
}

type executeResult struct {
	Query     string                   `json:"query"`
	FromCache bool                     `json:"from_cache"`
	ElapsedMS int64                    `json:"elapsed_ms"`
	RowCount  int                      `json:"row_count"`
	Vars      []string                 `json:"vars"`
	Rows      []map[string]interface{} `json:"rows"`
}

func (tm *ToolManager) handleExecuteQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := request.GetString("query", "")
	if name := request.GetString("template", ""); name != "" {
		tmpl, err := query.Template(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text = tmpl
	}
	if text == "" {
		return mcp.NewToolResultError("either query or template is required"), nil
	}

	resp, err := tm.service.ExecuteQuery(ctx, domain.QueryRequest{
		Text:           text,
		Limit:          tm.cfg.EffectiveLimit(int(request.GetFloat("limit", 0))),
		TimeoutSeconds: int(request.GetFloat("timeout", 0)),
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuery) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Query failed: %v", err)), nil
	}

	return jsonResult(executeResult{
		Query:     resp.Query,
		FromCache: resp.FromCache,
		ElapsedMS: resp.Duration.Milliseconds(),
		RowCount:  resp.Result.Len(),
		Vars:      resp.Result.Vars,
		Rows:      resp.Result.Records(),
	})
}

type historyItem struct {
	ID               string  `json:"id"`
	Query            string  `json:"query"`
	Timestamp        string  `json:"timestamp"`
	ResultCount      int     `json:"result_count"`
	ExecutionSeconds float64 `json:"execution_time"`
	FromCache        bool    `json:"from_cache,omitempty"`
}

func (tm *ToolManager) handleQueryHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(request.GetFloat("limit", domain.DefaultHistoryListLimit))
	entries := tm.service.QueryHistory(limit)
	items := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, historyItem{
			ID:               e.ID,
			Query:            e.Query,
			Timestamp:        e.Timestamp.Format(domain.TimestampFormat),
			ResultCount:      e.ResultCount,
			ExecutionSeconds: e.ExecutionSeconds(),
			FromCache:        e.FromCache,
		})
	}
	return jsonResult(items)
}

func (tm *ToolManager) handleClearHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tm.service.ClearHistory()
	return mcp.NewToolResultText("History cleared"), nil
}

func (tm *ToolManager) handleClearCache(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tm.service.ClearCache()
	return mcp.NewToolResultText("Cache cleared"), nil
}

func (tm *ToolManager) handleCacheStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(tm.service.Stats())
}

func (tm *ToolManager) handleCommonQueries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(tm.service.CommonQueries())
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
