/*
Package mcpsrv exposes the rewrite pipeline as MCP tools over stdio, so
agent frameworks can call rewrite and analyze without the HTTP layer.
*/
package mcpsrv

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/theapemachine/senseable-go/pkg/pipeline"
	"github.com/theapemachine/senseable-go/pkg/saf"
)

/*
Server wraps an MCP stdio server around the pipeline.
*/
type Server struct {
	mcpServer *server.MCPServer
	pipeline  *pipeline.Pipeline
}

func NewServer(pl *pipeline.Pipeline) *Server {
	srv := &Server{
		mcpServer: server.NewMCPServer("senseable", "1.0.0"),
		pipeline:  pl,
	}

	srv.mcpServer.AddTool(buildRewriteTool(), srv.handleRewrite)
	srv.mcpServer.AddTool(buildAnalyzeTool(), srv.handleAnalyze)

	return srv
}

/*
Serve blocks on stdio until the client disconnects.
*/
func (srv *Server) Serve() error {
	return server.ServeStdio(srv.mcpServer)
}

func buildRewriteTool() mcp.Tool {
	return mcp.NewTool(
		"rewrite",
		mcp.WithDescription("Rewrites sensory metaphors in a text so it stays accessible for the given user profile. Returns the rewritten text with per-span decisions."),
		mcp.WithString("text",
			mcp.Description("Text to rewrite"),
			mcp.Required(),
		),
		mcp.WithString("user_id",
			mcp.Description("Profile to rewrite for (a neutral profile is used when omitted)"),
		),
		mcp.WithString("style",
			mcp.Description("Rewrite aggressiveness override"),
			mcp.Enum("minimal", "gentle", "full"),
		),
	)
}

func buildAnalyzeTool() mcp.Tool {
	return mcp.NewTool(
		"analyze",
		mcp.WithDescription("Detects sensory expressions in a text and scores their difficulty for the given user profile, without rewriting."),
		mcp.WithString("text",
			mcp.Description("Text to analyze"),
			mcp.Required(),
		),
		mcp.WithString("user_id",
			mcp.Description("Profile to score against"),
		),
	)
}

func (srv *Server) handleRewrite(
	ctx context.Context, req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	userID := req.GetString("user_id", "anonymous")

	opts := pipeline.Options{}
	if style := req.GetString("style", ""); style != "" {
		opts.Style = saf.RewriteStyle(style)
	}

	result, err := srv.pipeline.Rewrite(ctx, text, userID, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

func (srv *Server) handleAnalyze(
	ctx context.Context, req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	userID := req.GetString("user_id", "anonymous")

	difficulties, err := srv.pipeline.Analyze(ctx, text, userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.Marshal(difficulties)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}
