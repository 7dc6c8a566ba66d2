// Package mcpserver exposes the tool operations over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/danielolaszy/atlas/internal/config"
	"github.com/danielolaszy/atlas/internal/logging"
	"github.com/danielolaszy/atlas/pkg/models"
)

// Tools is the operation surface served to agents.
type Tools interface {
	GetIssue(ctx context.Context, identity, issueID string) string
	CreateIssue(ctx context.Context, identity, projectKey, summary, issueType, description string) string
	UpdateIssueSummary(ctx context.Context, identity, issueKey, newSummary string) string
	SearchConfluencePages(ctx context.Context, identity, cql string) ([]models.PageSummary, error)
	GetConfluencePageContent(ctx context.Context, identity, pageID string) string
	CreateConfluencePage(ctx context.Context, identity, spaceID, title, content string) string
}

// ErrNoIdentity is returned to the agent when a request carries no caller.
var ErrNoIdentity = errors.New("no caller identity on request")

// Definition pairs a tool schema with its handler.
type Definition struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// NewServer builds an MCP server with every tool registered.
func NewServer(tools Tools, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"atlas",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("Tools for reading and writing Jira issues and Confluence pages on behalf of the authenticated user."),
		server.WithRecovery(),
	)

	for _, def := range Definitions(tools) {
		s.AddTool(def.Tool, def.Handler)
	}

	return s
}

// Definitions returns the tool schemas and handlers backed by tools.
func Definitions(tools Tools) []Definition {
	return []Definition{
		{
			Tool: mcp.NewTool("get_issue",
				mcp.WithDescription("Get Jira issue details by issue ID (e.g., PROJ-123)"),
				mcp.WithString("issueId", mcp.Required(), mcp.Description("Issue key or id, e.g. PROJ-123")),
			),
			Handler: textTool(func(ctx context.Context, identity string, req mcp.CallToolRequest) (string, error) {
				issueID, err := req.RequireString("issueId")
				if err != nil {
					return "", err
				}
				return tools.GetIssue(ctx, identity, issueID), nil
			}),
		},
		{
			Tool: mcp.NewTool("create_issue",
				mcp.WithDescription("Create a new Jira issue. Requires project key, summary, and issue type (e.g., Task, Bug)."),
				mcp.WithString("projectKey", mcp.Required(), mcp.Description("Project key, e.g. PROJ")),
				mcp.WithString("summary", mcp.Required(), mcp.Description("Issue summary")),
				mcp.WithString("issueType", mcp.Required(), mcp.Description("Issue type name, e.g. Task or Bug")),
				mcp.WithString("description", mcp.Description("Issue description")),
			),
			Handler: textTool(func(ctx context.Context, identity string, req mcp.CallToolRequest) (string, error) {
				projectKey, err := req.RequireString("projectKey")
				if err != nil {
					return "", err
				}
				summary, err := req.RequireString("summary")
				if err != nil {
					return "", err
				}
				issueType, err := req.RequireString("issueType")
				if err != nil {
					return "", err
				}
				description := req.GetString("description", "")
				return tools.CreateIssue(ctx, identity, projectKey, summary, issueType, description), nil
			}),
		},
		{
			Tool: mcp.NewTool("update_issue_summary",
				mcp.WithDescription("Update an existing Jira issue summary."),
				mcp.WithString("issueKey", mcp.Required(), mcp.Description("Issue key, e.g. PROJ-123")),
				mcp.WithString("newSummary", mcp.Required(), mcp.Description("Replacement summary")),
			),
			Handler: textTool(func(ctx context.Context, identity string, req mcp.CallToolRequest) (string, error) {
				issueKey, err := req.RequireString("issueKey")
				if err != nil {
					return "", err
				}
				newSummary, err := req.RequireString("newSummary")
				if err != nil {
					return "", err
				}
				return tools.UpdateIssueSummary(ctx, identity, issueKey, newSummary), nil
			}),
		},
		{
			Tool: mcp.NewTool("search_confluence_pages",
				mcp.WithDescription("Search Confluence pages using Confluence Query Language(CQL)."),
				mcp.WithString("cql", mcp.Required(), mcp.Description("CQL query, e.g. type = page AND space = DEV")),
			),
			Handler: searchHandler(tools),
		},
		{
			Tool: mcp.NewTool("get_confluence_page_content",
				mcp.WithDescription("Get Confluence page content by page ID."),
				mcp.WithString("pageId", mcp.Required(), mcp.Description("Numeric page id")),
			),
			Handler: textTool(func(ctx context.Context, identity string, req mcp.CallToolRequest) (string, error) {
				pageID, err := req.RequireString("pageId")
				if err != nil {
					return "", err
				}
				return tools.GetConfluencePageContent(ctx, identity, pageID), nil
			}),
		},
		{
			Tool: mcp.NewTool("create_confluence_page",
				mcp.WithDescription("Create a new Confluence page. REQUIRES a numeric spaceId (not spaceKey). Content must be in HTML storage format."),
				mcp.WithString("spaceId", mcp.Required(), mcp.Description("Numeric space id")),
				mcp.WithString("title", mcp.Required(), mcp.Description("Page title")),
				mcp.WithString("content", mcp.Required(), mcp.Description("Page body in storage-format HTML, e.g. <p>hello</p>")),
			),
			Handler: textTool(func(ctx context.Context, identity string, req mcp.CallToolRequest) (string, error) {
				spaceID, err := req.RequireString("spaceId")
				if err != nil {
					return "", err
				}
				title, err := req.RequireString("title")
				if err != nil {
					return "", err
				}
				content, err := req.RequireString("content")
				if err != nil {
					return "", err
				}
				return tools.CreateConfluencePage(ctx, identity, spaceID, title, content), nil
			}),
		},
	}
}

// textTool adapts a string-returning tool. Argument and identity problems
// become tool error results; the tool's own outcome, success or "Error ...",
// is always returned as text.
func textTool(call func(ctx context.Context, identity string, req mcp.CallToolRequest) (string, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		identity := IdentityFrom(ctx)
		if identity == "" {
			return mcp.NewToolResultError(ErrNoIdentity.Error()), nil
		}

		text, err := call(ctx, identity, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

// searchHandler returns the hits as JSON text. Search failures are returned
// as handler errors so the invoking layer sees them as failed calls.
func searchHandler(tools Tools) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		identity := IdentityFrom(ctx)
		if identity == "" {
			return mcp.NewToolResultError(ErrNoIdentity.Error()), nil
		}
		cql, err := req.RequireString("cql")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		pages, err := tools.SearchConfluencePages(ctx, identity, cql)
		if err != nil {
			return nil, err
		}

		encoded, err := json.Marshal(pages)
		if err != nil {
			return nil, fmt.Errorf("failed to encode search results: %w", err)
		}
		return mcp.NewToolResultText(string(encoded)), nil
	}
}

// Serve runs s on the configured transport until ctx is cancelled or the
// transport stops. stdio requests run as defaultIdentity. HTTP requests run
// with the bearer token they carry and are refused without one.
func Serve(ctx context.Context, s *server.MCPServer, cfg config.MCPConfig, defaultIdentity string) error {
	switch cfg.Transport {
	case "http":
		return serveHTTP(ctx, s, cfg)
	case "stdio", "":
		logging.Info("serving mcp over stdio", "identity", logging.MaskSensitive(defaultIdentity))
		return server.ServeStdio(s, server.WithStdioContextFunc(StaticIdentity(defaultIdentity)))
	default:
		return fmt.Errorf("unsupported mcp transport %q", cfg.Transport)
	}
}

// HTTPHandler serves s as streamable HTTP on /mcp behind RequireBearer.
func HTTPHandler(s *server.MCPServer, cfg config.MCPConfig) http.Handler {
	streamable := server.NewStreamableHTTPServer(s,
		server.WithHTTPContextFunc(RequestCredentials(cfg.IdentityHeader)),
	)

	mux := http.NewServeMux()
	mux.Handle("/mcp", RequireBearer(streamable))
	return mux
}

func serveHTTP(ctx context.Context, s *server.MCPServer, cfg config.MCPConfig) error {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           HTTPHandler(s, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("serving mcp over http",
		"addr", cfg.HTTPAddr,
		"identity_header", cfg.IdentityHeader)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logging.Info("shutting down mcp http server")
		return httpServer.Shutdown(shutdownCtx)
	}
}
