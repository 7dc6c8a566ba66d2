package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/atlas/internal/auth"
	"github.com/danielolaszy/atlas/internal/config"
	"github.com/danielolaszy/atlas/pkg/models"
)

type call struct {
	identity string
	args     []string
}

type fakeTools struct {
	calls     map[string]call
	pages     []models.PageSummary
	searchErr error
}

func newFakeTools() *fakeTools {
	return &fakeTools{calls: map[string]call{}}
}

func (f *fakeTools) record(name, identity string, args ...string) {
	f.calls[name] = call{identity: identity, args: args}
}

func (f *fakeTools) GetIssue(_ context.Context, identity, issueID string) string {
	f.record("get_issue", identity, issueID)
	return "issue " + issueID
}

func (f *fakeTools) CreateIssue(_ context.Context, identity, projectKey, summary, issueType, description string) string {
	f.record("create_issue", identity, projectKey, summary, issueType, description)
	return "Successfully created issue: PROJ-2 (ID: 10002)"
}

func (f *fakeTools) UpdateIssueSummary(_ context.Context, identity, issueKey, newSummary string) string {
	f.record("update_issue_summary", identity, issueKey, newSummary)
	return "Error updating issue: boom"
}

func (f *fakeTools) SearchConfluencePages(_ context.Context, identity, cql string) ([]models.PageSummary, error) {
	f.record("search_confluence_pages", identity, cql)
	return f.pages, f.searchErr
}

func (f *fakeTools) GetConfluencePageContent(_ context.Context, identity, pageID string) string {
	f.record("get_confluence_page_content", identity, pageID)
	return "# Page " + pageID
}

func (f *fakeTools) CreateConfluencePage(_ context.Context, identity, spaceID, title, content string) string {
	f.record("create_confluence_page", identity, spaceID, title, content)
	return "Page Created Successfully! ID: 1\nLink: https://a/b"
}

func handlers(tools Tools) map[string]server.ToolHandlerFunc {
	byName := map[string]server.ToolHandlerFunc{}
	for _, def := range Definitions(tools) {
		byName[def.Tool.Name] = def.Handler
	}
	return byName
}

func request(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestDefinitionsNames(t *testing.T) {
	var names []string
	for _, def := range Definitions(newFakeTools()) {
		names = append(names, def.Tool.Name)
		assert.NotEmpty(t, def.Tool.Description)
	}

	assert.Equal(t, []string{
		"get_issue",
		"create_issue",
		"update_issue_summary",
		"search_confluence_pages",
		"get_confluence_page_content",
		"create_confluence_page",
	}, names)
}

func TestTextTools(t *testing.T) {
	testCases := []struct {
		name     string
		args     map[string]any
		wantText string
		wantArgs []string
	}{
		{
			name:     "get_issue",
			args:     map[string]any{"issueId": "PROJ-1"},
			wantText: "issue PROJ-1",
			wantArgs: []string{"PROJ-1"},
		},
		{
			name:     "create_issue",
			args:     map[string]any{"projectKey": "PROJ", "summary": "X", "issueType": "Task", "description": "Y"},
			wantText: "Successfully created issue: PROJ-2 (ID: 10002)",
			wantArgs: []string{"PROJ", "X", "Task", "Y"},
		},
		{
			name:     "create_issue",
			args:     map[string]any{"projectKey": "PROJ", "summary": "X", "issueType": "Task"},
			wantText: "Successfully created issue: PROJ-2 (ID: 10002)",
			wantArgs: []string{"PROJ", "X", "Task", ""},
		},
		{
			name:     "update_issue_summary",
			args:     map[string]any{"issueKey": "PROJ-1", "newSummary": "New"},
			wantText: "Error updating issue: boom",
			wantArgs: []string{"PROJ-1", "New"},
		},
		{
			name:     "get_confluence_page_content",
			args:     map[string]any{"pageId": "42"},
			wantText: "# Page 42",
			wantArgs: []string{"42"},
		},
		{
			name:     "create_confluence_page",
			args:     map[string]any{"spaceId": "7", "title": "T", "content": "<p>hi</p>"},
			wantText: "Page Created Successfully! ID: 1\nLink: https://a/b",
			wantArgs: []string{"7", "T", "<p>hi</p>"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tools := newFakeTools()
			ctx := WithIdentity(context.Background(), "alice")

			result, err := handlers(tools)[tc.name](ctx, request(tc.name, tc.args))
			require.NoError(t, err)

			assert.False(t, result.IsError)
			assert.Equal(t, tc.wantText, resultText(t, result))
			assert.Equal(t, call{identity: "alice", args: tc.wantArgs}, tools.calls[tc.name])
		})
	}
}

func TestMissingArgumentIsToolError(t *testing.T) {
	tools := newFakeTools()
	ctx := WithIdentity(context.Background(), "alice")

	for name, handler := range handlers(tools) {
		t.Run(name, func(t *testing.T) {
			result, err := handler(ctx, request(name, map[string]any{}))
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
	assert.Empty(t, tools.calls)
}

func TestMissingIdentityIsToolError(t *testing.T) {
	tools := newFakeTools()

	result, err := handlers(tools)["get_issue"](context.Background(), request("get_issue", map[string]any{"issueId": "PROJ-1"}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), ErrNoIdentity.Error())
	assert.Empty(t, tools.calls)
}

func TestSearchReturnsJSON(t *testing.T) {
	tools := newFakeTools()
	tools.pages = []models.PageSummary{{ID: "1", Title: "Runbook", Type: "page", Status: "current", SpaceKey: "DEV", SpaceName: "Dev", URL: "https://x/wiki/p/1"}}
	ctx := WithIdentity(context.Background(), "alice")

	result, err := handlers(tools)["search_confluence_pages"](ctx, request("search_confluence_pages", map[string]any{"cql": "space = DEV"}))
	require.NoError(t, err)

	var pages []models.PageSummary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &pages))
	assert.Equal(t, tools.pages, pages)
	assert.Equal(t, call{identity: "alice", args: []string{"space = DEV"}}, tools.calls["search_confluence_pages"])
}

func TestSearchFailurePropagates(t *testing.T) {
	tools := newFakeTools()
	tools.searchErr = errors.New("Error searching Confluence pages: Status: 500")
	ctx := WithIdentity(context.Background(), "alice")

	result, err := handlers(tools)["search_confluence_pages"](ctx, request("search_confluence_pages", map[string]any{"cql": "space = DEV"}))

	assert.Nil(t, result)
	assert.ErrorIs(t, err, tools.searchErr)
}

func TestRequestCredentials(t *testing.T) {
	contextFunc := RequestCredentials("X-Atlassian-Identity")

	testCases := []struct {
		name          string
		authorization string
		header        string
		wantIdentity  string
		wantToken     string
	}{
		{name: "bearer with identity header", authorization: "Bearer token-b", header: "bob@example.com", wantIdentity: "bob@example.com", wantToken: "token-b"},
		{name: "bearer without identity header", authorization: "bearer token-b", wantIdentity: BearerIdentity, wantToken: "token-b"},
		{name: "identity header alone", header: "bob@example.com"},
		{name: "basic auth", authorization: "Basic Ym9iOnB3", header: "bob@example.com"},
		{name: "anonymous"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			if tc.authorization != "" {
				r.Header.Set("Authorization", tc.authorization)
			}
			if tc.header != "" {
				r.Header.Set("X-Atlassian-Identity", tc.header)
			}

			ctx := contextFunc(context.Background(), r)
			assert.Equal(t, tc.wantIdentity, IdentityFrom(ctx))
			assert.Equal(t, tc.wantToken, auth.TokenFrom(ctx))
		})
	}
}

func TestAnonymousCallIsRefused(t *testing.T) {
	tools := newFakeTools()
	r := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	r.Header.Set("X-Atlassian-Identity", "default")
	ctx := RequestCredentials("X-Atlassian-Identity")(context.Background(), r)

	result, err := handlers(tools)["create_issue"](ctx, request("create_issue", map[string]any{"projectKey": "PROJ", "summary": "X", "issueType": "Task"}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Empty(t, tools.calls)
}

func TestHTTPHandler(t *testing.T) {
	cfg := config.MCPConfig{Transport: "http", IdentityHeader: "X-Atlassian-Identity"}
	ts := httptest.NewServer(HTTPHandler(NewServer(newFakeTools(), "test"), cfg))
	defer ts.Close()

	initialize := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`

	testCases := []struct {
		name          string
		authorization string
		wantStatus    int
	}{
		{name: "anonymous", wantStatus: http.StatusUnauthorized},
		{name: "non-bearer scheme", authorization: "Basic Ym9iOnB3", wantStatus: http.StatusUnauthorized},
		{name: "bearer token", authorization: "Bearer token-b", wantStatus: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, ts.URL+"/mcp", strings.NewReader(initialize))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json, text/event-stream")
			req.Header.Set("X-Atlassian-Identity", "default")
			if tc.authorization != "" {
				req.Header.Set("Authorization", tc.authorization)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}

func TestStaticIdentity(t *testing.T) {
	ctx := StaticIdentity("carol")(context.Background())
	assert.Equal(t, "carol", IdentityFrom(ctx))
	assert.Equal(t, "", IdentityFrom(context.Background()))
}

func TestNewServer(t *testing.T) {
	assert.NotNil(t, NewServer(newFakeTools(), "test"))
}
