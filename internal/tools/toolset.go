// Package tools implements the agent-callable Jira and Confluence operations.
//
// Every operation resolves the caller's token, resolves the tenant once, makes
// its API call and projects the answer. The typed methods return (value,
// error) with failures wrapped in *ActionError. The tool surface methods
// (GetIssue, CreateIssue, ...) fold failures into the returned string, except
// SearchConfluencePages which hands the error back to its caller.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielolaszy/atlas/internal/atlassian"
	"github.com/danielolaszy/atlas/internal/auth"
	"github.com/danielolaszy/atlas/internal/confluence"
	"github.com/danielolaszy/atlas/internal/jira"
	"github.com/danielolaszy/atlas/internal/logging"
	"github.com/danielolaszy/atlas/internal/summary"
	"github.com/danielolaszy/atlas/pkg/models"
)

// Toolset binds the operations to a token provider and tenant resolver.
// It holds no per-call state and is safe for concurrent use.
type Toolset struct {
	tokens     auth.Provider
	resolver   *atlassian.Resolver
	summarizer *summary.Summarizer
}

// New creates a toolset. A nil summarizer means untruncated summaries.
func New(tokens auth.Provider, resolver *atlassian.Resolver, summarizer *summary.Summarizer) *Toolset {
	if summarizer == nil {
		summarizer = summary.New(0)
	}
	return &Toolset{
		tokens:     tokens,
		resolver:   resolver,
		summarizer: summarizer,
	}
}

// GetIssue returns the formatted issue block or an "Error fetching issue: " string.
func (t *Toolset) GetIssue(ctx context.Context, identity, issueID string) string {
	issue, err := t.IssueDetails(ctx, identity, issueID)
	if err != nil {
		return err.Error()
	}
	return issue.Format()
}

// CreateIssue returns a success line naming the new key and id, or an
// "Error creating issue: " string. description is accepted but not sent.
func (t *Toolset) CreateIssue(ctx context.Context, identity, projectKey, issueSummary, issueType, description string) string {
	created, err := t.CreateIssueRecord(ctx, identity, jira.IssueInput{
		ProjectKey:  projectKey,
		Summary:     issueSummary,
		IssueType:   issueType,
		Description: description,
	})
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("Successfully created issue: %s (ID: %s)", created.Key, created.ID)
}

// UpdateIssueSummary returns a confirmation naming issueKey or an
// "Error updating issue: " string.
func (t *Toolset) UpdateIssueSummary(ctx context.Context, identity, issueKey, newSummary string) string {
	if err := t.UpdateSummary(ctx, identity, issueKey, newSummary); err != nil {
		return err.Error()
	}
	return "Successfully updated summary for issue: " + issueKey
}

// GetConfluencePageContent returns the page summary or an
// "Error fetching Confluence page content: " string.
func (t *Toolset) GetConfluencePageContent(ctx context.Context, identity, pageID string) string {
	content, err := t.PageContent(ctx, identity, pageID)
	if err != nil {
		return err.Error()
	}
	return content
}

// CreateConfluencePage returns the new page id and link or an
// "Error creating page: " string.
func (t *Toolset) CreateConfluencePage(ctx context.Context, identity, spaceID, title, content string) string {
	page, err := t.CreatePage(ctx, identity, confluence.PageInput{
		SpaceID: spaceID,
		Title:   title,
		Content: content,
	})
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("Page Created Successfully! ID: %s\nLink: %s", page.ID, page.Link)
}

// IssueDetails fetches and projects one issue.
func (t *Toolset) IssueDetails(ctx context.Context, identity, issueID string) (issue models.Issue, err error) {
	log, done := t.begin("get_issue", identity)
	defer func() { done(err) }()

	session, err := t.open(ctx, log, identity)
	if err != nil {
		return models.Issue{}, wrap(ActionGetIssue, err)
	}
	client, err := jira.NewSessionClient(session)
	if err != nil {
		return models.Issue{}, wrap(ActionGetIssue, err)
	}

	issue, err = client.GetIssue(ctx, issueID)
	return issue, wrap(ActionGetIssue, err)
}

// CreateIssueRecord creates an issue and returns its key and id.
func (t *Toolset) CreateIssueRecord(ctx context.Context, identity string, input jira.IssueInput) (created models.CreatedIssue, err error) {
	log, done := t.begin("create_issue", identity)
	defer func() { done(err) }()

	if input.Description != "" {
		log.Debug("description is not forwarded on issue creation", "project", input.ProjectKey)
	}

	session, err := t.open(ctx, log, identity)
	if err != nil {
		return models.CreatedIssue{}, wrap(ActionCreateIssue, err)
	}
	client, err := jira.NewSessionClient(session)
	if err != nil {
		return models.CreatedIssue{}, wrap(ActionCreateIssue, err)
	}

	created, err = client.CreateIssue(ctx, input)
	return created, wrap(ActionCreateIssue, err)
}

// UpdateSummary replaces an issue's summary.
func (t *Toolset) UpdateSummary(ctx context.Context, identity, issueKey, newSummary string) (err error) {
	log, done := t.begin("update_issue_summary", identity)
	defer func() { done(err) }()

	session, err := t.open(ctx, log, identity)
	if err != nil {
		return wrap(ActionUpdateIssue, err)
	}
	client, err := jira.NewSessionClient(session)
	if err != nil {
		return wrap(ActionUpdateIssue, err)
	}

	return wrap(ActionUpdateIssue, client.UpdateSummary(ctx, issueKey, newSummary))
}

// SearchConfluencePages runs a CQL search. Unlike the other tools, failures
// are returned as an error (an *ActionError) rather than folded into a value.
func (t *Toolset) SearchConfluencePages(ctx context.Context, identity, cql string) (pages []models.PageSummary, err error) {
	log, done := t.begin("search_confluence_pages", identity)
	defer func() { done(err) }()

	session, err := t.open(ctx, log, identity)
	if err != nil {
		return nil, wrap(ActionSearchPages, err)
	}

	pages, err = confluence.NewSessionClient(session).SearchPages(ctx, cql)
	if err != nil {
		return nil, wrap(ActionSearchPages, err)
	}
	return pages, nil
}

// PageContent fetches a page's storage body and summarizes it.
func (t *Toolset) PageContent(ctx context.Context, identity, pageID string) (content string, err error) {
	log, done := t.begin("get_confluence_page_content", identity)
	defer func() { done(err) }()

	session, err := t.open(ctx, log, identity)
	if err != nil {
		return "", wrap(ActionGetPageContent, err)
	}

	html, err := confluence.NewSessionClient(session).GetPageBody(ctx, pageID)
	if err != nil {
		return "", wrap(ActionGetPageContent, err)
	}

	content, err = t.summarizer.Summarize(html)
	return content, wrap(ActionGetPageContent, err)
}

// CreatePage creates a Confluence page and returns its id and link.
func (t *Toolset) CreatePage(ctx context.Context, identity string, input confluence.PageInput) (page models.CreatedPage, err error) {
	log, done := t.begin("create_confluence_page", identity)
	defer func() { done(err) }()

	session, err := t.open(ctx, log, identity)
	if err != nil {
		return models.CreatedPage{}, wrap(ActionCreatePage, err)
	}

	page, err = confluence.NewSessionClient(session).CreatePage(ctx, input)
	return page, wrap(ActionCreatePage, err)
}

// Tenant resolves the site reachable by identity's token.
func (t *Toolset) Tenant(ctx context.Context, identity string) (models.Tenant, error) {
	log, done := t.begin("resources", identity)
	session, err := t.open(ctx, log, identity)
	done(err)
	if err != nil {
		return models.Tenant{}, err
	}
	return session.Tenant, nil
}

// open performs the token and tenant lookups shared by every operation.
func (t *Toolset) open(ctx context.Context, log *slog.Logger, identity string) (*atlassian.Session, error) {
	token, err := t.tokens.Token(ctx, identity)
	if err != nil {
		return nil, err
	}
	log.Debug("access token resolved", "token", logging.MaskSensitive(token))

	session, err := t.resolver.Open(ctx, token)
	if err != nil {
		return nil, err
	}
	log.Debug("tenant resolved", "cloud_id", session.Tenant.ID)
	return session, nil
}

// begin logs the start of an invocation and returns a logger carrying its
// correlation id plus a func that logs the outcome.
func (t *Toolset) begin(tool, identity string) (*slog.Logger, func(error)) {
	log := logging.With(
		"tool", tool,
		"invocation_id", uuid.NewString(),
		"identity", logging.MaskSensitive(identity))
	start := time.Now()
	log.Debug("tool invoked")

	return log, func(err error) {
		if err != nil {
			log.Warn("tool failed",
				"duration", time.Since(start),
				"error", err)
			return
		}
		log.Info("tool completed", "duration", time.Since(start))
	}
}
