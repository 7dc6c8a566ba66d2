// Package jira implements the Jira issue operations against a tenant's
// cloud gateway path.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	jira "github.com/andygrunwald/go-jira"

	"github.com/danielolaszy/atlas/internal/atlassian"
	"github.com/danielolaszy/atlas/internal/logging"
	"github.com/danielolaszy/atlas/pkg/models"
)

// Client handles interactions with the JIRA API
type Client struct {
	client *jira.Client
}

// IssueInput carries the arguments of the create issue tool.
type IssueInput struct {
	ProjectKey string
	Summary    string
	IssueType  string
	// Description is accepted from callers but not sent to Jira.
	Description string
}

type keyRef struct {
	Key string `json:"key"`
}

type nameRef struct {
	Name string `json:"name"`
}

type createFields struct {
	Project   keyRef  `json:"project"`
	Summary   string  `json:"summary"`
	IssueType nameRef `json:"issuetype"`
}

type summaryFields struct {
	Summary string `json:"summary"`
}

type fieldsPayload[T any] struct {
	Fields T `json:"fields"`
}

// NewClient creates a JIRA client rooted at baseURL, sending every request
// through httpClient.
func NewClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client, err := jira.NewClient(httpClient, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}
	return &Client{client: client}, nil
}

// NewSessionClient creates a JIRA client for the tenant of session.
func NewSessionClient(session *atlassian.Session) (*Client, error) {
	return NewClient(session.Client, session.JiraBaseURL())
}

// GetIssue fetches an issue through the v3 API and projects it.
func (c *Client) GetIssue(ctx context.Context, issueID string) (models.Issue, error) {
	if c.client == nil {
		return models.Issue{}, fmt.Errorf("JIRA client not initialized")
	}

	req, err := c.client.NewRequestWithContext(ctx, http.MethodGet, "rest/api/3/issue/"+issueID, nil)
	if err != nil {
		return models.Issue{}, fmt.Errorf("failed to build request: %w", err)
	}

	var raw json.RawMessage
	resp, err := c.client.Do(req, &raw)
	if err != nil {
		return models.Issue{}, responseError(resp, err, "issue")
	}

	issue := ProjectIssue(raw)
	logging.Debug("fetched jira issue",
		"issue", issueID,
		"key", issue.Key,
		"status", issue.Status)

	return issue, nil
}

// CreateIssue creates an issue through the v2 API. Only project, summary and
// issue type are sent; input.Description is dropped.
func (c *Client) CreateIssue(ctx context.Context, input IssueInput) (models.CreatedIssue, error) {
	if c.client == nil {
		return models.CreatedIssue{}, fmt.Errorf("JIRA client not initialized")
	}

	payload := fieldsPayload[createFields]{
		Fields: createFields{
			Project:   keyRef{Key: input.ProjectKey},
			Summary:   input.Summary,
			IssueType: nameRef{Name: input.IssueType},
		},
	}

	req, err := c.client.NewRequestWithContext(ctx, http.MethodPost, "rest/api/2/issue", payload)
	if err != nil {
		return models.CreatedIssue{}, fmt.Errorf("failed to build request: %w", err)
	}

	var raw json.RawMessage
	resp, err := c.client.Do(req, &raw)
	if err != nil {
		return models.CreatedIssue{}, responseError(resp, err, "create issue")
	}

	created := ProjectCreatedIssue(raw)
	logging.Info("created jira issue",
		"project", input.ProjectKey,
		"key", created.Key,
		"id", created.ID)

	return created, nil
}

// UpdateSummary replaces the summary of an issue. Any 2xx answer counts as
// success whatever its body.
func (c *Client) UpdateSummary(ctx context.Context, issueKey, summary string) error {
	if c.client == nil {
		return fmt.Errorf("JIRA client not initialized")
	}

	payload := fieldsPayload[summaryFields]{Fields: summaryFields{Summary: summary}}
	req, err := c.client.NewRequestWithContext(ctx, http.MethodPut, "rest/api/3/issue/"+issueKey, payload)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req, nil)
	if err != nil {
		return responseError(resp, err, "update issue")
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	logging.Info("updated jira issue summary", "key", issueKey)
	return nil
}

// responseError folds the error body of a failed call into the error. A
// successful status means the body was unreadable, and go-jira has already
// closed it.
func responseError(resp *jira.Response, err error, what string) error {
	if resp == nil || resp.Response == nil {
		return err
	}
	if resp.StatusCode < http.StatusBadRequest {
		return fmt.Errorf("failed to decode %s response: %w", what, err)
	}
	return jira.NewJiraError(resp, err)
}
