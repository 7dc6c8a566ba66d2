// Package models defines the transient values produced by the tool operations.
// None of them is persisted; each is built from a single API response and
// discarded once rendered.
package models

import (
	"fmt"
)

// Placeholders substituted when an issue field is absent from the response.
const (
	NoSummary     = "No Summary"
	UnknownStatus = "Unknown"
	NoDescription = "No description"
	Unassigned    = "Unassigned"
	NoPriority    = "None"
)

// Tenant identifies the Atlassian cloud site an access token can reach.
type Tenant struct {
	// ID is the cloud id used in /ex/jira/{id} and /ex/confluence/{id} paths
	ID string

	// URL is the site's browsable base URL (e.g., "https://acme.atlassian.net")
	URL string

	// Name is the site name as reported by the accessible-resources endpoint
	Name string
}

// Issue is the projection of a Jira issue handed back to the agent.
type Issue struct {
	// Key is the issue key (e.g., "PROJ-123"), empty when absent
	Key string

	// Summary is the issue title
	Summary string

	// Status is the workflow status name
	Status string

	// Priority is the priority name
	Priority string

	// Assignee is the assignee's display name
	Assignee string

	// Description is the first text node of the description document
	Description string
}

// Format renders the issue as the markdown block returned by the get issue tool.
func (i Issue) Format() string {
	return fmt.Sprintf("**Issue:** %s\n**Summary:** %s\n**Status:** %s\n**Priority:** %s\n**Assignee:** %s\n**Description:** %s\n",
		i.Key, i.Summary, i.Status, i.Priority, i.Assignee, i.Description)
}

// CreatedIssue is the identity of a newly created Jira issue.
type CreatedIssue struct {
	ID  string
	Key string
}

// PageSummary is one cleaned Confluence search hit.
type PageSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	SpaceKey  string `json:"spaceKey,omitempty"`
	SpaceName string `json:"spaceName,omitempty"`
	URL       string `json:"url,omitempty"`
}

// CreatedPage is the identity and link of a newly created Confluence page.
type CreatedPage struct {
	ID   string
	Link string
}
