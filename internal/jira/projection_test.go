package jira

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielolaszy/atlas/pkg/models"
)

func TestProjectIssuePlaceholders(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected models.Issue
	}{
		{
			name: "Empty fields",
			raw:  `{"key":"PROJ-1","fields":{}}`,
			expected: models.Issue{
				Key:         "PROJ-1",
				Summary:     models.NoSummary,
				Status:      models.UnknownStatus,
				Priority:    models.NoPriority,
				Assignee:    models.Unassigned,
				Description: models.NoDescription,
			},
		},
		{
			name: "Null assignee and description",
			raw:  `{"key":"PROJ-2","fields":{"summary":"s","assignee":null,"description":null,"status":{"name":"Done"}}}`,
			expected: models.Issue{
				Key:         "PROJ-2",
				Summary:     "s",
				Status:      "Done",
				Priority:    models.NoPriority,
				Assignee:    models.Unassigned,
				Description: models.NoDescription,
			},
		},
		{
			name: "No fields and no key",
			raw:  `{}`,
			expected: models.Issue{
				Summary:     models.NoSummary,
				Status:      models.UnknownStatus,
				Priority:    models.NoPriority,
				Assignee:    models.Unassigned,
				Description: models.NoDescription,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ProjectIssue([]byte(tc.raw)))
		})
	}
}

func TestProjectIssueDescription(t *testing.T) {
	testCases := []struct {
		name        string
		description string
		expected    string
	}{
		{
			name:        "Deeply nested text node",
			description: `{"type":"doc","content":[{"type":"bulletList","content":[{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"deep"}]}]}]}]}`,
			expected:    "deep",
		},
		{
			name:        "First node in document order wins",
			description: `{"content":[{"type":"paragraph","content":[{"type":"text","text":"first"}]},{"type":"paragraph","content":[{"type":"text","text":"second"}]}]}`,
			expected:    "first",
		},
		{
			name:        "Own member checked before children",
			description: `{"content":[{"content":[{"text":"child"}],"text":"parent"}]}`,
			expected:    "parent",
		},
		{
			name:        "Document without text nodes",
			description: `{"type":"doc","content":[{"type":"rule"},{"type":"paragraph","content":[]}]}`,
			expected:    models.NoDescription,
		},
		{
			name:        "Empty document",
			description: `{"type":"doc","content":[]}`,
			expected:    models.NoDescription,
		},
		{
			name:        "Plain string description has no content tree",
			description: `"legacy wiki text"`,
			expected:    models.NoDescription,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raw := `{"key":"PROJ-1","fields":{"description":` + tc.description + `}}`
			assert.Equal(t, tc.expected, ProjectIssue([]byte(raw)).Description)
		})
	}
}

func TestProjectCreatedIssue(t *testing.T) {
	created := ProjectCreatedIssue([]byte(`{"id":"10001","key":"X-1"}`))
	assert.Equal(t, models.CreatedIssue{ID: "10001", Key: "X-1"}, created)

	assert.Equal(t, models.CreatedIssue{}, ProjectCreatedIssue([]byte(`{}`)))
}

func TestIssueFormat(t *testing.T) {
	issue := models.Issue{
		Key:         "PROJ-1",
		Summary:     "S",
		Status:      "Open",
		Priority:    "Low",
		Assignee:    models.Unassigned,
		Description: "D",
	}

	expected := "**Issue:** PROJ-1\n**Summary:** S\n**Status:** Open\n**Priority:** Low\n**Assignee:** Unassigned\n**Description:** D\n"
	assert.Equal(t, expected, issue.Format())
}
