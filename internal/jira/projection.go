package jira

import (
	"github.com/tidwall/gjson"

	"github.com/danielolaszy/atlas/pkg/models"
)

// ProjectIssue extracts the agent-facing fields from a v3 issue response,
// substituting placeholders for anything missing or null.
func ProjectIssue(raw []byte) models.Issue {
	root := gjson.ParseBytes(raw)
	fields := root.Get("fields")

	return models.Issue{
		Key:         textOr(root.Get("key"), ""),
		Summary:     textOr(fields.Get("summary"), models.NoSummary),
		Status:      textOr(fields.Get("status.name"), models.UnknownStatus),
		Priority:    textOr(fields.Get("priority.name"), models.NoPriority),
		Assignee:    textOr(fields.Get("assignee.displayName"), models.Unassigned),
		Description: textOr(FindText(fields.Get("description.content")), models.NoDescription),
	}
}

// ProjectCreatedIssue reads the key and id of a create issue response.
func ProjectCreatedIssue(raw []byte) models.CreatedIssue {
	root := gjson.ParseBytes(raw)
	return models.CreatedIssue{
		ID:  textOr(root.Get("id"), ""),
		Key: textOr(root.Get("key"), ""),
	}
}

// FindText returns the first "text" member anywhere under node. Objects are
// checked for their own member before their children are searched, children
// in document order.
func FindText(node gjson.Result) gjson.Result {
	var found gjson.Result
	switch {
	case node.IsObject():
		if text := node.Get("text"); text.Exists() {
			return text
		}
		fallthrough
	case node.IsArray():
		node.ForEach(func(_, child gjson.Result) bool {
			found = FindText(child)
			return !found.Exists()
		})
	}
	return found
}

// textOr renders a scalar as text. Missing and null values yield def;
// objects and arrays have no text form and yield "".
func textOr(value gjson.Result, def string) string {
	if !value.Exists() || value.Type == gjson.Null {
		return def
	}
	if value.IsObject() || value.IsArray() {
		return ""
	}
	return value.String()
}
