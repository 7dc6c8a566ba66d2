package tools

// Labels prefixed to failures of each tool, as in "Error fetching issue: ...".
const (
	ActionGetIssue       = "fetching issue"
	ActionCreateIssue    = "creating issue"
	ActionUpdateIssue    = "updating issue"
	ActionSearchPages    = "searching Confluence pages"
	ActionGetPageContent = "fetching Confluence page content"
	ActionCreatePage     = "creating page"
)

// ActionError is a failure of one tool operation, labelled with what the
// tool was doing.
type ActionError struct {
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	return "Error " + e.Action + ": " + e.Err.Error()
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

func wrap(action string, err error) error {
	if err == nil {
		return nil
	}
	return &ActionError{Action: action, Err: err}
}
