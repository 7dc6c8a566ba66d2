package atlassian

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoResources is returned when a token reaches no Atlassian site.
var ErrNoResources = errors.New("no accessible Atlassian resources found for this user")

// ResolveError reports a failed tenant resolution.
type ResolveError struct {
	Err error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("failed to resolve Atlassian tenant: %v", e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// StatusError is a 4xx or 5xx answer from the remote API.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Status: %s, body: %s", e.Status, e.Body)
}

// CheckStatus returns a *StatusError when resp carries a client or server
// error status. body is the already drained response body.
func CheckStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &StatusError{
		StatusCode: resp.StatusCode,
		Status:     status,
		Body:       string(body),
	}
}
