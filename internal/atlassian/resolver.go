// Package atlassian resolves an access token to the cloud site it can reach
// and hands out per-invocation sessions bound to that site.
package atlassian

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/danielolaszy/atlas/internal/auth"
	"github.com/danielolaszy/atlas/internal/logging"
	"github.com/danielolaszy/atlas/pkg/models"
)

const accessibleResourcesPath = "/oauth/token/accessible-resources"

// Resolver discovers the tenant behind a token. It shares one base HTTP
// client, and with it one connection pool, across all sessions.
type Resolver struct {
	apiURL string
	client *http.Client
}

// NewResolver creates a resolver against the given API gateway. A nil
// client means http.DefaultClient.
func NewResolver(apiURL string, client *http.Client) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &Resolver{
		apiURL: strings.TrimRight(apiURL, "/"),
		client: client,
	}
}

// Open resolves the tenant for token and returns a session bound to it.
func (r *Resolver) Open(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, auth.ErrNoToken
	}

	client := r.bearerClient(token)
	tenant, err := r.resolve(ctx, client)
	if err != nil {
		return nil, err
	}

	return &Session{
		Tenant: tenant,
		Client: client,
		apiURL: r.apiURL,
	}, nil
}

// Resolve returns the first tenant reachable with token.
func (r *Resolver) Resolve(ctx context.Context, token string) (models.Tenant, error) {
	session, err := r.Open(ctx, token)
	if err != nil {
		return models.Tenant{}, err
	}
	return session.Tenant, nil
}

func (r *Resolver) resolve(ctx context.Context, client *http.Client) (models.Tenant, error) {
	body, err := do(ctx, client, http.MethodGet, r.apiURL+accessibleResourcesPath, nil)
	if err != nil {
		return models.Tenant{}, &ResolveError{Err: err}
	}

	if !gjson.ValidBytes(body) {
		return models.Tenant{}, &ResolveError{Err: fmt.Errorf("accessible resources response is not valid JSON")}
	}
	resources := gjson.ParseBytes(body)
	if !resources.IsArray() {
		return models.Tenant{}, &ResolveError{Err: fmt.Errorf("accessible resources response is not a list")}
	}

	first := resources.Get("0")
	if !first.Exists() || first.Get("id").String() == "" {
		return models.Tenant{}, &ResolveError{Err: ErrNoResources}
	}

	tenant := models.Tenant{
		ID:   first.Get("id").String(),
		URL:  first.Get("url").String(),
		Name: first.Get("name").String(),
	}
	logging.Debug("resolved atlassian tenant",
		"cloud_id", tenant.ID,
		"site_url", tenant.URL,
		"resource_count", len(resources.Array()))

	return tenant, nil
}

// bearerClient wraps the shared transport with an Authorization header for token.
func (r *Resolver) bearerClient(token string) *http.Client {
	base := r.client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base,
		},
		Timeout: r.client.Timeout,
	}
}

// Session is the token, tenant and authenticated client for one tool call.
// It is not reused across calls.
type Session struct {
	Tenant models.Tenant
	Client *http.Client

	apiURL string
}

// JiraBaseURL is the tenant-scoped Jira root, with a trailing slash.
func (s *Session) JiraBaseURL() string {
	return fmt.Sprintf("%s/ex/jira/%s/", s.apiURL, s.Tenant.ID)
}

// ConfluenceBaseURL is the tenant-scoped Confluence root, with a trailing slash.
func (s *Session) ConfluenceBaseURL() string {
	return fmt.Sprintf("%s/ex/confluence/%s/", s.apiURL, s.Tenant.ID)
}

// Do sends a JSON request through the session client and returns the body.
// 4xx and 5xx answers come back as *StatusError.
func (s *Session) Do(ctx context.Context, method, rawURL string, payload any) ([]byte, error) {
	return do(ctx, s.Client, method, rawURL, payload)
}

func do(ctx context.Context, client *http.Client, method, rawURL string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if err := CheckStatus(resp, data); err != nil {
		return nil, err
	}
	return data, nil
}
