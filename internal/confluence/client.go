// Package confluence implements the Confluence page operations against a
// tenant's cloud gateway path.
package confluence

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
	"github.com/tidwall/gjson"

	"github.com/danielolaszy/atlas/internal/atlassian"
	"github.com/danielolaszy/atlas/internal/logging"
	"github.com/danielolaszy/atlas/pkg/models"
)

// Doer sends a JSON request and returns the response body, failing on 4xx
// and 5xx answers. *atlassian.Session implements it.
type Doer interface {
	Do(ctx context.Context, method, rawURL string, payload any) ([]byte, error)
}

// Client handles interactions with the Confluence REST APIs of one tenant.
type Client struct {
	doer    Doer
	baseURL string
}

// PageInput carries the arguments of the create page tool.
type PageInput struct {
	// SpaceID is the numeric space id, not the space key.
	SpaceID string
	Title   string
	// Content is storage-format HTML.
	Content string
}

type searchOptions struct {
	CQL    string `url:"cql"`
	Expand string `url:"expand,omitempty"`
}

type storageBody struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}

type createPageRequest struct {
	SpaceID string      `json:"spaceId"`
	Status  string      `json:"status"`
	Title   string      `json:"title"`
	Body    storageBody `json:"body"`
}

// NewClient creates a Confluence client rooted at baseURL.
func NewClient(doer Doer, baseURL string) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{doer: doer, baseURL: baseURL}
}

// NewSessionClient creates a Confluence client for the tenant of session.
func NewSessionClient(session *atlassian.Session) *Client {
	return NewClient(session, session.ConfluenceBaseURL())
}

// SearchPages runs a CQL query and returns the cleaned hits.
func (c *Client) SearchPages(ctx context.Context, cql string) ([]models.PageSummary, error) {
	values, err := query.Values(searchOptions{CQL: cql, Expand: "space"})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search query: %w", err)
	}

	body, err := c.doer.Do(ctx, http.MethodGet, c.baseURL+"wiki/rest/api/content/search?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}

	pages, err := CleanSearchResponse(body)
	if err != nil {
		return nil, err
	}

	logging.Debug("confluence search completed",
		"cql", cql,
		"result_count", len(pages))

	return pages, nil
}

// GetPageBody returns the storage-format HTML of a page.
func (c *Client) GetPageBody(ctx context.Context, pageID string) (string, error) {
	body, err := c.doer.Do(ctx, http.MethodGet, c.baseURL+"wiki/api/v2/pages/"+url.PathEscape(pageID)+"?body-format=storage", nil)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("page response is not valid JSON")
	}

	return gjson.GetBytes(body, "body.storage.value").String(), nil
}

// CreatePage creates a current page in a space and returns its id and link.
func (c *Client) CreatePage(ctx context.Context, input PageInput) (models.CreatedPage, error) {
	payload := createPageRequest{
		SpaceID: input.SpaceID,
		Status:  "current",
		Title:   input.Title,
		Body: storageBody{
			Representation: "storage",
			Value:          input.Content,
		},
	}

	body, err := c.doer.Do(ctx, http.MethodPost, c.baseURL+"wiki/api/v2/pages", payload)
	if err != nil {
		return models.CreatedPage{}, err
	}
	if !gjson.ValidBytes(body) {
		return models.CreatedPage{}, fmt.Errorf("create page response is not valid JSON")
	}

	root := gjson.ParseBytes(body)
	page := models.CreatedPage{
		ID:   root.Get("id").String(),
		Link: root.Get("_links.base").String() + root.Get("_links.webui").String(),
	}

	logging.Info("created confluence page",
		"space_id", input.SpaceID,
		"page_id", page.ID)

	return page, nil
}

// CleanSearchResponse maps a content search response onto page summaries.
// Links are absolute when the response carries a base link.
func CleanSearchResponse(body []byte) ([]models.PageSummary, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("search response is not valid JSON")
	}

	root := gjson.ParseBytes(body)
	base := root.Get("_links.base").String()

	results := root.Get("results").Array()
	pages := make([]models.PageSummary, 0, len(results))
	for _, result := range results {
		page := models.PageSummary{
			ID:        result.Get("id").String(),
			Title:     result.Get("title").String(),
			Type:      result.Get("type").String(),
			Status:    result.Get("status").String(),
			SpaceKey:  result.Get("space.key").String(),
			SpaceName: result.Get("space.name").String(),
		}
		if webui := result.Get("_links.webui").String(); webui != "" {
			page.URL = base + webui
		}
		pages = append(pages, page)
	}

	return pages, nil
}
