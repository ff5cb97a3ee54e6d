// Package notion is a small client for the Notion databases and pages API.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/harrisonrobin/schooltasks/pkg/pagination"
	"github.com/harrisonrobin/schooltasks/pkg/upstream"
	"github.com/pkg/errors"
)

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://api.notion.com/v1"
	// APIVersion is sent as the Notion-Version header.
	APIVersion = "2022-06-28"

	pageSize = 100
)

// Client talks to the Notion API with a bearer integration key.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another endpoint, e.g. a test server.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the rate limited default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient returns a client authenticating with token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewRateLimitedHTTPClient()
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "constructing http request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", APIVersion)
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("notion request", "method", method, "path", path)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer res.Body.Close()

	slog.Debug("notion response", "method", method, "path", path, "status", res.StatusCode)

	if err := upstream.Check(res, payload); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, path)
	}
	return nil
}

// Search returns one page of databases whose title matches query.
func (c *Client) Search(ctx context.Context, query, cursor string) ([]Database, string, error) {
	req := searchRequest{
		Query:       query,
		Filter:      searchFilter{Value: "database", Property: "object"},
		StartCursor: cursor,
		PageSize:    pageSize,
	}

	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, "/search", req, &resp); err != nil {
		return nil, "", err
	}
	return resp.Results, nextCursor(resp.HasMore, resp.NextCursor), nil
}

// SearchDatabases returns every database matching query.
func (c *Client) SearchDatabases(ctx context.Context, query string) ([]Database, error) {
	return pagination.FetchAll(ctx, func(ctx context.Context, cursor string) ([]Database, string, error) {
		return c.Search(ctx, query, cursor)
	})
}

// CreateDatabase creates a database below the request's parent page.
func (c *Client) CreateDatabase(ctx context.Context, req CreateDatabaseRequest) (*Database, error) {
	var db Database
	if err := c.do(ctx, http.MethodPost, "/databases", req, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// UpdateDatabase overwrites the named property definitions of a database.
func (c *Client) UpdateDatabase(ctx context.Context, id string, req UpdateDatabaseRequest) (*Database, error) {
	var db Database
	if err := c.do(ctx, http.MethodPatch, "/databases/"+url.PathEscape(id), req, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// QueryDatabase returns one page of rows of a database.
func (c *Client) QueryDatabase(ctx context.Context, id, cursor string) ([]Page, string, error) {
	req := queryRequest{StartCursor: cursor, PageSize: pageSize}

	var resp queryResponse
	path := fmt.Sprintf("/databases/%s/query", url.PathEscape(id))
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, "", err
	}
	return resp.Results, nextCursor(resp.HasMore, resp.NextCursor), nil
}

// CreatePage adds a row to a database.
func (c *Client) CreatePage(ctx context.Context, databaseID string, props map[string]PropertyValue) (*Page, error) {
	req := pageRequest{
		Parent:     &Parent{DatabaseID: databaseID},
		Properties: props,
	}

	var page Page
	if err := c.do(ctx, http.MethodPost, "/pages", req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePage sets the given properties of a row; others are left unchanged.
func (c *Client) UpdatePage(ctx context.Context, pageID string, props map[string]PropertyValue) (*Page, error) {
	req := pageRequest{Properties: props}

	var page Page
	if err := c.do(ctx, http.MethodPatch, "/pages/"+url.PathEscape(pageID), req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func nextCursor(hasMore bool, cursor string) string {
	if !hasMore {
		return ""
	}
	return cursor
}
