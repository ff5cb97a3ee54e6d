// Package canvas reads courses and assignments from a Canvas LMS instance.
package canvas

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/harrisonrobin/schooltasks/pkg/pagination"
	"github.com/harrisonrobin/schooltasks/pkg/upstream"
	"github.com/pkg/errors"
)

const perPage = "100"

// Client talks to one Canvas instance with a personal access token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient returns a client for the instance at baseURL. A nil hc means
// http.DefaultClient.
func NewClient(baseURL, token string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		httpClient: hc,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

// get fetches u into out and returns the rel="next" link, if any.
func (c *Client) get(ctx context.Context, u string, out any) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", errors.Wrap(err, "constructing http request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "GET %s", u)
	}
	defer res.Body.Close()
	slog.Debug("canvas response", "url", u, "status", res.StatusCode)

	if err := upstream.Check(res, nil); err != nil {
		return "", err
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return "", errors.Wrapf(err, "decoding %s", u)
	}
	return NextLink(res.Header.Get("Link")), nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/api/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// list drains a paginated collection starting at first.
func list[T any](ctx context.Context, c *Client, first string) ([]T, error) {
	return pagination.FetchAll(ctx, func(ctx context.Context, next string) ([]T, string, error) {
		u := first
		if next != "" {
			u = next
		}
		var page []T
		link, err := c.get(ctx, u, &page)
		return page, link, err
	})
}

// Self returns the token's user.
func (c *Client) Self(ctx context.Context) (User, error) {
	var u User
	_, err := c.get(ctx, c.endpoint("/users/self", nil), &u)
	return u, errors.Wrap(err, "getting current user")
}

// Courses lists the user's courses.
func (c *Client) Courses(ctx context.Context) ([]Course, error) {
	courses, err := list[Course](ctx, c, c.endpoint("/courses", url.Values{"per_page": {perPage}}))
	return courses, errors.Wrap(err, "listing courses")
}

// Assignments lists the assignments of a course with the user's submission.
func (c *Client) Assignments(ctx context.Context, courseID int64) ([]Assignment, error) {
	q := url.Values{"per_page": {perPage}, "include[]": {"submission"}}
	path := "/courses/" + formatID(courseID) + "/assignments"
	assignments, err := list[Assignment](ctx, c, c.endpoint(path, q))
	return assignments, errors.Wrapf(err, "listing assignments of course %d", courseID)
}

// NextLink returns the rel="next" target of an RFC 8288 Link header.
func NextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segs := strings.Split(part, ";")
		if len(segs) < 2 {
			continue
		}
		target := strings.TrimSpace(segs[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, p := range segs[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if ok && strings.EqualFold(k, "rel") && strings.Trim(v, `"`) == "next" {
				return target[1 : len(target)-1]
			}
		}
	}
	return ""
}
