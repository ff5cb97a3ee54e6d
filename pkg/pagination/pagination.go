// Package pagination drains cursor/token paginated collections.
package pagination

import (
	"context"

	"github.com/pkg/errors"
)

// PageFunc issues one page request. token is empty on the first call; the
// returned next token is empty when there are no further pages.
type PageFunc[T any] func(ctx context.Context, token string) (items []T, next string, err error)

// FetchAll calls fetch until it returns an empty continuation token and
// concatenates every page in order. At least one request is always made.
// If any page fails, nothing fetched so far is returned.
func FetchAll[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	var all []T
	token := ""
	for page := 1; ; page++ {
		items, next, err := fetch(ctx, token)
		if err != nil {
			return nil, errors.Wrapf(err, "fetching page %d", page)
		}
		all = append(all, items...)

		if next == "" {
			return all, nil
		}
		if next == token {
			return nil, errors.Errorf("page %d returned the same continuation token %q", page, next)
		}
		token = next
	}
}
