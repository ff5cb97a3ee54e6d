package index

import (
	"context"
	"log/slog"
	"sync"

	"github.com/harrisonrobin/schooltasks/pkg/notion"
	"github.com/harrisonrobin/schooltasks/pkg/pagination"
	"github.com/pkg/errors"
)

// Querier lists the rows of a database one page at a time.
type Querier interface {
	QueryDatabase(ctx context.Context, id, cursor string) ([]notion.Page, string, error)
}

// RecordIndex maps external ids to the rows mirroring them. It lives for a
// single sync run.
type RecordIndex struct {
	Rows     []notion.Page
	mappings map[string]notion.Page
	mu       sync.RWMutex
}

// New returns an index over rows. Rows without an external id stay in Rows
// but are not indexed. When several rows share an id the last one wins.
func New(rows []notion.Page, externalIDProp string, logger *slog.Logger) *RecordIndex {
	if logger == nil {
		logger = slog.Default()
	}

	idx := &RecordIndex{
		Rows:     rows,
		mappings: make(map[string]notion.Page, len(rows)),
	}
	for _, row := range rows {
		id := row.Text(externalIDProp)
		if id == "" {
			continue
		}
		if prev, ok := idx.mappings[id]; ok {
			logger.Warn("duplicate external id, keeping the later row",
				"external_id", id, "dropped_row", prev.ID, "kept_row", row.ID)
		}
		idx.mappings[id] = row
	}
	return idx
}

// Build fetches every row of the database and indexes it.
func Build(ctx context.Context, q Querier, databaseID, externalIDProp string, logger *slog.Logger) (*RecordIndex, error) {
	rows, err := pagination.FetchAll(ctx, func(ctx context.Context, cursor string) ([]notion.Page, string, error) {
		return q.QueryDatabase(ctx, databaseID, cursor)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing rows of database %s", databaseID)
	}
	return New(rows, externalIDProp, logger), nil
}

// Get returns the row mirroring externalID.
func (idx *RecordIndex) Get(externalID string) (notion.Page, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	row, ok := idx.mappings[externalID]
	return row, ok
}

// Set records row as the mirror of externalID.
func (idx *RecordIndex) Set(externalID string, row notion.Page) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.mappings[externalID] = row
}

// Len returns the number of indexed external ids.
func (idx *RecordIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.mappings)
}
