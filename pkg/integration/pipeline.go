package integration

import (
	"context"
	"log/slog"

	"github.com/harrisonrobin/schooltasks/pkg/config"
	"github.com/harrisonrobin/schooltasks/pkg/index"
	"github.com/harrisonrobin/schooltasks/pkg/mirror"
	"github.com/harrisonrobin/schooltasks/pkg/model"
	"github.com/harrisonrobin/schooltasks/pkg/notion"
	"github.com/harrisonrobin/schooltasks/pkg/overdue"
	"github.com/harrisonrobin/schooltasks/pkg/schema"
	"github.com/harrisonrobin/schooltasks/pkg/status"
	"github.com/pkg/errors"
)

// Remote is the database API a pipeline reads and writes.
type Remote interface {
	schema.Client
	index.Querier
	mirror.Client
}

// Pipeline syncs one integration into its database below ParentPageID.
type Pipeline struct {
	Remote       Remote
	ParentPageID string
	Clock        overdue.Clock
}

// NewPipeline checks the Notion section of the config and returns a pipeline
// talking to Notion with the configured key.
func NewPipeline(store *config.Store, opts ...notion.ClientOption) (*Pipeline, error) {
	n, err := store.CheckNotion()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Remote:       notion.NewClient(config.Str(n.APIKey), opts...),
		ParentPageID: config.Str(n.ParentPageID),
		Clock:        overdue.NewClock(),
	}, nil
}

// Run fetches the integration's assignments, brings the database schema up
// to date, indexes the existing rows and mirrors the assignments.
func (p *Pipeline) Run(ctx context.Context, in Integration, logger *slog.Logger) (mirror.Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	clock := p.Clock
	if clock == nil {
		clock = overdue.NewClock()
	}

	assignments, err := in.Fetch(ctx, logger)
	if err != nil {
		return mirror.Summary{}, errors.Wrapf(err, "fetching %s assignments", in.Name())
	}

	creatable := overdue.CreationFilter(clock)
	tmpl := in.Template()

	db, err := schema.NewReconciler(p.Remote, p.ParentPageID, logger).
		Reconcile(ctx, in.Title(), tmpl, DesiredOptions(tmpl, assignments, creatable))
	if err != nil {
		return mirror.Summary{}, err
	}
	if err := tmpl.Validate(db.Properties); err != nil {
		return mirror.Summary{}, errors.Wrapf(err, "database %q", in.Title())
	}

	idx, err := index.Build(ctx, p.Remote, db.ID, tmpl.ExternalID, logger)
	if err != nil {
		return mirror.Summary{}, err
	}
	logger.Debug("indexed rows", "rows", len(idx.Rows), "external_ids", idx.Len())

	engine := mirror.NewEngine(p.Remote, mirror.Config{
		DatabaseID: db.ID,
		Template:   tmpl,
		Creatable:  creatable,
		Policy:     in.Policy(),
	}, logger)
	return engine.Run(ctx, assignments, idx)
}

// DesiredOptions returns the status options and the categories of the
// assignments that may get a row, in first-seen order.
func DesiredOptions(tmpl schema.Template, assignments []model.Assignment, creatable func(model.Assignment) bool) map[string][]notion.Option {
	var statuses []notion.Option
	for _, o := range status.Options() {
		statuses = append(statuses, notion.Option{Name: o.Name, Color: o.Color})
	}

	categories := []notion.Option{}
	seen := map[string]bool{}
	for _, a := range assignments {
		if a.Category == "" || seen[a.Category] || !creatable(a) {
			continue
		}
		seen[a.Category] = true
		categories = append(categories, notion.Option{Name: a.Category})
	}

	return map[string][]notion.Option{
		schema.PropStatus: statuses,
		tmpl.Category:     categories,
	}
}
