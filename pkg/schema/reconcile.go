package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/harrisonrobin/schooltasks/pkg/colors"
	"github.com/harrisonrobin/schooltasks/pkg/notion"
	"github.com/pkg/errors"
)

// Client is the part of the remote API the reconciler needs.
type Client interface {
	SearchDatabases(ctx context.Context, query string) ([]notion.Database, error)
	CreateDatabase(ctx context.Context, req notion.CreateDatabaseRequest) (*notion.Database, error)
	UpdateDatabase(ctx context.Context, id string, req notion.UpdateDatabaseRequest) (*notion.Database, error)
}

// CreateError is returned when the database could not be created.
type CreateError struct {
	Title  string
	Schema string
	Err    error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("creating database %q: %v\nschema: %s", e.Title, e.Err, e.Schema)
}

func (e *CreateError) Unwrap() error { return e.Err }

// UpdateError is returned when the schema of an existing database could not
// be updated.
type UpdateError struct {
	Title      string
	DatabaseID string
	Schema     string
	Err        error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("updating database %q (%s): %v\nschema: %s", e.Title, e.DatabaseID, e.Err, e.Schema)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// MergeOptions returns desired followed by every remote option whose name is
// not desired. Remote-only options keep only their name. A desired option
// that already exists remotely takes the remote colour, since an option's
// colour cannot be changed through a schema update. Neither input is
// modified.
func MergeOptions(desired, remote []notion.Option) []notion.Option {
	remoteColor := make(map[string]string, len(remote))
	for _, o := range remote {
		remoteColor[o.Name] = o.Color
	}

	merged := make([]notion.Option, 0, len(desired)+len(remote))
	seen := make(map[string]bool, len(desired)+len(remote))
	for _, o := range desired {
		if seen[o.Name] {
			continue
		}
		seen[o.Name] = true
		if c, ok := remoteColor[o.Name]; ok {
			o.Color = c
		}
		merged = append(merged, notion.Option{Name: o.Name, Color: o.Color})
	}
	for _, o := range remote {
		if seen[o.Name] {
			continue
		}
		seen[o.Name] = true
		merged = append(merged, notion.Option{Name: o.Name})
	}
	return merged
}

// Reconciler finds or creates mirror databases below one parent page.
type Reconciler struct {
	client       Client
	parentPageID string
	logger       *slog.Logger
}

// NewReconciler returns a Reconciler. If logger is nil, slog.Default is used.
func NewReconciler(client Client, parentPageID string, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{client: client, parentPageID: parentPageID, logger: logger}
}

// Reconcile makes the database titled title match tmpl, with options giving
// the desired option list of each select property. An existing database
// keeps every option it already has. Exactly one schema write is issued.
func (r *Reconciler) Reconcile(ctx context.Context, title string, tmpl Template, options map[string][]notion.Option) (*notion.Database, error) {
	existing, err := r.find(ctx, title)
	if err != nil {
		return nil, err
	}

	final := make(map[string][]notion.Option, len(options))
	for _, name := range tmpl.Enumerable() {
		desired := options[name]
		var remote []notion.Option
		if existing != nil {
			if p, ok := existing.Properties[name]; ok && p.Select != nil {
				remote = p.Select.Options
			}
		}
		final[name] = colorize(MergeOptions(desired, remote), remote)
	}
	props := tmpl.Properties(final)

	if existing == nil {
		return r.create(ctx, title, props)
	}

	db, err := r.client.UpdateDatabase(ctx, existing.ID, notion.UpdateDatabaseRequest{Properties: props})
	if err != nil {
		return nil, &UpdateError{Title: title, DatabaseID: existing.ID, Schema: encode(props), Err: err}
	}
	r.logger.Info("database schema updated", "title", title, "database_id", db.ID)
	return db, nil
}

func (r *Reconciler) find(ctx context.Context, title string) (*notion.Database, error) {
	results, err := r.client.SearchDatabases(ctx, title)
	if err != nil {
		return nil, errors.Wrapf(err, "searching for database %q", title)
	}

	var matches []notion.Database
	for _, db := range results {
		if db.PlainTitle() == title {
			matches = append(matches, db)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > 1 {
		r.logger.Warn("several databases share the title, using the first",
			"title", title, "count", len(matches), "database_id", matches[0].ID)
	}
	return &matches[0], nil
}

func (r *Reconciler) create(ctx context.Context, title string, props map[string]notion.Property) (*notion.Database, error) {
	req := notion.CreateDatabaseRequest{
		Parent:     notion.PageParent(r.parentPageID),
		Title:      notion.NewText(title),
		Properties: props,
	}

	db, err := r.client.CreateDatabase(ctx, req)
	if err != nil {
		return nil, &CreateError{Title: title, Schema: encode(req), Err: err}
	}
	r.logger.Info("database created", "title", title, "database_id", db.ID)
	return db, nil
}

// colorize gives every colourless option a colour distinct from those used
// by remote, except options that already exist remotely without one.
func colorize(opts, remote []notion.Option) []notion.Option {
	used := make(map[string]string, len(remote))
	remoteNames := make(map[string]bool, len(remote))
	for _, o := range remote {
		used[o.Name] = o.Color
		remoteNames[o.Name] = true
	}
	for _, o := range opts {
		if o.Color != "" {
			used[o.Name] = o.Color
		}
	}

	assigner := colors.NewAssigner(used)
	out := make([]notion.Option, len(opts))
	for i, o := range opts {
		if o.Color == "" && !remoteNames[o.Name] {
			o.Color = assigner.ColorFor(o.Name)
		}
		out[i] = o
	}
	return out
}

func encode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}
