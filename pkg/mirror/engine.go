// Package mirror creates and refreshes database rows from upstream
// assignments, matching them by external id.
package mirror

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/harrisonrobin/schooltasks/pkg/index"
	"github.com/harrisonrobin/schooltasks/pkg/model"
	"github.com/harrisonrobin/schooltasks/pkg/notion"
	"github.com/harrisonrobin/schooltasks/pkg/schema"
	"github.com/harrisonrobin/schooltasks/pkg/status"
	"github.com/harrisonrobin/schooltasks/pkg/util"
)

// Client is the part of the remote API the engine writes through.
type Client interface {
	CreatePage(ctx context.Context, databaseID string, props map[string]notion.PropertyValue) (*notion.Page, error)
	UpdatePage(ctx context.Context, pageID string, props map[string]notion.PropertyValue) (*notion.Page, error)
}

// Config selects the target database and the per-integration rules.
type Config struct {
	DatabaseID string
	Template   schema.Template
	// Creatable decides whether an assignment without a row gets one.
	Creatable func(model.Assignment) bool
	Policy    status.Policy
}

// Summary counts what a run did.
type Summary struct {
	Created     int
	Patched     int
	Skipped     int
	PatchErrors []*RecordPatchError
}

// Failed returns the number of rows that could not be patched.
func (s Summary) Failed() int {
	return len(s.PatchErrors)
}

// Engine mirrors one batch of assignments into one database.
type Engine struct {
	client Client
	cfg    Config
	logger *slog.Logger
}

// NewEngine returns an Engine. If logger is nil, slog.Default is used.
func NewEngine(client Client, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Creatable == nil {
		cfg.Creatable = func(model.Assignment) bool { return true }
	}
	if cfg.Policy == nil {
		cfg.Policy = status.StrictForward{}
	}
	return &Engine{client: client, cfg: cfg, logger: logger}
}

type pending struct {
	assignment model.Assignment
	row        notion.Page
}

// Run creates rows for new creatable assignments, then refreshes the due
// date, link and status of assignments that already had a row. A failed
// create stops the run; a failed patch is recorded and the run goes on. Rows
// without an assignment in the batch are left alone.
func (e *Engine) Run(ctx context.Context, assignments []model.Assignment, idx *index.RecordIndex) (Summary, error) {
	var (
		summary  Summary
		toCreate []model.Assignment
		toPatch  []pending
	)

	for _, a := range assignments {
		if row, ok := idx.Get(a.ExternalID); ok {
			toPatch = append(toPatch, pending{assignment: a, row: row})
			continue
		}
		if e.cfg.Creatable(a) {
			toCreate = append(toCreate, a)
			continue
		}
		summary.Skipped++
	}

	for _, a := range toCreate {
		if _, ok := idx.Get(a.ExternalID); ok {
			e.logger.Warn("external id appears twice in batch, creating once", "external_id", a.ExternalID)
			summary.Skipped++
			continue
		}

		row, err := e.create(ctx, a)
		if err != nil {
			return summary, err
		}
		idx.Set(a.ExternalID, *row)
		summary.Created++
	}

	for _, p := range toPatch {
		if err := e.patch(ctx, p.assignment, p.row); err != nil {
			e.logger.Error("patch failed, continuing", "external_id", p.assignment.ExternalID,
				"row", p.row.ID, "error", err)
			summary.PatchErrors = append(summary.PatchErrors, err)
			continue
		}
		summary.Patched++
	}

	e.logger.Info("sync complete", "database_id", e.cfg.DatabaseID,
		"created", summary.Created, "patched", summary.Patched,
		"skipped", summary.Skipped, "failed", summary.Failed())
	return summary, nil
}

func (e *Engine) create(ctx context.Context, a model.Assignment) (*notion.Page, error) {
	props := e.CreateProperties(a)

	row, err := e.client.CreatePage(ctx, e.cfg.DatabaseID, props)
	if err != nil {
		return nil, &RecordCreateError{
			ExternalID: a.ExternalID,
			Title:      a.Title,
			Payload:    encode(props),
			Err:        err,
		}
	}
	e.logger.Debug("row created", "external_id", a.ExternalID, "row", row.ID)
	return row, nil
}

func (e *Engine) patch(ctx context.Context, a model.Assignment, row notion.Page) *RecordPatchError {
	props := e.PatchProperties(a, row)

	if _, err := e.client.UpdatePage(ctx, row.ID, props); err != nil {
		return &RecordPatchError{
			ExternalID: a.ExternalID,
			RecordID:   row.ID,
			Payload:    encode(props),
			Err:        err,
		}
	}
	return nil
}

// CreateProperties returns the property values of a new row for a.
func (e *Engine) CreateProperties(a model.Assignment) map[string]notion.PropertyValue {
	tmpl := e.cfg.Template
	props := map[string]notion.PropertyValue{
		schema.PropName:        {Title: notion.NewText(a.Title)},
		schema.PropDescription: {RichText: notion.NewText(util.NormalizeDescription(a.Description))},
		schema.PropDue:         dueValue(a),
		schema.PropStatus:      {Select: &notion.Option{Name: a.Status().String()}},
		tmpl.ExternalID:        {RichText: notion.NewText(a.ExternalID)},
	}
	if a.Category != "" {
		props[tmpl.Category] = notion.PropertyValue{Select: &notion.Option{Name: a.Category}}
	}
	if a.Link != "" {
		props[schema.PropLink] = linkValue(a)
	}
	return props
}

// PatchProperties returns the values refreshed on row: due date and link
// always, status only when the policy allows it.
func (e *Engine) PatchProperties(a model.Assignment, row notion.Page) map[string]notion.PropertyValue {
	props := map[string]notion.PropertyValue{
		schema.PropDue: dueValue(a),
	}
	if a.Link != "" {
		props[schema.PropLink] = linkValue(a)
	}

	stored := status.Parse(row.SelectName(schema.PropStatus))
	if incoming := a.Status(); e.cfg.Policy.ShouldOverwrite(stored, incoming) {
		props[schema.PropStatus] = notion.PropertyValue{Select: &notion.Option{Name: incoming.String()}}
	}
	return props
}

func dueValue(a model.Assignment) notion.PropertyValue {
	return notion.PropertyValue{Date: &notion.DateValue{Start: util.FormatDue(a.Due)}}
}

func linkValue(a model.Assignment) notion.PropertyValue {
	link := a.Link
	return notion.PropertyValue{URL: &link}
}

func encode(props map[string]notion.PropertyValue) string {
	b, err := json.MarshalIndent(props, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(b)
}
