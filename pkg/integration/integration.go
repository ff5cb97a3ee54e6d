// Package integration runs every upstream provider through the same
// fetch, reconcile, index and mirror pipeline, one goroutine per provider.
package integration

import (
	"context"
	"log/slog"

	"github.com/harrisonrobin/schooltasks/pkg/config"
	"github.com/harrisonrobin/schooltasks/pkg/model"
	"github.com/harrisonrobin/schooltasks/pkg/schema"
	"github.com/harrisonrobin/schooltasks/pkg/status"
)

// Integration is one upstream provider mirrored into its own database.
type Integration interface {
	// Name identifies the integration in logs and disabled-integrations.
	Name() string
	// Title is the title of the target database.
	Title() string
	Template() schema.Template
	Policy() status.Policy
	// CheckConfig validates and captures the provider's settings. It runs
	// before any network call.
	CheckConfig(store *config.Store) error
	Fetch(ctx context.Context, logger *slog.Logger) ([]model.Assignment, error)
}
