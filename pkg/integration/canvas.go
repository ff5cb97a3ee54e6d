package integration

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/harrisonrobin/schooltasks/pkg/canvas"
	"github.com/harrisonrobin/schooltasks/pkg/config"
	"github.com/harrisonrobin/schooltasks/pkg/model"
	"github.com/harrisonrobin/schooltasks/pkg/schema"
	"github.com/harrisonrobin/schooltasks/pkg/status"
)

// Canvas mirrors the assignments of every configured Canvas instance.
type Canvas struct {
	HTTPClient *http.Client
	instances  []config.CanvasInstance
}

func (*Canvas) Name() string  { return "canvas" }
func (*Canvas) Title() string { return "School Tasks" }

func (*Canvas) Template() schema.Template {
	return schema.NewTemplate("Course", "Canvas-Assignment-ID")
}

func (*Canvas) Policy() status.Policy { return status.StrictForward{} }

func (c *Canvas) CheckConfig(store *config.Store) error {
	instances, err := store.CheckCanvas()
	if err != nil {
		return err
	}
	c.instances = instances
	return nil
}

func (c *Canvas) Fetch(ctx context.Context, logger *slog.Logger) ([]model.Assignment, error) {
	var all []model.Assignment
	for _, inst := range c.instances {
		client := canvas.NewClient(config.Str(inst.URL), config.Str(inst.Token), c.HTTPClient)
		assignments, err := client.Fetch(ctx, inst.ExcludedCourseCodes, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("fetched canvas assignments", "url", config.Str(inst.URL), "count", len(assignments))
		all = append(all, assignments...)
	}
	return all, nil
}
