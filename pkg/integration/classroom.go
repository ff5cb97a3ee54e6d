package integration

import (
	"context"
	"log/slog"

	"github.com/harrisonrobin/schooltasks/pkg/auth"
	"github.com/harrisonrobin/schooltasks/pkg/config"
	"github.com/harrisonrobin/schooltasks/pkg/google"
	"github.com/harrisonrobin/schooltasks/pkg/model"
	"github.com/harrisonrobin/schooltasks/pkg/schema"
	"github.com/harrisonrobin/schooltasks/pkg/status"
)

// Classroom mirrors the caller's Google Classroom coursework.
type Classroom struct {
	files auth.Files
}

func (*Classroom) Name() string  { return "classroom" }
func (*Classroom) Title() string { return "Classroom Tasks" }

func (*Classroom) Template() schema.Template {
	return schema.NewTemplate("Course", "Classroom-CourseWork-ID")
}

func (*Classroom) Policy() status.Policy { return status.ComputedOrKeep{} }

func (c *Classroom) CheckConfig(store *config.Store) error {
	files, err := ClassroomFiles(store)
	if err != nil {
		return err
	}
	c.files = files
	return nil
}

func (c *Classroom) Fetch(ctx context.Context, logger *slog.Logger) ([]model.Assignment, error) {
	client, err := google.NewClient(ctx, c.files)
	if err != nil {
		return nil, err
	}
	assignments, err := client.Assignments(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("fetched classroom coursework", "count", len(assignments))
	return assignments, nil
}

// ClassroomFiles returns the OAuth files configured for Classroom.
func ClassroomFiles(store *config.Store) (auth.Files, error) {
	c, err := store.CheckClassroom()
	if err != nil {
		return auth.Files{}, err
	}
	return auth.Files{
		ClientSecrets: config.Str(c.ClientSecretFile),
		Token:         config.Str(c.TokenFile),
	}, nil
}

// All returns every known integration.
func All() []Integration {
	return []Integration{&Canvas{}, &Classroom{}}
}
