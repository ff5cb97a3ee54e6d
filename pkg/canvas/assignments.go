package canvas

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/harrisonrobin/schooltasks/pkg/model"
)

// Source tags assignments read from Canvas.
const Source = "canvas"

type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Course struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CourseCode string `json:"course_code"`
}

type Submission struct {
	WorkflowState string `json:"workflow_state"`
}

type Assignment struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	DueAt       *time.Time  `json:"due_at"`
	HTMLURL     string      `json:"html_url"`
	Submission  *Submission `json:"submission"`
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Fetch reads every dated assignment of every course not excluded by code.
// Courses without a name are access restricted and skipped.
func (c *Client) Fetch(ctx context.Context, excluded []string, logger *slog.Logger) ([]model.Assignment, error) {
	if logger == nil {
		logger = slog.Default()
	}

	user, err := c.Self(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("canvas user", "id", user.ID, "url", c.baseURL)

	courses, err := c.Courses(ctx)
	if err != nil {
		return nil, err
	}

	skip := make(map[string]bool, len(excluded))
	for _, code := range excluded {
		skip[code] = true
	}

	var out []model.Assignment
	for _, course := range courses {
		if course.Name == "" || skip[course.CourseCode] {
			logger.Debug("skipping course", "id", course.ID, "code", course.CourseCode)
			continue
		}
		assignments, err := c.Assignments(ctx, course.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range assignments {
			if m, ok := ToAssignment(course, a); ok {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// ToAssignment converts a Canvas assignment. Assignments without a due date
// are dropped.
func ToAssignment(course Course, a Assignment) (model.Assignment, bool) {
	if a.DueAt == nil {
		return model.Assignment{}, false
	}

	m := model.Assignment{
		ExternalID:  formatID(a.ID),
		Title:       a.Name,
		Due:         a.DueAt.UTC(),
		Description: a.Description,
		Category:    course.Name,
		Link:        a.HTMLURL,
		Source:      Source,
	}
	if s := a.Submission; s != nil {
		m.Graded = s.WorkflowState == "graded"
		m.Submitted = m.Graded || s.WorkflowState == "submitted"
	}
	return m, true
}
