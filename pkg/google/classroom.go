// Package google reads courses, coursework and the caller's submissions from
// Google Classroom.
package google

import (
	"context"
	"time"

	"github.com/harrisonrobin/schooltasks/pkg/auth"
	"github.com/harrisonrobin/schooltasks/pkg/model"
	"github.com/harrisonrobin/schooltasks/pkg/pagination"
	"github.com/harrisonrobin/schooltasks/pkg/upstream"
	"github.com/pkg/errors"
	"google.golang.org/api/classroom/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Source tags assignments read from Classroom.
const Source = "classroom"

// Submission states that count as evidence.
const (
	StateTurnedIn = "TURNED_IN"
	StateReturned = "RETURNED"
)

// ClassroomClient is a Google Classroom API client acting as the student.
type ClassroomClient struct {
	srv *classroom.Service
}

// NewClient authorizes with the cached token (running the browser flow when
// there is none) and returns a client.
func NewClient(ctx context.Context, files auth.Files) (*ClassroomClient, error) {
	hc, err := auth.GetClient(ctx, files, auth.ClassroomScopes)
	if err != nil {
		return nil, err
	}
	return NewClassroomClient(ctx, option.WithHTTPClient(hc))
}

// NewClassroomClient returns a client over a service built with opts.
func NewClassroomClient(ctx context.Context, opts ...option.ClientOption) (*ClassroomClient, error) {
	srv, err := classroom.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating Classroom service")
	}
	return &ClassroomClient{srv: srv}, nil
}

// Courses lists the caller's active courses.
func (c *ClassroomClient) Courses(ctx context.Context) ([]*classroom.Course, error) {
	courses, err := pagination.FetchAll(ctx, func(ctx context.Context, token string) ([]*classroom.Course, string, error) {
		res, err := c.srv.Courses.List().
			StudentId("me").
			CourseStates("ACTIVE").
			PageToken(token).
			Context(ctx).
			Do()
		if err != nil {
			return nil, "", apiError(err)
		}
		return res.Courses, res.NextPageToken, nil
	})
	return courses, errors.Wrap(err, "listing courses")
}

// CourseWork lists the published coursework of a course.
func (c *ClassroomClient) CourseWork(ctx context.Context, courseID string) ([]*classroom.CourseWork, error) {
	work, err := pagination.FetchAll(ctx, func(ctx context.Context, token string) ([]*classroom.CourseWork, string, error) {
		res, err := c.srv.Courses.CourseWork.List(courseID).
			CourseWorkStates("PUBLISHED").
			PageToken(token).
			Context(ctx).
			Do()
		if err != nil {
			return nil, "", apiError(err)
		}
		return res.CourseWork, res.NextPageToken, nil
	})
	return work, errors.Wrapf(err, "listing coursework of %s", courseID)
}

// Submissions lists the caller's submissions for every coursework of a
// course.
func (c *ClassroomClient) Submissions(ctx context.Context, courseID string) ([]*classroom.StudentSubmission, error) {
	subs, err := pagination.FetchAll(ctx, func(ctx context.Context, token string) ([]*classroom.StudentSubmission, string, error) {
		res, err := c.srv.Courses.CourseWork.StudentSubmissions.List(courseID, "-").
			UserId("me").
			PageToken(token).
			Context(ctx).
			Do()
		if err != nil {
			return nil, "", apiError(err)
		}
		return res.StudentSubmissions, res.NextPageToken, nil
	})
	return subs, errors.Wrapf(err, "listing submissions of %s", courseID)
}

// Assignments reads every dated coursework of every active course.
func (c *ClassroomClient) Assignments(ctx context.Context) ([]model.Assignment, error) {
	courses, err := c.Courses(ctx)
	if err != nil {
		return nil, err
	}

	var out []model.Assignment
	for _, course := range courses {
		work, err := c.CourseWork(ctx, course.Id)
		if err != nil {
			return nil, err
		}
		if len(work) == 0 {
			continue
		}
		subs, err := c.Submissions(ctx, course.Id)
		if err != nil {
			return nil, err
		}

		byWork := make(map[string]*classroom.StudentSubmission, len(subs))
		for _, s := range subs {
			byWork[s.CourseWorkId] = s
		}
		for _, w := range work {
			if a, ok := ToAssignment(course, w, byWork[w.Id]); ok {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

// ToAssignment converts coursework with the caller's submission. Coursework
// without a due date is dropped.
func ToAssignment(course *classroom.Course, w *classroom.CourseWork, sub *classroom.StudentSubmission) (model.Assignment, bool) {
	due, ok := DueTime(w)
	if !ok {
		return model.Assignment{}, false
	}

	a := model.Assignment{
		ExternalID:  w.Id,
		Title:       w.Title,
		Due:         due,
		Description: w.Description,
		Category:    course.Name,
		Link:        w.AlternateLink,
		Source:      Source,
	}
	if sub != nil {
		a.Graded = sub.State == StateReturned
		a.Submitted = a.Graded || sub.State == StateTurnedIn
	}
	return a, true
}

// DueTime returns the due instant in UTC. A missing time of day is midnight.
func DueTime(w *classroom.CourseWork) (time.Time, bool) {
	d := w.DueDate
	if d == nil || d.Year == 0 || d.Month == 0 || d.Day == 0 {
		return time.Time{}, false
	}
	var h, m, s int64
	if t := w.DueTime; t != nil {
		h, m, s = t.Hours, t.Minutes, t.Seconds
	}
	return time.Date(int(d.Year), time.Month(d.Month), int(d.Day), int(h), int(m), int(s), 0, time.UTC), true
}

// apiError turns a Google API error into a *upstream.RequestError.
func apiError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	body := gerr.Body
	if body == "" {
		body = gerr.Message
	}
	return &upstream.RequestError{StatusCode: gerr.Code, Body: body, Method: "GET"}
}
