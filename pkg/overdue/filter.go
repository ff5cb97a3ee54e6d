package overdue

import (
	"sync"
	"time"

	"github.com/harrisonrobin/schooltasks/pkg/model"
)

// Clock returns the current time. Tests use a Mock.
type Clock interface {
	Now() time.Time
}

type clock struct{}

func (clock) Now() time.Time {
	return time.Now()
}

// NewClock returns the real clock.
func NewClock() Clock {
	return clock{}
}

// Mock is a settable clock.
type Mock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewMock returns a Mock stopped at now.
func NewMock(now time.Time) *Mock {
	return &Mock{now: now}
}

// SetNow moves the mock clock.
func (m *Mock) SetNow(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

func (m *Mock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// IsOverdue reports whether due has passed at now.
func IsOverdue(due, now time.Time) bool {
	return due.Before(now)
}

// CreationFilter returns the predicate deciding whether an assignment not yet
// mirrored gets a row: it must be due now or later, or already show
// submission or grading. Past-due untouched assignments are never seeded.
func CreationFilter(c Clock) func(model.Assignment) bool {
	return func(a model.Assignment) bool {
		if !IsOverdue(a.Due, c.Now()) {
			return true
		}
		return a.Submitted || a.Graded
	}
}

// Split partitions assignments into those passing CreationFilter and the rest,
// preserving order.
func Split(c Clock, assignments []model.Assignment) (upcoming, past []model.Assignment) {
	keep := CreationFilter(c)
	for _, a := range assignments {
		if keep(a) {
			upcoming = append(upcoming, a)
		} else {
			past = append(past, a)
		}
	}
	return upcoming, past
}
