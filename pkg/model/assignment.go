package model

import (
	"time"

	"github.com/harrisonrobin/schooltasks/pkg/status"
)

// Assignment is one task observed upstream during a sync run.
type Assignment struct {
	ExternalID  string // stable within one target database
	Title       string
	Due         time.Time
	Description string // HTML or plain text
	Category    string // course name
	Link        string
	Submitted   bool
	Graded      bool
	Source      string // "canvas" or "classroom"
}

// Status is the completion state the upstream evidence supports.
func (a Assignment) Status() status.Status {
	return status.FromEvidence(a.Submitted, a.Graded)
}
