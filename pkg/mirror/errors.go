package mirror

import "fmt"

// RecordCreateError aborts a run: the record gets no row until a later run.
type RecordCreateError struct {
	ExternalID string
	Title      string
	Payload    string
	Err        error
}

func (e *RecordCreateError) Error() string {
	return fmt.Sprintf("creating row for %s (%q): %v\nproperties: %s", e.ExternalID, e.Title, e.Err, e.Payload)
}

func (e *RecordCreateError) Unwrap() error { return e.Err }

// RecordPatchError is reported in the Summary; the run continues.
type RecordPatchError struct {
	ExternalID string
	RecordID   string
	Payload    string
	Err        error
}

func (e *RecordPatchError) Error() string {
	return fmt.Sprintf("patching row %s for %s: %v\nproperties: %s", e.RecordID, e.ExternalID, e.Err, e.Payload)
}

func (e *RecordPatchError) Unwrap() error { return e.Err }
