// Package status orders completion states and decides when an automatic sync
// may replace a stored state.
package status

// Status is a completion state. The lattice order is
// NotStarted < InProgress < Submitted < Graded.
type Status int

const (
	// Unset means the row has no status value.
	Unset Status = iota
	NotStarted
	InProgress
	Submitted
	Graded
	// Unknown is a stored option outside the lattice, e.g. added by hand.
	Unknown
)

var names = map[Status]string{
	NotStarted: "Not started",
	InProgress: "In progress",
	Submitted:  "Submitted",
	Graded:     "Graded",
}

// Option is a status option name with its display colour.
type Option struct {
	Name  string
	Color string
}

// Options returns the lattice states in order, as they appear in the schema.
func Options() []Option {
	return []Option{
		{Name: names[NotStarted], Color: "red"},
		{Name: names[InProgress], Color: "yellow"},
		{Name: names[Submitted], Color: "blue"},
		{Name: names[Graded], Color: "green"},
	}
}

func (s Status) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	if s == Unset {
		return ""
	}
	return "unknown"
}

// Parse maps a stored option name to a Status. Empty is Unset; names outside
// the lattice are Unknown.
func Parse(name string) Status {
	if name == "" {
		return Unset
	}
	for s, n := range names {
		if n == name {
			return s
		}
	}
	return Unknown
}

// FromEvidence computes a status from upstream evidence. Grading takes
// precedence over submission, which takes precedence over nothing.
func FromEvidence(submitted, graded bool) Status {
	switch {
	case graded:
		return Graded
	case submitted:
		return Submitted
	default:
		return NotStarted
	}
}

// HasEvidence reports whether s can only have come from upstream evidence.
func (s Status) HasEvidence() bool {
	return s == Submitted || s == Graded
}

// Less reports whether s is strictly behind other in the lattice. Unset and
// Unknown are not ordered against anything.
func (s Status) Less(other Status) bool {
	if s < NotStarted || s > Graded || other < NotStarted || other > Graded {
		return false
	}
	return s < other
}
