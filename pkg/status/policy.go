package status

// Policy decides whether an incoming status may replace the stored one.
// No policy ever moves a status backwards; only a manual edit can do that.
type Policy interface {
	ShouldOverwrite(stored, incoming Status) bool
}

// StrictForward overwrites only with submission or grading evidence. A
// manual "In progress" survives, and a stale read never resets a row.
type StrictForward struct{}

func (StrictForward) ShouldOverwrite(stored, incoming Status) bool {
	if !incoming.HasEvidence() {
		return false
	}
	return stored != incoming && !incoming.Less(stored)
}

// ComputedOrKeep overwrites when the computed status is strictly ahead of
// the stored one, or nothing is stored.
type ComputedOrKeep struct{}

func (ComputedOrKeep) ShouldOverwrite(stored, incoming Status) bool {
	switch stored {
	case Unset:
		return incoming != Unset && incoming != Unknown
	case Unknown:
		return incoming.HasEvidence()
	}
	return stored.Less(incoming)
}
