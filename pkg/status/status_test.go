package status

import "testing"

func TestParseRoundTrip(t *testing.T) {
	for _, s := range []Status{NotStarted, InProgress, Submitted, Graded} {
		if got := Parse(s.String()); got != s {
			t.Errorf("Parse(%q) = %v, want %v", s.String(), got, s)
		}
	}
	if got := Parse(""); got != Unset {
		t.Errorf("Parse(\"\") = %v, want Unset", got)
	}
	if got := Parse("Blocked"); got != Unknown {
		t.Errorf("Parse(\"Blocked\") = %v, want Unknown", got)
	}
}

func TestFromEvidence(t *testing.T) {
	cases := []struct {
		submitted, graded bool
		want              Status
	}{
		{false, false, NotStarted},
		{true, false, Submitted},
		{true, true, Graded},
		{false, true, Graded},
	}
	for _, c := range cases {
		if got := FromEvidence(c.submitted, c.graded); got != c.want {
			t.Errorf("FromEvidence(%v, %v) = %v, want %v", c.submitted, c.graded, got, c.want)
		}
	}
}

func TestStrictForward(t *testing.T) {
	p := StrictForward{}
	cases := []struct {
		stored, incoming Status
		want             bool
	}{
		{Submitted, NotStarted, false},
		{NotStarted, Graded, true},
		{InProgress, NotStarted, false},
		{InProgress, Submitted, true},
		{Graded, Submitted, false},
		{Graded, Graded, false},
		{Unset, NotStarted, false},
		{Unset, Submitted, true},
		{Unknown, Graded, true},
		{Unknown, NotStarted, false},
	}
	for _, c := range cases {
		if got := p.ShouldOverwrite(c.stored, c.incoming); got != c.want {
			t.Errorf("StrictForward(%v -> %v) = %v, want %v", c.stored, c.incoming, got, c.want)
		}
	}
}

func TestComputedOrKeep(t *testing.T) {
	p := ComputedOrKeep{}
	cases := []struct {
		stored, incoming Status
		want             bool
	}{
		{Unset, NotStarted, true},
		{NotStarted, Submitted, true},
		{InProgress, NotStarted, false},
		{Submitted, Submitted, false},
		{Graded, Submitted, false},
		{Submitted, Graded, true},
		{Unknown, NotStarted, false},
		{Unknown, Submitted, true},
	}
	for _, c := range cases {
		if got := p.ShouldOverwrite(c.stored, c.incoming); got != c.want {
			t.Errorf("ComputedOrKeep(%v -> %v) = %v, want %v", c.stored, c.incoming, got, c.want)
		}
	}
}

func TestNoPolicyMovesBackwards(t *testing.T) {
	lattice := []Status{NotStarted, InProgress, Submitted, Graded}
	for _, p := range []Policy{StrictForward{}, ComputedOrKeep{}} {
		for i, stored := range lattice {
			for _, incoming := range lattice[:i] {
				if p.ShouldOverwrite(stored, incoming) {
					t.Errorf("%T moved %v back to %v", p, stored, incoming)
				}
			}
		}
	}
}
