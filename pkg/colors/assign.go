package colors

// Palette is the set of select option colours handed out to new options, in
// preference order. "default" is never assigned.
var Palette = []string{"blue", "green", "orange", "purple", "pink", "brown", "yellow", "red", "gray"}

// Assigner hands out option colours, preferring the least used one so that
// categories stay visually distinct.
type Assigner struct {
	byName map[string]string
	uses   map[string]int
}

// NewAssigner returns an Assigner aware of colours already in use, keyed by
// option name.
func NewAssigner(existing map[string]string) *Assigner {
	a := &Assigner{
		byName: make(map[string]string),
		uses:   make(map[string]int),
	}
	for name, color := range existing {
		if color == "" {
			continue
		}
		a.byName[name] = color
		a.uses[color]++
	}
	return a
}

// ColorFor returns the colour of name, assigning one if it has none yet.
func (a *Assigner) ColorFor(name string) string {
	if color, ok := a.byName[name]; ok {
		return color
	}

	color := Palette[0]
	for _, c := range Palette[1:] {
		if a.uses[c] < a.uses[color] {
			color = c
		}
	}
	a.byName[name] = color
	a.uses[color]++
	return color
}
