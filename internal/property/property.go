// Package property models the typed, bounded configuration values that
// parametrize comparators and filters.
//
// A Property is immutable. Changing a value produces a new Property through
// one of the With* methods, which clamp to the property's bounds exactly as
// the constructors do.
package property

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type is the logical type of a property value.
type Type int

const (
	Integer Type = iota
	Real
	Alternatives
	FilePath
)

func (t Type) String() string {
	switch t {
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Alternatives:
		return "alternatives"
	case FilePath:
		return "file_path"
	default:
		return "unknown"
	}
}

// Property is a named configuration value. Only the fields matching Type are
// meaningful; the rest stay at their zero values.
type Property struct {
	name        string
	description string
	typ         Type

	intValue, intMin, intMax    int
	realValue, realMin, realMax float64
	choices                     []string
	index                       int
	path                        string
}

// NewInt creates an integer property bounded by the full int range.
func NewInt(name, description string, value int) Property {
	return NewIntRange(name, description, value, math.MinInt, math.MaxInt)
}

// NewIntRange creates an integer property. An out-of-range value is clamped
// into [min, max]; swapped bounds are put back in order.
func NewIntRange(name, description string, value, min, max int) Property {
	if min > max {
		min, max = max, min
	}
	return Property{
		name:        name,
		description: description,
		typ:         Integer,
		intValue:    clampInt(value, min, max),
		intMin:      min,
		intMax:      max,
	}
}

// NewReal creates a real property bounded by the largest finite float64 range.
func NewReal(name, description string, value float64) Property {
	return NewRealRange(name, description, value, -math.MaxFloat64, math.MaxFloat64)
}

// NewRealRange creates a real property, clamping value into [min, max].
func NewRealRange(name, description string, value, min, max float64) Property {
	if min > max {
		min, max = max, min
	}
	return Property{
		name:        name,
		description: description,
		typ:         Real,
		realValue:   clampReal(value, min, max),
		realMin:     min,
		realMax:     max,
	}
}

// NewAlternatives creates a choice property. The default index is clamped into
// the choice list; an empty list always selects index 0.
func NewAlternatives(name, description string, choices []string, index int) Property {
	cp := make([]string, len(choices))
	copy(cp, choices)
	return Property{
		name:        name,
		description: description,
		typ:         Alternatives,
		choices:     cp,
		index:       clampIndex(index, len(cp)),
	}
}

// NewFilePath creates a file path property.
func NewFilePath(name, description, path string) Property {
	return Property{
		name:        name,
		description: description,
		typ:         FilePath,
		path:        path,
	}
}

func (p Property) Name() string        { return p.name }
func (p Property) Description() string { return p.description }
func (p Property) Type() Type          { return p.typ }

// Value returns the scalar value: the integer, the real, or the selected
// index for alternatives. File paths have no scalar and return 0.
func (p Property) Value() float64 {
	switch p.typ {
	case Integer:
		return float64(p.intValue)
	case Real:
		return p.realValue
	case Alternatives:
		return float64(p.index)
	default:
		return 0
	}
}

// Int returns the integer value, or 0 for other types.
func (p Property) Int() int {
	if p.typ != Integer {
		return 0
	}
	return p.intValue
}

// Real returns the real value, or 0 for other types.
func (p Property) Real() float64 {
	if p.typ != Real {
		return 0
	}
	return p.realValue
}

// Index returns the selected alternative, or 0 for other types.
func (p Property) Index() int {
	if p.typ != Alternatives {
		return 0
	}
	return p.index
}

// Selected returns the selected alternative's label.
func (p Property) Selected() string {
	if p.typ != Alternatives || len(p.choices) == 0 {
		return ""
	}
	return p.choices[p.index]
}

// Alternatives returns a copy of the choice list, nil for other types.
func (p Property) Alternatives() []string {
	if p.typ != Alternatives {
		return nil
	}
	cp := make([]string, len(p.choices))
	copy(cp, p.choices)
	return cp
}

// Path returns the file path, or "" for other types.
func (p Property) Path() string {
	if p.typ != FilePath {
		return ""
	}
	return p.path
}

// Min returns the lower bound for numeric types.
func (p Property) Min() float64 {
	switch p.typ {
	case Integer:
		return float64(p.intMin)
	case Real:
		return p.realMin
	case Alternatives:
		return 0
	default:
		return 0
	}
}

// Max returns the upper bound for numeric types.
func (p Property) Max() float64 {
	switch p.typ {
	case Integer:
		return float64(p.intMax)
	case Real:
		return p.realMax
	case Alternatives:
		if len(p.choices) == 0 {
			return 0
		}
		return float64(len(p.choices) - 1)
	default:
		return 0
	}
}

// WithInt returns a copy holding v. Non-integer properties are returned unchanged.
func (p Property) WithInt(v int) Property {
	if p.typ != Integer {
		return p
	}
	p.intValue = clampInt(v, p.intMin, p.intMax)
	return p
}

// WithReal returns a copy holding v. Non-real properties are returned unchanged.
func (p Property) WithReal(v float64) Property {
	if p.typ != Real {
		return p
	}
	p.realValue = clampReal(v, p.realMin, p.realMax)
	return p
}

// WithIndex returns a copy selecting alternative i.
func (p Property) WithIndex(i int) Property {
	if p.typ != Alternatives {
		return p
	}
	p.choices = p.Alternatives()
	p.index = clampIndex(i, len(p.choices))
	return p
}

// WithChoice selects the alternative with the given label. ok is false when
// no such alternative exists.
func (p Property) WithChoice(label string) (Property, bool) {
	if p.typ != Alternatives {
		return p, false
	}
	for i, c := range p.choices {
		if strings.EqualFold(c, label) {
			return p.WithIndex(i), true
		}
	}
	return p, false
}

// WithPath returns a copy holding path.
func (p Property) WithPath(path string) Property {
	if p.typ != FilePath {
		return p
	}
	p.path = path
	return p
}

// Parse applies textual input according to the property's type. Alternatives
// accept either a label or an index.
func (p Property) Parse(raw string) (Property, error) {
	raw = strings.TrimSpace(raw)
	switch p.typ {
	case Integer:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("property %q: %w", p.name, err)
		}
		return p.WithInt(v), nil
	case Real:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) {
			return p, fmt.Errorf("property %q: invalid real %q", p.name, raw)
		}
		return p.WithReal(v), nil
	case Alternatives:
		if np, ok := p.WithChoice(raw); ok {
			return np, nil
		}
		i, err := strconv.Atoi(raw)
		if err != nil || i < 0 || i >= len(p.choices) {
			return p, fmt.Errorf("property %q: unknown alternative %q", p.name, raw)
		}
		return p.WithIndex(i), nil
	case FilePath:
		return p.WithPath(raw), nil
	default:
		return p, fmt.Errorf("property %q: unsupported type", p.name)
	}
}

func (p Property) String() string {
	switch p.typ {
	case Integer:
		return fmt.Sprintf("%s=%d", p.name, p.intValue)
	case Real:
		return fmt.Sprintf("%s=%g", p.name, p.realValue)
	case Alternatives:
		return fmt.Sprintf("%s=%s", p.name, p.Selected())
	default:
		return fmt.Sprintf("%s=%s", p.name, p.path)
	}
}

// SameShape reports whether b lists the same property names and types as a,
// in the same order.
func SameShape(a, b []Property) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].name != b[i].name || a[i].typ != b[i].typ {
			return false
		}
	}
	return true
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampReal(v, min, max float64) float64 {
	if math.IsNaN(v) {
		return min
	}
	return math.Max(min, math.Min(max, v))
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
