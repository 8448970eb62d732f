package units

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors for unit operations.
var (
	// ErrUnknownUnit indicates a unit expression referenced an unregistered symbol.
	ErrUnknownUnit = errors.New("units: unknown unit symbol")

	// ErrUnitMismatch indicates an operation between dimensionally incompatible units.
	ErrUnitMismatch = errors.New("units: incompatible unit dimensions")

	// ErrLengthMismatch indicates an elementwise operation between quantities
	// of different sample counts.
	ErrLengthMismatch = errors.New("units: quantity lengths differ")
)

// Dimension is the exponent vector of a unit over the base dimensions used
// in lab recordings: length, mass, time and raw sensor counts.
type Dimension struct {
	Length int8
	Mass   int8
	Time   int8
	Count  int8
}

// IsDimensionless reports whether all exponents are zero.
func (d Dimension) IsDimensionless() bool {
	return d == Dimension{}
}

func (d Dimension) add(o Dimension) Dimension {
	return Dimension{
		Length: d.Length + o.Length,
		Mass:   d.Mass + o.Mass,
		Time:   d.Time + o.Time,
		Count:  d.Count + o.Count,
	}
}

func (d Dimension) sub(o Dimension) Dimension {
	return Dimension{
		Length: d.Length - o.Length,
		Mass:   d.Mass - o.Mass,
		Time:   d.Time - o.Time,
		Count:  d.Count - o.Count,
	}
}

func (d Dimension) scaleExp(n int8) Dimension {
	return Dimension{
		Length: d.Length * n,
		Mass:   d.Mass * n,
		Time:   d.Time * n,
		Count:  d.Count * n,
	}
}

// Unit is a physical unit: a dimension vector plus a scale factor relative
// to the coherent base units (m, kg, s, bit). Units are immutable values.
type Unit struct {
	dim   Dimension
	scale float64
	label string
}

// Registered simple units. Scales are relative to m, kg, s, bit.
var registry = map[string]Unit{
	"dimensionless": {Dimension{}, 1, "dimensionless"},
	"bit":           {Dimension{Count: 1}, 1, "bit"},

	"s":  {Dimension{Time: 1}, 1, "s"},
	"Hz": {Dimension{Time: -1}, 1, "Hz"},

	"m":      {Dimension{Length: 1}, 1, "m"},
	"km":     {Dimension{Length: 1}, 1e3, "km"},
	"cm":     {Dimension{Length: 1}, 1e-2, "cm"},
	"mm":     {Dimension{Length: 1}, 1e-3, "mm"},
	"micron": {Dimension{Length: 1}, 1e-6, "micron"},
	"um":     {Dimension{Length: 1}, 1e-6, "micron"},

	"kg": {Dimension{Mass: 1}, 1, "kg"},
	"g":  {Dimension{Mass: 1}, 1e-3, "g"},

	"N":  {Dimension{Length: 1, Mass: 1, Time: -2}, 1, "N"},
	"kN": {Dimension{Length: 1, Mass: 1, Time: -2}, 1e3, "kN"},

	"Pa":  {Dimension{Length: -1, Mass: 1, Time: -2}, 1, "Pa"},
	"kPa": {Dimension{Length: -1, Mass: 1, Time: -2}, 1e3, "kPa"},
	"MPa": {Dimension{Length: -1, Mass: 1, Time: -2}, 1e6, "MPa"},
	"GPa": {Dimension{Length: -1, Mass: 1, Time: -2}, 1e9, "GPa"},
}

// Dimensionless is the unit of pure numbers and friction coefficients.
var Dimensionless = registry["dimensionless"]

// Bit is the unit of uncalibrated sensor counts, as stored in raw recordings.
var Bit = registry["bit"]

// Parse resolves a unit expression such as "MPa", "kN/micron", "cm^2" or
// "micron / MPa". Terms are combined left to right with '*' and '/'.
func Parse(expr string) (Unit, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return Dimensionless, nil
	}

	u := Unit{dim: Dimension{}, scale: 1}
	op := byte('*')
	var labels []string
	for len(s) > 0 {
		// next term runs to the next operator
		end := strings.IndexAny(s, "*/")
		var term string
		if end < 0 {
			term = s
			s = ""
		} else {
			term = s[:end]
		}

		t, err := parseTerm(strings.TrimSpace(term))
		if err != nil {
			return Unit{}, err
		}
		switch op {
		case '*':
			u.dim = u.dim.add(t.dim)
			u.scale *= t.scale
			labels = append(labels, t.label)
		case '/':
			u.dim = u.dim.sub(t.dim)
			u.scale /= t.scale
			labels = append(labels, "/"+t.label)
		}

		if end >= 0 {
			op = s[end]
			s = strings.TrimSpace(s[end+1:])
			if s == "" {
				return Unit{}, fmt.Errorf("%w: trailing operator in %q", ErrUnknownUnit, expr)
			}
		}
	}

	u.label = canonicalLabel(labels, u)
	return u, nil
}

// MustParse is Parse for expressions known to be valid; it panics otherwise.
// Intended for constants and tests.
func MustParse(expr string) Unit {
	u, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return u
}

// parseTerm resolves a single symbol with an optional integer exponent (cm^2).
func parseTerm(term string) (Unit, error) {
	sym := term
	exp := int8(1)
	if i := strings.Index(term, "^"); i >= 0 {
		sym = strings.TrimSpace(term[:i])
		n, err := strconv.Atoi(strings.TrimSpace(term[i+1:]))
		if err != nil || n == 0 || n > 4 || n < -4 {
			return Unit{}, fmt.Errorf("%w: bad exponent in %q", ErrUnknownUnit, term)
		}
		exp = int8(n)
	}

	base, ok := registry[sym]
	if !ok {
		return Unit{}, fmt.Errorf("%w: %q", ErrUnknownUnit, sym)
	}
	u := Unit{dim: base.dim.scaleExp(exp), scale: 1, label: base.label}
	scale := base.scale
	if exp < 0 {
		scale = 1 / scale
		exp = -exp
	}
	for i := int8(0); i < exp; i++ {
		u.scale *= scale
	}
	if exp > 1 {
		u.label = fmt.Sprintf("%s^%d", base.label, exp)
	}
	return u, nil
}

// canonicalLabel prefers a registered symbol when the combined unit reduces
// to one (micron/bit * bit -> micron); otherwise it keeps the written form.
func canonicalLabel(labels []string, u Unit) string {
	for _, reg := range registry {
		if reg.dim == u.dim && nearlyEqual(reg.scale, u.scale) {
			return reg.label
		}
	}
	out := strings.Join(labels, " ")
	return strings.ReplaceAll(out, " /", " / ")
}

// nearlyEqual compares scale factors with a relative tolerance, since
// chained multiplication accumulates rounding.
func nearlyEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	ref := a
	if ref < 0 {
		ref = -ref
	}
	if ref < 1 {
		ref = 1
	}
	return diff <= 1e-12*ref
}

// Dim returns the unit's dimension vector.
func (u Unit) Dim() Dimension { return u.dim }

// Compatible reports whether q can be converted to o (same dimensions).
func (u Unit) Compatible(o Unit) bool { return u.dim == o.dim }

// String returns the display label, e.g. "MPa" or "micron / MPa".
func (u Unit) String() string {
	if u.label == "" {
		return "dimensionless"
	}
	return u.label
}

// Mul returns the product unit.
func (u Unit) Mul(o Unit) Unit {
	p := Unit{dim: u.dim.add(o.dim), scale: u.scale * o.scale}
	p.label = canonicalLabel([]string{u.String(), o.String()}, p)
	return p
}

// Div returns the quotient unit.
func (u Unit) Div(o Unit) Unit {
	q := Unit{dim: u.dim.sub(o.dim), scale: u.scale / o.scale}
	q.label = canonicalLabel([]string{u.String(), "/" + o.String()}, q)
	return q
}

// factorTo returns the multiplier converting a magnitude in u to one in o.
func (u Unit) factorTo(o Unit) (float64, error) {
	if u.dim != o.dim {
		return 0, fmt.Errorf("%w: cannot convert %s to %s", ErrUnitMismatch, u, o)
	}
	return u.scale / o.scale, nil
}
