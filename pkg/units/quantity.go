package units

import "fmt"

// Value is a single unit-tagged number: a calibration constant, a stiffness
// coefficient, a thickness offset.
type Value struct {
	V    float64
	Unit Unit
}

// NewValue builds a scalar value in the given unit.
func NewValue(v float64, u Unit) Value {
	return Value{V: v, Unit: u}
}

// Mul returns the product of two scalar values.
func (v Value) Mul(o Value) Value {
	return Value{V: v.V * o.V, Unit: v.Unit.Mul(o.Unit)}
}

// Div returns the quotient of two scalar values.
func (v Value) Div(o Value) Value {
	return Value{V: v.V / o.V, Unit: v.Unit.Div(o.Unit)}
}

// To converts the value to a compatible unit.
func (v Value) To(u Unit) (Value, error) {
	f, err := v.Unit.factorTo(u)
	if err != nil {
		return Value{}, err
	}
	return Value{V: v.V * f, Unit: u}, nil
}

// String renders the value with its unit label.
func (v Value) String() string {
	return fmt.Sprintf("%g %s", v.V, v.Unit)
}

// Quantity is a unit-tagged sample array: one experiment channel. The zero
// value is an empty dimensionless quantity. Quantities own their storage;
// the transforms in pkg/calc return new quantities rather than mutating.
type Quantity struct {
	data []float64
	unit Unit
}

// New builds a quantity from samples and a unit. The slice is copied so the
// quantity cannot be mutated through the caller's reference.
func New(data []float64, u Unit) Quantity {
	d := make([]float64, len(data))
	copy(d, data)
	return Quantity{data: d, unit: u}
}

// Wrap builds a quantity that takes ownership of the slice without copying.
// The caller must not use the slice afterwards. Transform implementations
// use this for result buffers they already own.
func Wrap(data []float64, u Unit) Quantity {
	return Quantity{data: data, unit: u}
}

func adopt(data []float64, u Unit) Quantity {
	return Quantity{data: data, unit: u}
}

// Len returns the number of samples.
func (q Quantity) Len() int { return len(q.data) }

// Unit returns the attached unit.
func (q Quantity) Unit() Unit { return q.unit }

// At returns the sample at row i. The caller is responsible for bounds.
func (q Quantity) At(i int) float64 { return q.data[i] }

// Magnitude returns a copy of the raw samples with units dropped. This is
// the explicit escape hatch for plotting and export layers.
func (q Quantity) Magnitude() []float64 {
	out := make([]float64, len(q.data))
	copy(out, q.data)
	return out
}

// To converts every sample to a compatible unit.
func (q Quantity) To(u Unit) (Quantity, error) {
	f, err := q.unit.factorTo(u)
	if err != nil {
		return Quantity{}, err
	}
	out := make([]float64, len(q.data))
	for i, v := range q.data {
		out[i] = v * f
	}
	return adopt(out, u), nil
}

// MulValue scales every sample by a unit-tagged constant. This is how
// calibrations are applied: bits times MPa/bit yields MPa.
func (q Quantity) MulValue(v Value) Quantity {
	out := make([]float64, len(q.data))
	for i, s := range q.data {
		out[i] = s * v.V
	}
	return adopt(out, q.unit.Mul(v.Unit))
}

// MulScalar scales every sample by a dimensionless factor.
func (q Quantity) MulScalar(f float64) Quantity {
	out := make([]float64, len(q.data))
	for i, s := range q.data {
		out[i] = s * f
	}
	return adopt(out, q.unit)
}

// AddValue adds a unit-tagged constant to every sample, converting the
// constant to the quantity's unit first.
func (q Quantity) AddValue(v Value) (Quantity, error) {
	c, err := v.To(q.unit)
	if err != nil {
		return Quantity{}, err
	}
	out := make([]float64, len(q.data))
	for i, s := range q.data {
		out[i] = s + c.V
	}
	return adopt(out, q.unit), nil
}

// Add returns the elementwise sum, converting o to q's unit.
func (q Quantity) Add(o Quantity) (Quantity, error) {
	return q.combine(o, func(a, b float64) float64 { return a + b })
}

// Sub returns the elementwise difference, converting o to q's unit.
func (q Quantity) Sub(o Quantity) (Quantity, error) {
	return q.combine(o, func(a, b float64) float64 { return a - b })
}

func (q Quantity) combine(o Quantity, f func(a, b float64) float64) (Quantity, error) {
	if len(q.data) != len(o.data) {
		return Quantity{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(q.data), len(o.data))
	}
	conv, err := o.unit.factorTo(q.unit)
	if err != nil {
		return Quantity{}, err
	}
	out := make([]float64, len(q.data))
	for i := range q.data {
		out[i] = f(q.data[i], o.data[i]*conv)
	}
	return adopt(out, q.unit), nil
}
