package calc

import (
	"errors"
	"fmt"
	"math"

	"golook/pkg/units"
)

// Sentinel errors for transform arguments.
var (
	// ErrIndexOutOfRange indicates a row index or window outside the column bounds.
	ErrIndexOutOfRange = errors.New("calc: index outside column bounds")

	// ErrInvalidMode indicates an unrecognized zero mode.
	ErrInvalidMode = errors.New("calc: unrecognized zero mode")
)

// ZeroMode selects how Zero treats rows before the zeroing index.
type ZeroMode string

const (
	// ZeroNone shifts the whole column so the indexed row reads zero and
	// leaves earlier rows at their shifted values.
	ZeroNone ZeroMode = "none"

	// ZeroBefore additionally forces every row before the index to zero,
	// modeling "no signal before engagement".
	ZeroBefore ZeroMode = "before"
)

// frictionFloor is the magnitude below which a normal stress sample is
// treated as unloaded. See Friction.
const frictionFloor = 1e-12

// Zero shifts every sample so that the one at index becomes exactly zero.
// With ZeroBefore, rows preceding index are overwritten with zero as well.
// The column's unit is preserved.
func Zero(q units.Quantity, index int, mode ZeroMode) (units.Quantity, error) {
	if mode != ZeroNone && mode != ZeroBefore {
		return units.Quantity{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	n := q.Len()
	if index < 0 || index >= n {
		return units.Quantity{}, fmt.Errorf("%w: index %d, column length %d", ErrIndexOutOfRange, index, n)
	}

	ref := q.At(index)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = q.At(i) - ref
	}
	if mode == ZeroBefore {
		for i := 0; i < index; i++ {
			out[i] = 0
		}
	}

	return units.Wrap(out, q.Unit()), nil
}

// RemoveOffset removes a step discontinuity, such as a displacement
// transducer reset, located between rows start and end. The offset is the
// difference between the boundary samples; every row at or past end is
// shifted back by it so the tail rejoins the pre-offset trend. With
// setBetween, the rows strictly inside the window are overwritten with the
// post-shift boundary value instead of keeping the recorded transient.
//
// Applying RemoveOffset twice with the same window is a no-op the second
// time: once corrected, the boundary samples agree and the offset is zero.
func RemoveOffset(q units.Quantity, start, end int, setBetween bool) (units.Quantity, error) {
	n := q.Len()
	if start < 0 || end < 0 || start >= n || end >= n || start > end {
		return units.Quantity{}, fmt.Errorf("%w: window [%d, %d], column length %d", ErrIndexOutOfRange, start, end, n)
	}

	offset := q.At(end) - q.At(start)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = q.At(i)
	}
	for i := end; i < n; i++ {
		out[i] -= offset
	}
	if setBetween {
		boundary := out[end]
		for i := start + 1; i < end; i++ {
			out[i] = boundary
		}
	}

	return units.Wrap(out, q.Unit()), nil
}

// ElasticCorrection removes the machine-compliance contribution from a
// displacement channel. The apparent displacement is modeled as a polynomial
// in stress with unit-tagged coefficients ordered from the highest degree
// down, as in polynomial evaluation convention. Each term must convert to
// the displacement unit or the correction is dimensionally inconsistent.
//
// Missing data is not special-cased: NaN samples propagate.
func ElasticCorrection(stress, displacement units.Quantity, coeffs []units.Value) (units.Quantity, error) {
	if stress.Len() != displacement.Len() {
		return units.Quantity{}, fmt.Errorf("%w: stress %d vs displacement %d",
			units.ErrLengthMismatch, stress.Len(), displacement.Len())
	}

	n := displacement.Len()
	dispUnit := displacement.Unit()
	correction := make([]float64, n)

	degree := len(coeffs) - 1
	for j, c := range coeffs {
		power := degree - j

		// Unit of this term: coefficient unit times stress unit^power,
		// expressed in the displacement unit.
		termUnit := c.Unit
		for p := 0; p < power; p++ {
			termUnit = termUnit.Mul(stress.Unit())
		}
		conv, err := units.NewValue(1, termUnit).To(dispUnit)
		if err != nil {
			return units.Quantity{}, fmt.Errorf("elastic correction term of degree %d: %w", power, err)
		}

		for i := 0; i < n; i++ {
			correction[i] += c.V * math.Pow(stress.At(i), float64(power)) * conv.V
		}
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = displacement.At(i) - correction[i]
	}

	return units.Wrap(out, dispUnit), nil
}

// Friction computes the elementwise ratio of shear to normal stress. The
// result is dimensionless. Rows where the normal stress is zero or
// numerically negligible yield zero friction rather than an infinity or NaN,
// so unloaded samples never contaminate downstream statistics.
func Friction(shear, normal units.Quantity) (units.Quantity, error) {
	if shear.Len() != normal.Len() {
		return units.Quantity{}, fmt.Errorf("%w: shear %d vs normal %d",
			units.ErrLengthMismatch, shear.Len(), normal.Len())
	}

	// Express the normal stress in the shear unit so the ratio reduces cleanly.
	conv, err := normal.To(shear.Unit())
	if err != nil {
		return units.Quantity{}, err
	}

	n := shear.Len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		d := conv.At(i)
		if math.Abs(d) < frictionFloor {
			out[i] = 0
			continue
		}
		out[i] = shear.At(i) / d
	}

	return units.Wrap(out, units.Dimensionless), nil
}

// Cumsum returns the cumulative sum of the samples, preserving the unit.
func Cumsum(q units.Quantity) units.Quantity {
	n := q.Len()
	out := make([]float64, n)
	var sum float64
	for i := 0; i < n; i++ {
		sum += q.At(i)
		out[i] = sum
	}
	return units.Wrap(out, q.Unit())
}

// ElapsedTime converts a sample-rate channel into experiment elapsed time.
// Recordings store the time column as the instantaneous rate in Hz; elapsed
// time is the cumulative sum of the per-sample deltas.
func ElapsedTime(rate units.Quantity) (units.Quantity, error) {
	hz, err := rate.To(units.MustParse("Hz"))
	if err != nil {
		return units.Quantity{}, err
	}

	n := hz.Len()
	out := make([]float64, n)
	var elapsed float64
	for i := 0; i < n; i++ {
		elapsed += 1 / hz.At(i)
		out[i] = elapsed
	}
	return units.Wrap(out, units.MustParse("s")), nil
}
