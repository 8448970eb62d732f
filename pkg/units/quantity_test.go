package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCopiesInput(t *testing.T) {
	raw := []float64{1, 2, 3}
	q := New(raw, Bit)
	raw[0] = 99
	assert.Equal(t, 1.0, q.At(0))
}

func TestMagnitudeIsACopy(t *testing.T) {
	q := New([]float64{1, 2}, MustParse("MPa"))
	m := q.Magnitude()
	m[0] = 42
	assert.Equal(t, 1.0, q.At(0))
}

func TestCalibrationByValue(t *testing.T) {
	// Raw load channel in bits times an MPa/bit calibration constant.
	raw := New([]float64{1000, 2000}, Bit)
	cal := NewValue(1.5e-3, MustParse("MPa / bit"))

	stress := raw.MulValue(cal)
	assert.Equal(t, "MPa", stress.Unit().String())
	assert.InDelta(t, 1.5, stress.At(0), 1e-9)
	assert.InDelta(t, 3.0, stress.At(1), 1e-9)
}

func TestToConversion(t *testing.T) {
	disp := New([]float64{1, 2.5}, MustParse("mm"))
	inMicron, err := disp.To(MustParse("micron"))
	require.NoError(t, err)
	assert.InDelta(t, 1000, inMicron.At(0), 1e-9)
	assert.InDelta(t, 2500, inMicron.At(1), 1e-9)

	_, err = disp.To(MustParse("MPa"))
	assert.ErrorIs(t, err, ErrUnitMismatch)
}

func TestAddValueConvertsConstant(t *testing.T) {
	// Layer thickness bookkeeping: microns plus a 4 mm offset.
	disp := New([]float64{0, 10}, MustParse("micron"))
	shifted, err := disp.AddValue(NewValue(4, MustParse("mm")))
	require.NoError(t, err)
	assert.InDelta(t, 4000, shifted.At(0), 1e-9)
	assert.InDelta(t, 4010, shifted.At(1), 1e-9)

	_, err = disp.AddValue(NewValue(1, MustParse("MPa")))
	assert.ErrorIs(t, err, ErrUnitMismatch)
}

func TestElementwiseAddSub(t *testing.T) {
	a := New([]float64{1, 2}, MustParse("mm"))
	b := New([]float64{500, 500}, MustParse("micron"))

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "mm", sum.Unit().String())
	assert.InDelta(t, 1.5, sum.At(0), 1e-9)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, diff.At(0), 1e-9)

	_, err = a.Add(New([]float64{1}, MustParse("mm")))
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = a.Add(New([]float64{1, 1}, MustParse("s")))
	assert.ErrorIs(t, err, ErrUnitMismatch)
}

func TestValueArithmetic(t *testing.T) {
	// The stiffness calculation from a biaxial reduction: sample area over
	// machine stiffness, displayed as micron/MPa.
	stiffness := NewValue(0.37, MustParse("kN/micron"))
	area := NewValue(25, MustParse("cm^2"))

	compliance := area.Div(stiffness)
	inMicronPerMPa, err := compliance.To(MustParse("micron / MPa"))
	require.NoError(t, err)
	assert.InDelta(t, 25e-4/0.37e9*1e12, inMicronPerMPa.V, 1e-9)
}

func TestMulScalar(t *testing.T) {
	q := New([]float64{2, -4}, MustParse("micron"))
	half := q.MulScalar(-0.5)
	assert.Equal(t, "micron", half.Unit().String())
	assert.InDelta(t, -1, half.At(0), 1e-12)
	assert.InDelta(t, 2, half.At(1), 1e-12)
}
