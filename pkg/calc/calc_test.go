package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golook/pkg/units"
)

var mpa = units.MustParse("MPa")

func quantity(t *testing.T, data []float64, unit string) units.Quantity {
	t.Helper()
	return units.New(data, units.MustParse(unit))
}

func TestZeroBefore(t *testing.T) {
	col := quantity(t, []float64{5, 5, 5, 8, 8}, "MPa")

	out, err := Zero(col, 2, ZeroBefore)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 3, 3}, out.Magnitude())
	assert.Equal(t, "MPa", out.Unit().String())

	// Input untouched.
	assert.Equal(t, []float64{5, 5, 5, 8, 8}, col.Magnitude())
}

func TestZeroNoneKeepsShiftedPrefix(t *testing.T) {
	col := quantity(t, []float64{1, 2, 5, 7}, "micron")

	out, err := Zero(col, 2, ZeroNone)
	require.NoError(t, err)
	assert.Equal(t, []float64{-4, -3, 0, 2}, out.Magnitude())
}

func TestZeroIndexedRowIsExactlyZero(t *testing.T) {
	col := quantity(t, []float64{0.1, 0.2, 0.30000000004, 0.7}, "MPa")
	for _, mode := range []ZeroMode{ZeroNone, ZeroBefore} {
		out, err := Zero(col, 2, mode)
		require.NoError(t, err)
		assert.Zero(t, out.At(2))
	}
}

func TestZeroErrors(t *testing.T) {
	col := quantity(t, []float64{1, 2, 3}, "MPa")

	_, err := Zero(col, -1, ZeroBefore)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = Zero(col, 3, ZeroBefore)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = Zero(col, 1, ZeroMode("after"))
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestRemoveOffsetWorkedExample(t *testing.T) {
	// Offset of +1 between rows 1 and 4 with the transient masked.
	col := quantity(t, []float64{1, 1, 9, 9, 2, 2}, "micron")

	out, err := RemoveOffset(col, 1, 4, true)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1}, out.Magnitude())
}

func TestRemoveOffsetKeepsTransientWithoutSetBetween(t *testing.T) {
	col := quantity(t, []float64{1, 1, 9, 9, 2, 2}, "micron")

	out, err := RemoveOffset(col, 1, 4, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 9, 9, 1, 1}, out.Magnitude())
}

func TestRemoveOffsetNoResidualStep(t *testing.T) {
	col := quantity(t, []float64{3, 4, 50, 51, 12, 13, 14}, "micron")

	out, err := RemoveOffset(col, 1, 4, false)
	require.NoError(t, err)
	// The tail rejoins the pre-offset trend: boundary samples now agree.
	assert.InDelta(t, out.At(1), out.At(4), 1e-12)
}

func TestRemoveOffsetIdempotent(t *testing.T) {
	col := quantity(t, []float64{1, 1, 9, 9, 2, 2}, "micron")

	once, err := RemoveOffset(col, 1, 4, true)
	require.NoError(t, err)
	twice, err := RemoveOffset(once, 1, 4, true)
	require.NoError(t, err)
	assert.Equal(t, once.Magnitude(), twice.Magnitude())
}

func TestRemoveOffsetErrors(t *testing.T) {
	col := quantity(t, []float64{1, 2, 3, 4}, "micron")

	for _, window := range [][2]int{{3, 1}, {-1, 2}, {0, 4}, {4, 4}} {
		_, err := RemoveOffset(col, window[0], window[1], false)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "window %v", window)
	}
}

func TestElasticCorrectionLinear(t *testing.T) {
	// Constant stress and a linear stiffness model subtract a uniform k*sigma.
	stress := quantity(t, []float64{2, 2, 2}, "MPa")
	disp := quantity(t, []float64{10, 11, 12}, "micron")
	coeffs := []units.Value{
		units.NewValue(3, units.MustParse("micron / MPa")),
		units.NewValue(0, units.MustParse("micron")),
	}

	out, err := ElasticCorrection(stress, disp, coeffs)
	require.NoError(t, err)
	assert.Equal(t, "micron", out.Unit().String())
	assert.InDeltaSlice(t, []float64{4, 5, 6}, out.Magnitude(), 1e-9)
}

func TestElasticCorrectionConvertsTermUnits(t *testing.T) {
	// Coefficient in mm/MPa against a displacement in microns.
	stress := quantity(t, []float64{1}, "MPa")
	disp := quantity(t, []float64{5000}, "micron")
	coeffs := []units.Value{
		units.NewValue(1, units.MustParse("mm / MPa")),
		units.NewValue(0, units.MustParse("micron")),
	}

	out, err := ElasticCorrection(stress, disp, coeffs)
	require.NoError(t, err)
	assert.InDelta(t, 4000, out.At(0), 1e-9)
}

func TestElasticCorrectionUnitMismatch(t *testing.T) {
	stress := quantity(t, []float64{1, 2}, "MPa")
	disp := quantity(t, []float64{1, 2}, "micron")
	coeffs := []units.Value{units.NewValue(1, units.MustParse("s"))}

	_, err := ElasticCorrection(stress, disp, coeffs)
	assert.ErrorIs(t, err, units.ErrUnitMismatch)
}

func TestElasticCorrectionPropagatesNaN(t *testing.T) {
	stress := quantity(t, []float64{1, math.NaN()}, "MPa")
	disp := quantity(t, []float64{10, 10}, "micron")
	coeffs := []units.Value{
		units.NewValue(2, units.MustParse("micron / MPa")),
		units.NewValue(0, units.MustParse("micron")),
	}

	out, err := ElasticCorrection(stress, disp, coeffs)
	require.NoError(t, err)
	assert.InDelta(t, 8, out.At(0), 1e-9)
	assert.True(t, math.IsNaN(out.At(1)))
}

func TestFriction(t *testing.T) {
	shear := quantity(t, []float64{1, 2, 3}, "MPa")
	normal := quantity(t, []float64{2, 4, 6}, "MPa")

	mu, err := Friction(shear, normal)
	require.NoError(t, err)
	assert.True(t, mu.Unit().Dim().IsDimensionless())
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.5}, mu.Magnitude(), 1e-12)
}

func TestFrictionZeroNormalSentinel(t *testing.T) {
	shear := quantity(t, []float64{1, 1, 1, 1}, "MPa")
	normal := quantity(t, []float64{0, 1e-15, -1e-15, 2}, "MPa")

	mu, err := Friction(shear, normal)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.Zero(t, mu.At(i), "row %d", i)
	}
	assert.InDelta(t, 0.5, mu.At(3), 1e-12)

	for _, v := range mu.Magnitude() {
		assert.False(t, math.IsInf(v, 0))
		assert.False(t, math.IsNaN(v))
	}
}

func TestFrictionConvertsNormalUnit(t *testing.T) {
	shear := quantity(t, []float64{1000}, "kPa")
	normal := quantity(t, []float64{2}, "MPa")

	mu, err := Friction(shear, normal)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, mu.At(0), 1e-12)
}

func TestFrictionErrors(t *testing.T) {
	shear := quantity(t, []float64{1, 2}, "MPa")

	_, err := Friction(shear, quantity(t, []float64{1}, "MPa"))
	assert.ErrorIs(t, err, units.ErrLengthMismatch)

	_, err = Friction(shear, quantity(t, []float64{1, 2}, "micron"))
	assert.ErrorIs(t, err, units.ErrUnitMismatch)
}

func TestCumsum(t *testing.T) {
	q := quantity(t, []float64{1, 2, 3}, "s")
	out := Cumsum(q)
	assert.Equal(t, []float64{1, 3, 6}, out.Magnitude())
	assert.Equal(t, "s", out.Unit().String())
}

func TestElapsedTime(t *testing.T) {
	rate := quantity(t, []float64{10, 10, 10, 10}, "Hz")
	elapsed, err := ElapsedTime(rate)
	require.NoError(t, err)
	assert.Equal(t, "s", elapsed.Unit().String())
	assert.InDeltaSlice(t, []float64{0.1, 0.2, 0.3, 0.4}, elapsed.Magnitude(), 1e-12)

	_, err = ElapsedTime(quantity(t, []float64{1}, "MPa"))
	assert.ErrorIs(t, err, units.ErrUnitMismatch)
}

func TestTransformsDoNotMutateInputs(t *testing.T) {
	stress := quantity(t, []float64{1, 2, 3, 4}, "MPa")
	disp := quantity(t, []float64{5, 6, 7, 8}, "micron")
	want := stress.Magnitude()

	_, _ = Zero(stress, 1, ZeroBefore)
	_, _ = RemoveOffset(stress, 0, 2, true)
	_, _ = Friction(stress, units.New(want, mpa))
	_, _ = ElasticCorrection(stress, disp, []units.Value{
		units.NewValue(1, units.MustParse("micron / MPa")),
		units.NewValue(0, units.MustParse("micron")),
	})

	assert.Equal(t, want, stress.Magnitude())
	assert.Equal(t, []float64{5, 6, 7, 8}, disp.Magnitude())
}
