// Package calc implements the signal-cleanup transforms used to reduce raw
// experiment recordings into publication-ready time series.
//
// Every transform is a pure, stateless function over unit-tagged quantities
// (pkg/units): inputs are never mutated and results are returned as new
// quantities for the caller to reassign into the dataset. A typical reduction
// composes them in sequence:
//
//	stress, _ = calc.RemoveOffset(stress, 4075, 4089, true) // mask a sensor reset
//	disp, _   = calc.ElasticCorrection(stress, disp, coeffs) // machine stiffness
//	stress, _ = calc.Zero(stress, 42, calc.ZeroBefore)       // engagement point
//	mu, _     = calc.Friction(shear, normal)
//
// Errors are deterministic and raised at the offending call: an index outside
// the column (ErrIndexOutOfRange), an unrecognized mode (ErrInvalidMode) or a
// dimensional inconsistency (units.ErrUnitMismatch). Division by a vanishing
// normal stress in Friction is defined behavior, not an error: a sample with
// no load is a valid data state and maps to zero friction.
package calc
