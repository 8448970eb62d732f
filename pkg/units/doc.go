// Package units provides unit-tagged numeric arrays for laboratory data.
//
// Every recorded channel in an experiment is a Quantity: a slice of float64
// samples with an attached physical Unit. Arithmetic between quantities
// enforces dimensional consistency - adding microns to megapascals is an
// error, adding microns to millimeters converts the right-hand side first.
// Units are never stripped or converted implicitly; use To for explicit
// conversion and Magnitude to drop units on purpose.
//
// The registry covers the units that appear in biaxial friction experiments:
// lengths (micron through km), forces (N, kN), stresses (Pa through GPa),
// time (s, Hz), mass (g, kg), raw sensor counts (bit) and dimensionless.
// Compound units parse from strings the way experimentalists write them:
//
//	u, err := units.Parse("MPa / bit")
//	stiffness := units.MustParse("kN/micron")
//	area := units.MustParse("cm^2")
package units
