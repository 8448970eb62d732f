package exporter

import (
	"fmt"
	"strconv"

	"golook/pkg/units"
)

// formatSample renders one sample for text output. Full float64 precision
// is kept: reductions are re-imported and compared numerically.
func formatSample(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// columnHeader renders a channel header with its unit label, e.g.
// "Shear Stress (MPa)". Dimensionless channels get a bare name.
func columnHeader(name string, u units.Unit) string {
	if u.Dim().IsDimensionless() {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, u)
}
