// Package calibration turns the manual steps of a reduction narrative into
// a declarative plan: per-channel calibrations (scale, unit, rename)
// followed by an ordered list of transform steps. Plans are YAML documents
// checked with struct validation before anything touches the data, so a
// typo in a step fails fast instead of half-reducing a dataset.
package calibration

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"golook/internal/dataset"
	"golook/pkg/calc"
	"golook/pkg/units"
)

// ErrInvalidPlan indicates a plan that failed structural validation.
var ErrInvalidPlan = errors.New("calibration: invalid reduction plan")

// Step operation names accepted in a plan.
const (
	OpElapsedTime       = "elapsed_time"
	OpZero              = "zero"
	OpRemoveOffset      = "remove_offset"
	OpElasticCorrection = "elastic_correction"
	OpFriction          = "friction"
	OpScale             = "scale"
	OpShift             = "shift"
)

// Plan is a complete reduction recipe for one experiment family.
type Plan struct {
	Experiment   string        `yaml:"experiment"`
	Calibrations []Calibration `yaml:"calibrations" validate:"dive"`
	Steps        []Step        `yaml:"steps" validate:"dive"`
}

// Calibration converts one raw channel from sensor counts to physical units
// and optionally renames it to something a human wants to read.
type Calibration struct {
	Channel string  `yaml:"channel" validate:"required"`
	Scale   float64 `yaml:"scale" validate:"required"`
	Unit    string  `yaml:"unit" validate:"required"`
	Rename  string  `yaml:"rename"`
}

// Step is one transform application. Which fields matter depends on Op;
// Validate checks the combination before a plan runs.
type Step struct {
	Op string `yaml:"op" validate:"required,oneof=elapsed_time zero remove_offset elastic_correction friction scale shift"`

	// Single-channel operations.
	Channel string `yaml:"channel"`

	// zero
	Index int    `yaml:"index"`
	Mode  string `yaml:"mode"`

	// remove_offset
	Start      int  `yaml:"start"`
	End        int  `yaml:"end"`
	SetBetween bool `yaml:"set_between"`

	// elastic_correction
	Stress       string        `yaml:"stress"`
	Displacement string        `yaml:"displacement"`
	Coefficients []Coefficient `yaml:"coefficients"`

	// friction
	Shear  string `yaml:"shear"`
	Normal string `yaml:"normal"`
	Result string `yaml:"result"`

	// scale (dimensionless factor) and shift (unit-tagged constant)
	Factor float64 `yaml:"factor"`
	Value  float64 `yaml:"value"`
	Unit   string  `yaml:"unit"`
}

// Coefficient is one unit-tagged polynomial coefficient, highest degree first.
type Coefficient struct {
	Value float64 `yaml:"value"`
	Unit  string  `yaml:"unit" validate:"required"`
}

// ProgressFunc reports plan execution progress: step ordinal (1-based),
// total step count and a short description.
type ProgressFunc func(step, total int, description string)

var validate = validator.New()

// Load reads and validates a plan file.
func Load(path string) (*Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML plan document.
func Parse(raw []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks plan structure: struct tags, unit expressions and the
// per-op field combinations.
func (p *Plan) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	for i, c := range p.Calibrations {
		if _, err := units.Parse(c.Unit); err != nil {
			return fmt.Errorf("%w: calibration %d (%s): %v", ErrInvalidPlan, i, c.Channel, err)
		}
	}
	for i, s := range p.Steps {
		if err := s.validate(); err != nil {
			return fmt.Errorf("%w: step %d (%s): %v", ErrInvalidPlan, i, s.Op, err)
		}
	}
	return nil
}

func (s *Step) validate() error {
	switch s.Op {
	case OpElapsedTime, OpZero, OpRemoveOffset, OpScale:
		if s.Channel == "" {
			return errors.New("channel is required")
		}
	case OpShift:
		if s.Channel == "" {
			return errors.New("channel is required")
		}
		if _, err := units.Parse(s.Unit); err != nil {
			return err
		}
	case OpElasticCorrection:
		if s.Stress == "" || s.Displacement == "" {
			return errors.New("stress and displacement channels are required")
		}
		if len(s.Coefficients) == 0 {
			return errors.New("at least one coefficient is required")
		}
		for _, c := range s.Coefficients {
			if _, err := units.Parse(c.Unit); err != nil {
				return err
			}
		}
	case OpFriction:
		if s.Shear == "" || s.Normal == "" || s.Result == "" {
			return errors.New("shear, normal and result channels are required")
		}
	}
	return nil
}

// Apply runs the full plan against a dataset in place: calibrations and
// renames first, then each step in order. The optional progress callback is
// invoked once per completed unit of work.
func (p *Plan) Apply(ds *dataset.Dataset, progress ProgressFunc) error {
	total := len(p.Calibrations) + len(p.Steps)
	done := 0
	report := func(desc string) {
		done++
		if progress != nil {
			progress(done, total, desc)
		}
	}

	for _, c := range p.Calibrations {
		if err := c.apply(ds); err != nil {
			return err
		}
		report(fmt.Sprintf("calibrated %s", c.Channel))
	}
	for i, s := range p.Steps {
		if err := s.apply(ds); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, s.Op, err)
		}
		report(s.describe())
	}
	return nil
}

func (c *Calibration) apply(ds *dataset.Dataset) error {
	q, ok := ds.Get(c.Channel)
	if !ok {
		return fmt.Errorf("%w: %q", dataset.ErrChannelNotFound, c.Channel)
	}
	unit, err := units.Parse(c.Unit)
	if err != nil {
		return fmt.Errorf("calibration for %q: %w", c.Channel, err)
	}
	ds.Set(c.Channel, q.MulValue(units.NewValue(c.Scale, unit)))
	if c.Rename != "" {
		if err := ds.Rename(c.Channel, c.Rename); err != nil {
			return err
		}
	}
	return nil
}

func (s *Step) apply(ds *dataset.Dataset) error {
	switch s.Op {
	case OpElapsedTime:
		return s.applySingle(ds, func(q units.Quantity) (units.Quantity, error) {
			return calc.ElapsedTime(q)
		})
	case OpZero:
		mode := calc.ZeroMode(s.Mode)
		if s.Mode == "" {
			mode = calc.ZeroNone
		}
		return s.applySingle(ds, func(q units.Quantity) (units.Quantity, error) {
			return calc.Zero(q, s.Index, mode)
		})
	case OpRemoveOffset:
		return s.applySingle(ds, func(q units.Quantity) (units.Quantity, error) {
			return calc.RemoveOffset(q, s.Start, s.End, s.SetBetween)
		})
	case OpScale:
		return s.applySingle(ds, func(q units.Quantity) (units.Quantity, error) {
			return q.MulScalar(s.Factor), nil
		})
	case OpShift:
		unit, err := units.Parse(s.Unit)
		if err != nil {
			return err
		}
		return s.applySingle(ds, func(q units.Quantity) (units.Quantity, error) {
			return q.AddValue(units.NewValue(s.Value, unit))
		})
	case OpElasticCorrection:
		stress, ok := ds.Get(s.Stress)
		if !ok {
			return fmt.Errorf("%w: %q", dataset.ErrChannelNotFound, s.Stress)
		}
		disp, ok := ds.Get(s.Displacement)
		if !ok {
			return fmt.Errorf("%w: %q", dataset.ErrChannelNotFound, s.Displacement)
		}
		coeffs := make([]units.Value, len(s.Coefficients))
		for i, c := range s.Coefficients {
			unit, err := units.Parse(c.Unit)
			if err != nil {
				return err
			}
			coeffs[i] = units.NewValue(c.Value, unit)
		}
		corrected, err := calc.ElasticCorrection(stress, disp, coeffs)
		if err != nil {
			return err
		}
		ds.Set(s.Displacement, corrected)
		return nil
	case OpFriction:
		shear, ok := ds.Get(s.Shear)
		if !ok {
			return fmt.Errorf("%w: %q", dataset.ErrChannelNotFound, s.Shear)
		}
		normal, ok := ds.Get(s.Normal)
		if !ok {
			return fmt.Errorf("%w: %q", dataset.ErrChannelNotFound, s.Normal)
		}
		mu, err := calc.Friction(shear, normal)
		if err != nil {
			return err
		}
		ds.Set(s.Result, mu)
		return nil
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidPlan, s.Op)
	}
}

func (s *Step) applySingle(ds *dataset.Dataset, f func(units.Quantity) (units.Quantity, error)) error {
	q, ok := ds.Get(s.Channel)
	if !ok {
		return fmt.Errorf("%w: %q", dataset.ErrChannelNotFound, s.Channel)
	}
	out, err := f(q)
	if err != nil {
		return err
	}
	ds.Set(s.Channel, out)
	return nil
}

func (s *Step) describe() string {
	switch s.Op {
	case OpElasticCorrection:
		return fmt.Sprintf("elastic correction of %s against %s", s.Displacement, s.Stress)
	case OpFriction:
		return fmt.Sprintf("derived %s from %s / %s", s.Result, s.Shear, s.Normal)
	default:
		return fmt.Sprintf("%s on %s", s.Op, s.Channel)
	}
}
