// Package reduction runs complete data reductions: load a recording, apply
// a calibration plan, export the result. Runs execute asynchronously with
// progress pushed over the websocket hub.
package reduction

import (
	"sync"
	"time"
)

// Step identifiers.
const (
	StepIDRead      = "read"
	StepIDCalibrate = "calibrate"
	StepIDTransform = "transform"
	StepIDExport    = "export"
)

// Step display names.
const (
	StepNameRead      = "Load Recording"
	StepNameCalibrate = "Load Calibration Plan"
	StepNameTransform = "Apply Transforms"
	StepNameExport    = "Export Results"
)

// Status is the overall state of a reduction run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// StepStatus is the state of a single step.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// Request describes a reduction to run. Recording and Plan name files under
// the configured recordings and plans directories.
type Request struct {
	Recording string   `json:"recording" validate:"required"`
	Plan      string   `json:"plan" validate:"required"`
	Formats   []string `json:"formats" validate:"omitempty,dive,oneof=csv xlsx"`
}

// StepState tracks one step of a run.
type StepState struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
	Message   string     `json:"message,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Operation is the state of one reduction run.
type Operation struct {
	mu sync.RWMutex

	ID         string       `json:"id"`
	Experiment string       `json:"experiment,omitempty"`
	Request    Request      `json:"request"`
	Status     Status       `json:"status"`
	StartTime  time.Time    `json:"start_time"`
	EndTime    *time.Time   `json:"end_time,omitempty"`
	Steps      []*StepState `json:"steps"`
	Exports    []string     `json:"exports,omitempty"`
	Samples    int          `json:"samples,omitempty"`
	Error      string       `json:"error,omitempty"`
}

func newOperation(id string, req Request) *Operation {
	return &Operation{
		ID:        id,
		Request:   req,
		Status:    StatusPending,
		StartTime: time.Now(),
		Steps: []*StepState{
			{ID: StepIDRead, Name: StepNameRead, Status: StepStatusPending},
			{ID: StepIDCalibrate, Name: StepNameCalibrate, Status: StepStatusPending},
			{ID: StepIDTransform, Name: StepNameTransform, Status: StepStatusPending},
			{ID: StepIDExport, Name: StepNameExport, Status: StepStatusPending},
		},
	}
}

func (op *Operation) step(id string) *StepState {
	for _, s := range op.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (op *Operation) startStep(id string) {
	op.mu.Lock()
	defer op.mu.Unlock()
	if s := op.step(id); s != nil {
		now := time.Now()
		s.Status = StepStatusActive
		s.StartTime = &now
	}
}

func (op *Operation) completeStep(id, message string) {
	op.mu.Lock()
	defer op.mu.Unlock()
	if s := op.step(id); s != nil {
		now := time.Now()
		s.Status = StepStatusCompleted
		s.Message = message
		s.EndTime = &now
	}
}

func (op *Operation) failStep(id string, err error) {
	op.mu.Lock()
	defer op.mu.Unlock()
	if s := op.step(id); s != nil {
		now := time.Now()
		s.Status = StepStatusFailed
		s.Error = err.Error()
		s.EndTime = &now
	}
	for _, s := range op.Steps {
		if s.Status == StepStatusPending {
			s.Status = StepStatusSkipped
		}
	}
}

func (op *Operation) start() {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.Status = StatusRunning
	op.StartTime = time.Now()
}

func (op *Operation) complete() {
	op.mu.Lock()
	defer op.mu.Unlock()
	now := time.Now()
	op.Status = StatusCompleted
	op.EndTime = &now
}

func (op *Operation) fail(err error, cancelled bool) {
	op.mu.Lock()
	defer op.mu.Unlock()
	now := time.Now()
	if cancelled {
		op.Status = StatusCancelled
	} else {
		op.Status = StatusFailed
	}
	op.Error = err.Error()
	op.EndTime = &now
}

// Snapshot returns a copy safe to serialize while the run mutates.
func (op *Operation) Snapshot() Operation {
	op.mu.RLock()
	defer op.mu.RUnlock()

	out := Operation{
		ID:         op.ID,
		Experiment: op.Experiment,
		Request:    op.Request,
		Status:     op.Status,
		StartTime:  op.StartTime,
		Samples:    op.Samples,
		Error:      op.Error,
	}
	if op.EndTime != nil {
		t := *op.EndTime
		out.EndTime = &t
	}
	out.Exports = append([]string(nil), op.Exports...)
	out.Steps = make([]*StepState, len(op.Steps))
	for i, s := range op.Steps {
		copied := *s
		out.Steps[i] = &copied
	}
	return out
}
