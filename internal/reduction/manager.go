package reduction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"golook/internal/calibration"
	"golook/internal/config"
	"golook/internal/dataset"
	"golook/internal/exporter"
	"golook/internal/infrastructure"
	"golook/internal/look"
	"golook/internal/websocket"
)

// ErrNotFound indicates an unknown reduction ID.
var ErrNotFound = errors.New("reduction: not found")

// ErrInvalidRequest indicates a request that failed validation.
var ErrInvalidRequest = errors.New("reduction: invalid request")

// Manager owns the lifecycle of reduction runs.
type Manager struct {
	cfg      *config.Config
	hub      *websocket.Hub
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
	validate *validator.Validate

	mu  sync.RWMutex
	ops map[string]*Operation
}

// NewManager wires a manager. hub and metrics may be nil (CLI use).
func NewManager(cfg *config.Config, hub *websocket.Hub, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Manager{
		cfg:      cfg,
		hub:      hub,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "reduction.manager")),
		validate: validator.New(),
		ops:      make(map[string]*Operation),
	}
}

// Start validates the request and launches the run asynchronously. The
// returned snapshot reflects the pending run; poll Get for updates.
func (m *Manager) Start(req Request) (Operation, error) {
	op, err := m.prepare(req)
	if err != nil {
		return Operation{}, err
	}

	// Runs outlive the HTTP request that started them.
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Server.ReductionTimeout)
	go func() {
		defer cancel()
		m.run(ctx, op)
	}()

	return op.Snapshot(), nil
}

// Run executes a reduction synchronously. The CLI path.
func (m *Manager) Run(ctx context.Context, req Request) (Operation, error) {
	op, err := m.prepare(req)
	if err != nil {
		return Operation{}, err
	}

	m.run(ctx, op)

	snap := op.Snapshot()
	if snap.Status != StatusCompleted {
		return snap, errors.New(snap.Error)
	}
	return snap, nil
}

func (m *Manager) prepare(req Request) (*Operation, error) {
	if err := m.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}
	if filepath.Base(req.Recording) != req.Recording || filepath.Base(req.Plan) != req.Plan {
		return nil, fmt.Errorf("%w: recording and plan must be bare filenames", ErrInvalidRequest)
	}
	if len(req.Formats) == 0 {
		req.Formats = []string{"csv"}
	}

	op := newOperation(uuid.New().String(), req)
	m.mu.Lock()
	m.ops[op.ID] = op
	m.mu.Unlock()
	return op, nil
}

// Get returns a snapshot of a run.
func (m *Manager) Get(id string) (Operation, error) {
	m.mu.RLock()
	op, ok := m.ops[id]
	m.mu.RUnlock()
	if !ok {
		return Operation{}, ErrNotFound
	}
	return op.Snapshot(), nil
}

// List returns snapshots of all runs, newest first.
func (m *Manager) List() []Operation {
	m.mu.RLock()
	ops := make([]*Operation, 0, len(m.ops))
	for _, op := range m.ops {
		ops = append(ops, op)
	}
	m.mu.RUnlock()

	out := make([]Operation, len(ops))
	for i, op := range ops {
		out[i] = op.Snapshot()
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out
}

func (m *Manager) run(ctx context.Context, op *Operation) {
	start := time.Now()
	logger := m.logger.With(slog.String("reduction_id", op.ID))

	op.start()
	m.broadcastStatus(op)
	infrastructure.RecordActiveReductionChange(ctx, m.metrics, 1)

	err := m.runSteps(ctx, op)

	snap := op.Snapshot()
	infrastructure.RecordActiveReductionChange(ctx, m.metrics, -1)
	infrastructure.RecordReductionMetrics(ctx, m.metrics, op.ID, time.Since(start), int64(snap.Samples), err)

	if err != nil {
		op.fail(err, errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled))
		m.broadcastStatus(op)
		if m.hub != nil {
			m.hub.BroadcastError(op.ID, err.Error())
		}
		logger.ErrorContext(ctx, "reduction failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return
	}

	op.complete()
	m.broadcastStatus(op)
	if m.hub != nil {
		m.hub.Broadcast(websocket.TypeComplete, map[string]interface{}{
			"reduction_id": op.ID,
			"exports":      snap.Exports,
		})
	}
	logger.InfoContext(ctx, "reduction completed",
		slog.String("experiment", snap.Experiment),
		slog.Int("samples", snap.Samples),
		slog.Duration("duration", time.Since(start)))
}

func (m *Manager) runSteps(ctx context.Context, op *Operation) error {
	ds, err := m.readStep(ctx, op)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	plan, err := m.calibrateStep(ctx, op)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.transformStep(ctx, op, plan, ds); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return m.exportStep(ctx, op, ds)
}

func (m *Manager) readStep(ctx context.Context, op *Operation) (*dataset.Dataset, error) {
	start := time.Now()
	op.startStep(StepIDRead)
	m.broadcastProgress(op, StepIDRead, 0, "reading "+op.Request.Recording)

	path := filepath.Join(m.cfg.Paths.RecordingsDir, op.Request.Recording)
	ds, meta, err := look.ReadFile(path)
	infrastructure.RecordStepMetrics(ctx, m.metrics, op.ID, StepIDRead, time.Since(start), err == nil)
	if err != nil {
		op.failStep(StepIDRead, err)
		return nil, err
	}

	op.mu.Lock()
	op.Experiment = meta.Experiment
	op.Samples = meta.Channels * meta.Records
	op.mu.Unlock()

	op.completeStep(StepIDRead, fmt.Sprintf("%d channels, %d records", meta.Channels, meta.Records))
	return ds, nil
}

func (m *Manager) calibrateStep(ctx context.Context, op *Operation) (*calibration.Plan, error) {
	start := time.Now()
	op.startStep(StepIDCalibrate)
	m.broadcastProgress(op, StepIDCalibrate, 0, "loading plan "+op.Request.Plan)

	plan, err := calibration.Load(filepath.Join(m.cfg.Paths.PlansDir, op.Request.Plan))
	infrastructure.RecordStepMetrics(ctx, m.metrics, op.ID, StepIDCalibrate, time.Since(start), err == nil)
	if err != nil {
		op.failStep(StepIDCalibrate, err)
		return nil, err
	}

	op.completeStep(StepIDCalibrate, fmt.Sprintf("%d calibrations, %d steps", len(plan.Calibrations), len(plan.Steps)))
	return plan, nil
}

func (m *Manager) transformStep(ctx context.Context, op *Operation, plan *calibration.Plan, ds *dataset.Dataset) error {
	start := time.Now()
	op.startStep(StepIDTransform)

	err := plan.Apply(ds, func(step, total int, description string) {
		m.broadcastProgress(op, StepIDTransform, step*100/total, description)
	})
	infrastructure.RecordStepMetrics(ctx, m.metrics, op.ID, StepIDTransform, time.Since(start), err == nil)
	if err != nil {
		op.failStep(StepIDTransform, err)
		return err
	}

	op.completeStep(StepIDTransform, fmt.Sprintf("%d transforms applied", len(plan.Steps)))
	return nil
}

func (m *Manager) exportStep(ctx context.Context, op *Operation, ds *dataset.Dataset) error {
	start := time.Now()
	op.startStep(StepIDExport)

	// Formats write independent files, so they run concurrently.
	base := strings.TrimSuffix(op.Request.Recording, filepath.Ext(op.Request.Recording))
	exports := make([]string, len(op.Request.Formats))
	g, _ := errgroup.WithContext(ctx)
	for i, format := range op.Request.Formats {
		g.Go(func() error {
			var path string
			var err error
			switch format {
			case "csv":
				path, err = exporter.NewCSVWriter(m.cfg.Paths.ExportsDir).WriteDataset(base+".csv", ds)
			case "xlsx":
				path, err = exporter.NewExcelWriter(m.cfg.Paths.ExportsDir).WriteDataset(base+".xlsx", ds)
			default:
				return fmt.Errorf("%w: unknown export format %q", ErrInvalidRequest, format)
			}
			if err != nil {
				return err
			}
			exports[i] = filepath.Base(path)
			return nil
		})
	}
	err := g.Wait()

	infrastructure.RecordStepMetrics(ctx, m.metrics, op.ID, StepIDExport, time.Since(start), err == nil)
	if err != nil {
		op.failStep(StepIDExport, err)
		return err
	}

	op.mu.Lock()
	op.Exports = exports
	op.mu.Unlock()
	op.completeStep(StepIDExport, strings.Join(exports, ", "))
	return nil
}

func (m *Manager) broadcastStatus(op *Operation) {
	if m.hub == nil {
		return
	}
	snap := op.Snapshot()
	m.hub.BroadcastStatus(snap.ID, string(snap.Status))
}

func (m *Manager) broadcastProgress(op *Operation, step string, progress int, detail string) {
	if m.hub == nil {
		return
	}
	m.hub.BroadcastProgress(op.ID, step, progress, detail)
}
