package reduction

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golook/internal/config"
	"golook/internal/dataset"
	"golook/internal/look"
	"golook/pkg/units"
)

const testPlan = `
experiment: p655
calibrations:
  - channel: Vert Load
    scale: 0.1
    unit: kN / bit
    rename: Normal Force
steps:
  - op: zero
    channel: Normal Force
    index: 0
    mode: before
`

func testManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.RecordingsDir = filepath.Join(dir, "recordings")
	cfg.Paths.PlansDir = filepath.Join(dir, "plans")
	cfg.Paths.ExportsDir = filepath.Join(dir, "exports")
	cfg.Paths.LogsDir = filepath.Join(dir, "logs")
	require.NoError(t, cfg.EnsureDirectories())

	// Recording with two raw channels.
	ds := dataset.New()
	ds.Set("Time", units.New([]float64{0, 1, 2, 3}, units.MustParse("s")))
	ds.Set("Vert Load", units.New([]float64{50, 50, 80, 80}, units.Bit))
	require.NoError(t, look.WriteFile(filepath.Join(cfg.Paths.RecordingsDir, "p655r1.look"), ds, "p655"))

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.PlansDir, "p655.yaml"), []byte(testPlan), 0o644))

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewManager(&cfg, nil, nil, logger)
}

func TestRunCompletesAllSteps(t *testing.T) {
	m := testManager(t)

	op, err := m.Run(context.Background(), Request{
		Recording: "p655r1.look",
		Plan:      "p655.yaml",
		Formats:   []string{"csv"},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, op.Status)
	assert.Equal(t, "p655", op.Experiment)
	assert.Equal(t, 8, op.Samples)
	require.Len(t, op.Steps, 4)
	for _, s := range op.Steps {
		assert.Equal(t, StepStatusCompleted, s.Status, s.ID)
	}
	require.Len(t, op.Exports, 1)
	assert.FileExists(t, filepath.Join(m.cfg.Paths.ExportsDir, op.Exports[0]))
}

func TestRunFailsOnMissingRecording(t *testing.T) {
	m := testManager(t)

	op, err := m.Run(context.Background(), Request{
		Recording: "nope.look",
		Plan:      "p655.yaml",
	})
	require.Error(t, err)
	assert.Equal(t, StatusFailed, op.Status)
	assert.Equal(t, StepStatusFailed, op.Steps[0].Status)
	assert.Equal(t, StepStatusSkipped, op.Steps[1].Status)
}

func TestRunFailsOnBadPlanChannel(t *testing.T) {
	m := testManager(t)
	bad := `
experiment: p655
steps:
  - op: zero
    channel: Missing Channel
    index: 0
`
	require.NoError(t, os.WriteFile(filepath.Join(m.cfg.Paths.PlansDir, "bad.yaml"), []byte(bad), 0o644))

	op, err := m.Run(context.Background(), Request{
		Recording: "p655r1.look",
		Plan:      "bad.yaml",
	})
	require.Error(t, err)
	assert.Equal(t, StatusFailed, op.Status)
	assert.Equal(t, StepStatusFailed, op.Steps[2].Status)
}

func TestStartIsAsynchronous(t *testing.T) {
	m := testManager(t)

	snap, err := m.Start(Request{
		Recording: "p655r1.look",
		Plan:      "p655.yaml",
		Formats:   []string{"csv", "xlsx"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, snap.ID)

	require.Eventually(t, func() bool {
		got, err := m.Get(snap.ID)
		return err == nil && got.Status == StatusCompleted
	}, 10*time.Second, 20*time.Millisecond)

	got, err := m.Get(snap.ID)
	require.NoError(t, err)
	assert.Len(t, got.Exports, 2)
}

func TestStartRejectsInvalidRequest(t *testing.T) {
	m := testManager(t)

	_, err := m.Start(Request{Plan: "p655.yaml"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = m.Start(Request{Recording: "../../etc/passwd", Plan: "p655.yaml"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = m.Start(Request{Recording: "p655r1.look", Plan: "p655.yaml", Formats: []string{"pdf"}})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestGetUnknownID(t *testing.T) {
	m := testManager(t)
	_, err := m.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	m := testManager(t)

	first, err := m.Run(context.Background(), Request{Recording: "p655r1.look", Plan: "p655.yaml"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := m.Run(context.Background(), Request{Recording: "p655r1.look", Plan: "p655.yaml"})
	require.NoError(t, err)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}
