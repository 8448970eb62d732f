package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, filepath.Join("data", "recordings"), cfg.Paths.RecordingsDir)
	assert.Equal(t, filepath.Join("data", "exports"), cfg.Paths.ExportsDir)
	assert.True(t, cfg.Security.RateLimit.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "golook.yaml")
	doc := `
server:
  port: 9000
logging:
  level: debug
paths:
  data_dir: /var/lib/golook
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, filepath.Join("/var/lib/golook", "recordings"), cfg.Paths.RecordingsDir)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "golook.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o644))

	t.Setenv("LOOK_SERVER_PORT", "9100")
	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "golook.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: ["), 0o644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadPort(t *testing.T) {
	t.Setenv("LOOK_SERVER_PORT", "-1")
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOOK_PATHS_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("LOOK_PATHS_LOGS_DIR", filepath.Join(dir, "logs"))

	cfg, err := LoadFrom(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.EnsureDirectories())

	for _, d := range []string{cfg.Paths.RecordingsDir, cfg.Paths.ExportsDir, cfg.Paths.PlansDir, cfg.Paths.LogsDir} {
		info, err := os.Stat(d)
		require.NoError(t, err, d)
		assert.True(t, info.IsDir())
	}
}
