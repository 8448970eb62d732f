package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubBuildInfo(t *testing.T, bi *debug.BuildInfo, ok bool) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, ok }
	t.Cleanup(func() { readBuildInfo = orig })
}

func stubRelease(t *testing.T, v string) {
	t.Helper()
	orig := release
	release = v
	t.Cleanup(func() { release = orig })
}

func TestResolveModuleVersion(t *testing.T) {
	bi := &debug.BuildInfo{}
	bi.Main.Version = "v1.4.2"
	stubBuildInfo(t, bi, true)

	v, err := Resolve()
	require.NoError(t, err)
	assert.Equal(t, "v1.4.2", v)
}

func TestResolveVCSFallback(t *testing.T) {
	bi := &debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	bi.Main.Version = "(devel)"
	stubBuildInfo(t, bi, true)

	v, err := Resolve()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0-dev+0123456789ab.dirty", v)
}

func TestResolveStampedRelease(t *testing.T) {
	stubBuildInfo(t, nil, false)
	stubRelease(t, "2.0.1")

	v, err := Resolve()
	require.NoError(t, err)
	assert.Equal(t, "2.0.1", v)
}

func TestResolveNoMetadata(t *testing.T) {
	stubBuildInfo(t, nil, false)
	stubRelease(t, "")

	_, err := Resolve()
	assert.ErrorIs(t, err, ErrNoVersionMetadata)
}

func TestGetDegradesToUnknown(t *testing.T) {
	stubBuildInfo(t, nil, false)
	stubRelease(t, "")

	info := Get()
	assert.Equal(t, "unknown", info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.OS)
}
