package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Config{Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Component("history").Info("wallpaper added", zap.String("wallpaper_id", "wallpaper_1"))
	logger.Debug("dropped")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"wallpaper added"`)
	assert.Contains(t, string(data), `"logger":"history"`)
	assert.NotContains(t, string(data), "dropped")
}

func TestSetLevelReachesChildren(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Config{Level: "warn", OutputPaths: []string{path}})
	require.NoError(t, err)
	child := logger.Component("embed")

	child.Info("before")
	require.NoError(t, logger.SetLevel("debug"))
	assert.Equal(t, "debug", logger.Level())
	child.Debug("after")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "before")
	assert.Contains(t, string(data), "after")

	assert.Error(t, logger.SetLevel("loud"))
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	logger := NewNop()
	assert.NotNil(t, logger.Component("x"))
	assert.NotPanics(t, func() { logger.Info("ignored") })
}
