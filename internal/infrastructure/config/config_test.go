package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 10, cfg.Wallpaper.Capacity)
	assert.Equal(t, 2560, cfg.Wallpaper.MaxDimension)
	assert.Equal(t, 0.85, cfg.Wallpaper.Quality)
	assert.Equal(t, 10*time.Minute, cfg.Wallpaper.SlideshowInterval)
	assert.Equal(t, 15*time.Minute, cfg.Weather.RefreshInterval)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaultsWithoutEnvironment(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "NORMAL", cfg.Storage.Synchronous)
	assert.Zero(t, cfg.Storage.MaxBytes)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_DEV", "true")
	t.Setenv("WALLPAPER_CAPACITY", "5")
	t.Setenv("SLIDESHOW_INTERVAL", "30s")
	t.Setenv("SHELL_ORIGIN", "https://home.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 5, cfg.Wallpaper.Capacity)
	assert.Equal(t, 30*time.Second, cfg.Wallpaper.SlideshowInterval)
	assert.Equal(t, "https://home.example", cfg.Server.Origin)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shell.toml")
	content := `
[server]
port = "7000"
origin = "https://file.example"

[wallpaper]
capacity = 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv(FileEnv, path)
	t.Setenv("SHELL_ORIGIN", "https://env.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Wallpaper.Capacity)
	assert.Equal(t, "https://env.example", cfg.Server.Origin, "env overrides file")
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"quality above one", "WALLPAPER_QUALITY", "1.5"},
		{"unknown synchronous mode", "STORAGE_SYNCHRONOUS", "SOMETIMES"},
		{"negative quota", "STORAGE_MAX_BYTES", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
