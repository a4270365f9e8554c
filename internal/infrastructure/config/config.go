package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// FileEnv names the environment variable pointing at an optional TOML file.
// Defaults come from Default(), so only variables that are actually set override.
// File values are applied first; environment variables override them.
const FileEnv = "HOMESCREEN_CONFIG"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Logging   LogConfig       `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Wallpaper WallpaperConfig `toml:"wallpaper"`
	Embed     EmbedConfig     `toml:"embed"`
	Weather   WeatherConfig   `toml:"weather"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" toml:"port"`
	Host string `envconfig:"HOST" toml:"host"`
	// Origin is the page origin; cross-document messages from any other origin are dropped.
	Origin    string `envconfig:"SHELL_ORIGIN" toml:"origin"`
	StaticDir string `envconfig:"STATIC_DIR" toml:"static_dir"`
}

// StorageConfig holds the durable store location.
type StorageConfig struct {
	Path        string `envconfig:"STORAGE_PATH" toml:"path"`
	BusyTimeout int    `envconfig:"STORAGE_BUSY_TIMEOUT_MS" toml:"busy_timeout_ms"`
	Synchronous string `envconfig:"STORAGE_SYNCHRONOUS" toml:"synchronous"`
	// MaxBytes caps the database; writes past it fail as quota exceeded. 0 is unlimited.
	MaxBytes int64 `envconfig:"STORAGE_MAX_BYTES" toml:"max_bytes"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" toml:"rps"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" toml:"enabled"`
}

// WallpaperConfig holds history and compression settings.
type WallpaperConfig struct {
	Capacity          int           `envconfig:"WALLPAPER_CAPACITY" toml:"capacity"`
	MaxDimension      int           `envconfig:"WALLPAPER_MAX_DIMENSION" toml:"max_dimension"`
	Quality           float64       `envconfig:"WALLPAPER_QUALITY" toml:"quality"`
	SlideshowInterval time.Duration `envconfig:"SLIDESHOW_INTERVAL" toml:"slideshow_interval"`
	MaxUploadBytes    int64         `envconfig:"WALLPAPER_MAX_UPLOAD_BYTES" toml:"max_upload_bytes"`
}

// EmbedConfig holds mini-app catalog and framing probe settings.
type EmbedConfig struct {
	AppsDir      string        `envconfig:"APPS_DIR" toml:"apps_dir"`
	ProbeEnabled bool          `envconfig:"EMBED_PROBE_ENABLED" toml:"probe_enabled"`
	ProbeTimeout time.Duration `envconfig:"EMBED_PROBE_TIMEOUT" toml:"probe_timeout"`
}

// WeatherConfig holds weather widget settings.
type WeatherConfig struct {
	GeocodeURL      string        `envconfig:"WEATHER_GEOCODE_URL" toml:"geocode_url"`
	ForecastURL     string        `envconfig:"WEATHER_FORECAST_URL" toml:"forecast_url"`
	RefreshInterval time.Duration `envconfig:"WEATHER_REFRESH_INTERVAL" toml:"refresh_interval"`
	Timeout         time.Duration `envconfig:"WEATHER_TIMEOUT" toml:"timeout"`
}

// Load loads configuration from the optional TOML file and environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects values the shell cannot run with.
func (c *Config) Validate() error {
	if c.Wallpaper.Capacity < 1 {
		return fmt.Errorf("wallpaper capacity must be positive, got %d", c.Wallpaper.Capacity)
	}
	if c.Wallpaper.MaxDimension < 1 {
		return fmt.Errorf("wallpaper max dimension must be positive, got %d", c.Wallpaper.MaxDimension)
	}
	if c.Wallpaper.Quality <= 0 || c.Wallpaper.Quality > 1 {
		return fmt.Errorf("wallpaper quality must be in (0,1], got %v", c.Wallpaper.Quality)
	}
	if c.Wallpaper.SlideshowInterval <= 0 {
		return fmt.Errorf("slideshow interval must be positive")
	}
	switch strings.ToUpper(c.Storage.Synchronous) {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("storage synchronous must be OFF, NORMAL, FULL or EXTRA, got %q", c.Storage.Synchronous)
	}
	if c.Storage.MaxBytes < 0 {
		return fmt.Errorf("storage max bytes must not be negative")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:   "8000",
			Host:   "0.0.0.0",
			Origin: "http://localhost:8000",
		},
		Storage: StorageConfig{
			Path:        "/tmp/homescreen/shell.db",
			BusyTimeout: 5000,
			Synchronous: "NORMAL",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Wallpaper: WallpaperConfig{
			Capacity:          10,
			MaxDimension:      2560,
			Quality:           0.85,
			SlideshowInterval: 10 * time.Minute,
			MaxUploadBytes:    256 << 20,
		},
		Embed: EmbedConfig{
			ProbeEnabled: true,
			ProbeTimeout: 5 * time.Second,
		},
		Weather: WeatherConfig{
			GeocodeURL:      "https://nominatim.openstreetmap.org",
			ForecastURL:     "https://api.open-meteo.com",
			RefreshInterval: 15 * time.Minute,
			Timeout:         15 * time.Second,
		},
	}
}
