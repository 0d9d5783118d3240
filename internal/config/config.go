// Package config provides configuration loading for gazeflow commands.
// Settings come from an optional YAML file overlaid with environment
// variables; env vars win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the collection engine.
const (
	DefaultWindowSizeMs    = 10000
	DefaultSmoothingFactor = 0.1
	DefaultListenPort      = "8080"
	DefaultDataDir         = "data"
)

// Config holds all settings for the gazeflow server.
type Config struct {
	// Collection engine
	WindowSizeMs      int     `yaml:"window_size_ms"`
	SmoothingFactor   float64 `yaml:"smoothing_factor"`
	YOffsetCorrection float64 `yaml:"y_offset_correction"`

	// UseDebugPositionSource treats input as already-calibrated cursor
	// coordinates and suppresses the vertical offset correction.
	UseDebugPositionSource bool `yaml:"use_debug_position_source"`

	// Transport
	ListenPort    string `yaml:"listen_port"`
	ClassifierURL string `yaml:"classifier_url"`

	// Paths
	LayoutPath string `yaml:"layout_path"`
	DataDir    string `yaml:"data_dir"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		WindowSizeMs:    DefaultWindowSizeMs,
		SmoothingFactor: DefaultSmoothingFactor,
		ListenPort:      DefaultListenPort,
		DataDir:         DefaultDataDir,
		LogLevel:        "info",
	}
}

// Load reads the config file at path (skipped if path is empty or the
// file is absent), applies environment overrides, and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GAZEFLOW_PORT"); v != "" {
		cfg.ListenPort = v
	}
	if v := os.Getenv("GAZEFLOW_CLASSIFIER_URL"); v != "" {
		cfg.ClassifierURL = v
	}
	if v := os.Getenv("GAZEFLOW_LAYOUT"); v != "" {
		cfg.LayoutPath = v
	}
	if v := os.Getenv("GAZEFLOW_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("GAZEFLOW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("GAZEFLOW_WINDOW_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WindowSizeMs = n
		}
	}
	if v := os.Getenv("GAZEFLOW_SMOOTHING"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.SmoothingFactor = f
		}
	}
	if v := os.Getenv("GAZEFLOW_DEBUG_SOURCE"); v != "" {
		cfg.UseDebugPositionSource = v == "1" || v == "true"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.WindowSizeMs <= 0 {
		return fmt.Errorf("config: window_size_ms must be positive, got %d", c.WindowSizeMs)
	}
	if c.SmoothingFactor <= 0 || c.SmoothingFactor > 1 {
		return fmt.Errorf("config: smoothing_factor must be in (0, 1], got %v", c.SmoothingFactor)
	}
	return nil
}

// WindowSize returns the window duration.
func (c *Config) WindowSize() time.Duration {
	return time.Duration(c.WindowSizeMs) * time.Millisecond
}
