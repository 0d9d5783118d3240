package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.WindowSizeMs != 10000 {
		t.Errorf("WindowSizeMs = %d, want 10000", cfg.WindowSizeMs)
	}
	if cfg.SmoothingFactor != 0.1 {
		t.Errorf("SmoothingFactor = %v, want 0.1", cfg.SmoothingFactor)
	}
	if cfg.WindowSize() != 10*time.Second {
		t.Errorf("WindowSize = %v, want 10s", cfg.WindowSize())
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WindowSizeMs != DefaultWindowSizeMs {
		t.Errorf("WindowSizeMs = %d, want default", cfg.WindowSizeMs)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gazeflow.yaml")
	content := `window_size_ms: 5000
smoothing_factor: 0.3
classifier_url: http://localhost:8000/analyze-window
use_debug_position_source: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WindowSizeMs != 5000 {
		t.Errorf("WindowSizeMs = %d, want 5000", cfg.WindowSizeMs)
	}
	if cfg.SmoothingFactor != 0.3 {
		t.Errorf("SmoothingFactor = %v, want 0.3", cfg.SmoothingFactor)
	}
	if cfg.ClassifierURL != "http://localhost:8000/analyze-window" {
		t.Errorf("ClassifierURL = %v", cfg.ClassifierURL)
	}
	if !cfg.UseDebugPositionSource {
		t.Error("UseDebugPositionSource = false, want true")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gazeflow.yaml")
	if err := os.WriteFile(path, []byte("window_size_ms: 5000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GAZEFLOW_WINDOW_MS", "2000")
	t.Setenv("GAZEFLOW_PORT", "9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WindowSizeMs != 2000 {
		t.Errorf("WindowSizeMs = %d, want 2000 from env", cfg.WindowSizeMs)
	}
	if cfg.ListenPort != "9999" {
		t.Errorf("ListenPort = %v, want 9999 from env", cfg.ListenPort)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"zero window", func(c *Config) { c.WindowSizeMs = 0 }, true},
		{"negative window", func(c *Config) { c.WindowSizeMs = -1 }, true},
		{"smoothing zero", func(c *Config) { c.SmoothingFactor = 0 }, true},
		{"smoothing above one", func(c *Config) { c.SmoothingFactor = 1.1 }, true},
		{"smoothing exactly one", func(c *Config) { c.SmoothingFactor = 1 }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
