package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

// chdirTemp moves the test into an empty directory so no config.yaml is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() { os.Chdir(originalDir) })
	return dir
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		chdirTemp(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Data.Source != "dir" {
			t.Errorf("Data.Source = %s, want dir", cfg.Data.Source)
		}
		if cfg.Data.Files.Planogram != "allplanogramdata.csv" {
			t.Errorf("Data.Files.Planogram = %s, want allplanogramdata.csv", cfg.Data.Files.Planogram)
		}
		if cfg.Data.Files.StoreMapping != "Store_POG_Mapping.csv" {
			t.Errorf("Data.Files.StoreMapping = %s, want Store_POG_Mapping.csv", cfg.Data.Files.StoreMapping)
		}
		if cfg.Data.Timeout != 30*time.Second {
			t.Errorf("Data.Timeout = %v, want 30s", cfg.Data.Timeout)
		}
		if cfg.Board.WidthInches != 46 || cfg.Board.HeightInches != 64 {
			t.Errorf("Board = %gx%g, want 46x64", cfg.Board.WidthInches, cfg.Board.HeightInches)
		}
		if cfg.Board.PaddingPx != 20 {
			t.Errorf("Board.PaddingPx = %g, want 20", cfg.Board.PaddingPx)
		}
		if cfg.Matching.FuzzyMaxDigits != 4 {
			t.Errorf("Matching.FuzzyMaxDigits = %d, want 4", cfg.Matching.FuzzyMaxDigits)
		}
		if !cfg.Matching.AutoCompleteOnScan {
			t.Error("Matching.AutoCompleteOnScan = false, want true")
		}
		if cfg.Scan.Debounce != 2*time.Second {
			t.Errorf("Scan.Debounce = %v, want 2s", cfg.Scan.Debounce)
		}
		if cfg.Persistence.Driver != "sqlite" {
			t.Errorf("Persistence.Driver = %s, want sqlite", cfg.Persistence.Driver)
		}
		if cfg.Log.Level != "info" {
			t.Errorf("Log.Level = %s, want info", cfg.Log.Level)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("HARPA_SERVER_PORT", "9090")
		t.Setenv("HARPA_DATA_SOURCE", "http")
		t.Setenv("HARPA_DATA_BASE_URL", "https://data.example.com/harpa")
		t.Setenv("HARPA_SCAN_DEBOUNCE", "500ms")
		t.Setenv("HARPA_PERSISTENCE_DRIVER", "badger")
		t.Setenv("HARPA_PERSISTENCE_PATH", "/var/lib/harpa")
		t.Setenv("HARPA_MATCHING_AUTO_COMPLETE_ON_SCAN", "false")
		t.Setenv("HARPA_RATELIMIT_PER_IP", "200")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Data.Source != "http" {
			t.Errorf("Data.Source = %s, want http", cfg.Data.Source)
		}
		if cfg.Data.BaseURL != "https://data.example.com/harpa" {
			t.Errorf("Data.BaseURL = %s", cfg.Data.BaseURL)
		}
		if cfg.Scan.Debounce != 500*time.Millisecond {
			t.Errorf("Scan.Debounce = %v, want 500ms", cfg.Scan.Debounce)
		}
		if cfg.Persistence.Driver != "badger" {
			t.Errorf("Persistence.Driver = %s, want badger", cfg.Persistence.Driver)
		}
		if cfg.Matching.AutoCompleteOnScan {
			t.Error("Matching.AutoCompleteOnScan = true, want false")
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
	})

	t.Run("reads config file", func(t *testing.T) {
		dir := chdirTemp(t)
		content := "board:\n  padding_px: 0\nlog:\n  level: debug\n  format: console\n"
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Board.PaddingPx != 0 {
			t.Errorf("Board.PaddingPx = %g, want 0", cfg.Board.PaddingPx)
		}
		if cfg.Log.Level != "debug" || cfg.Log.Format != "console" {
			t.Errorf("Log = %+v, want debug/console", cfg.Log)
		}
	})

	t.Run("fails validation when base URL missing for http source", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("HARPA_DATA_SOURCE", "http")

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for missing base URL")
		}
		if !strings.Contains(err.Error(), "HARPA_DATA_BASE_URL") {
			t.Errorf("Load() error = %v, want mention of HARPA_DATA_BASE_URL", err)
		}
	})
}

func validConfig() *Config {
	return &Config{
		Data: DataConfig{
			Source: "dir",
			Dir:    "./data",
			Files:  FilesConfig{Planogram: "allplanogramdata.csv", StoreMapping: "Store_POG_Mapping.csv"},
		},
		Board:       BoardConfig{WidthInches: 46, HeightInches: 64, PaddingPx: 20},
		Matching:    MatchingConfig{FuzzyMaxDigits: 4},
		Persistence: PersistenceConfig{Driver: "memory"},
	}
}

func TestValidate(t *testing.T) {
	t.Run("validates successfully with all required fields", func(t *testing.T) {
		if err := validate(validConfig()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown data source", func(c *Config) { c.Data.Source = "ftp" }},
		{"empty data dir", func(c *Config) { c.Data.Dir = "" }},
		{"watch over http", func(c *Config) {
			c.Data.Source = "http"
			c.Data.BaseURL = "https://example.com"
			c.Data.Watch = true
		}},
		{"missing planogram file", func(c *Config) { c.Data.Files.Planogram = "" }},
		{"zero board width", func(c *Config) { c.Board.WidthInches = 0 }},
		{"negative padding", func(c *Config) { c.Board.PaddingPx = -1 }},
		{"negative fuzzy digits", func(c *Config) { c.Matching.FuzzyMaxDigits = -1 }},
		{"unknown persistence driver", func(c *Config) { c.Persistence.Driver = "redis" }},
		{"sqlite without path", func(c *Config) { c.Persistence.Driver = "sqlite" }},
		{"negative rate limit", func(c *Config) { c.RateLimit.PerIP = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := validate(cfg); err == nil {
				t.Error("validate() error = nil, want error")
			}
		})
	}
}

func TestInitLogger(t *testing.T) {
	t.Run("builds json logger", func(t *testing.T) {
		logger, err := InitLogger(LogConfig{Level: "warn", Format: "json"})
		if err != nil {
			t.Fatalf("InitLogger() error = %v", err)
		}
		if logger.Core().Enabled(zapcore.DebugLevel) {
			t.Error("debug level enabled, want warn and above only")
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		if _, err := InitLogger(LogConfig{Level: "loud"}); err == nil {
			t.Error("InitLogger() error = nil, want error")
		}
	})
}
