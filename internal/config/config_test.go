package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_IsValidWithKey(t *testing.T) {
	cfg := Default()
	cfg.Oracle.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shortreel.toml")
	data := `
[clips]
max_highlights = 3
language = "pt"

[oracle]
provider = "ollama"
model = "llama3.1"

[faces]
detect_every_n = 10
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Clips.MaxHighlights != 3 {
		t.Fatalf("max_highlights = %d, want 3", cfg.Clips.MaxHighlights)
	}
	if cfg.Clips.Language != "pt" {
		t.Fatalf("language = %q, want pt", cfg.Clips.Language)
	}
	if cfg.Faces.DetectEveryN != 10 {
		t.Fatalf("detect_every_n = %d, want 10", cfg.Faces.DetectEveryN)
	}
	// Untouched sections keep their defaults.
	if cfg.Clips.MinDurationSec != 10 {
		t.Fatalf("min_duration_sec lost its default: %v", cfg.Clips.MinDurationSec)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("merged config should validate: %v", err)
	}
}

func TestLoad_EnvOverlay(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "from-env")
	t.Setenv("ORACLE_MODEL", "model-from-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Oracle.APIKey != "from-env" {
		t.Fatalf("api key not overlaid: %q", cfg.Oracle.APIKey)
	}
	if cfg.Oracle.Model != "model-from-env" {
		t.Fatalf("model not overlaid: %q", cfg.Oracle.Model)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "min above max duration",
			mutate:  func(c *Config) { c.Clips.MinDurationSec = 90 },
			wantSub: "min_duration_sec",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Oracle.Provider = "carrier-pigeon" },
			wantSub: "oneof",
		},
		{
			name:    "missing api key for openrouter",
			mutate:  func(c *Config) { c.Oracle.APIKey = "" },
			wantSub: "OPENROUTER_API_KEY",
		},
		{
			name:    "zero highlights",
			mutate:  func(c *Config) { c.Clips.MaxHighlights = 0 },
			wantSub: "MaxHighlights",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Oracle.APIKey = "k"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("error %q does not mention %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
