package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap equals window size", func(c *Config) { c.Analysis.Overlap = c.Analysis.WindowSize }},
		{"overlap above window size", func(c *Config) { c.Analysis.Overlap = c.Analysis.WindowSize + 2 }},
		{"zero window size", func(c *Config) { c.Analysis.WindowSize = 0 }},
		{"confidence above one", func(c *Config) { c.Analysis.MinConfidence = 1.5 }},
		{"negative confidence", func(c *Config) { c.Analysis.MinConfidence = -0.1 }},
		{"unknown stats mode", func(c *Config) { c.Analysis.StatsMode = "bayesian" }},
		{"threshold above one", func(c *Config) { c.Thresholds.FillerRate = 1.2 }},
		{"zero threshold", func(c *Config) { c.Thresholds.LexicalDiversity = 0 }},
		{"zero cache entries", func(c *Config) { c.Cache.MaxEntries = 0 }},
		{"event without keywords", func(c *Config) { c.Events = []Event{{Type: "death", Weight: 1}} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestHashChangesWithConfig(t *testing.T) {
	a := Default()
	b := Default()
	if a.Hash() != b.Hash() {
		t.Fatal("identical configs must hash identically")
	}
	b.Thresholds.FillerRate = 0.20
	if a.Hash() == b.Hash() {
		t.Fatal("different configs must not share a hash")
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("analysis:\n  window_size: 4\n  overlap: 2\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Analysis.WindowSize != 4 || cfg.Analysis.Overlap != 2 {
		t.Fatalf("overlay not applied: %+v", cfg.Analysis)
	}
	if cfg.Analysis.MinConfidence != 0.6 {
		t.Fatalf("defaults lost in overlay: %+v", cfg.Analysis)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("analysis:\n  window_size: 2\n  overlap: 2\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}
