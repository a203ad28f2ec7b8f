package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Chart.Width != 1300 || cfg.Chart.Height != 400 {
		t.Errorf("chart canvas = %dx%d, want 1300x400", cfg.Chart.Width, cfg.Chart.Height)
	}
	if cfg.Chart.Duration() != 750*time.Millisecond {
		t.Errorf("Duration = %v", cfg.Chart.Duration())
	}
	if cfg.Chart.ResetDuration() != 375*time.Millisecond {
		t.Errorf("ResetDuration = %v", cfg.Chart.ResetDuration())
	}
	if cfg.Chart.Stagger() != 50*time.Millisecond {
		t.Errorf("Stagger = %v", cfg.Chart.Stagger())
	}
	if cfg.Chart.Separator != " -> " {
		t.Errorf("Separator = %q", cfg.Chart.Separator)
	}
	if cfg.Treemap.Width != 928 || cfg.Treemap.Height != 1010 {
		t.Errorf("treemap canvas = %dx%d", cfg.Treemap.Width, cfg.Treemap.Height)
	}
	if cfg.Force.MaxIterations != 300 || cfg.Force.AlphaDecay != 0.05 {
		t.Errorf("force = %+v", cfg.Force)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.healthviz.yml")

	original := DefaultConfig()
	original.DataDir = "cleaned"
	original.Include = []string{"**/*.csv", "maps/*.json"}
	original.Server.Port = 9000
	original.Chart.Separator = " / "
	original.Force.Strength = 0.1

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.DataDir != original.DataDir {
		t.Errorf("data_dir: got %q, want %q", loaded.DataDir, original.DataDir)
	}
	if loaded.Server.Port != 9000 {
		t.Errorf("server.port: got %d, want 9000", loaded.Server.Port)
	}
	if loaded.Chart.Separator != " / " {
		t.Errorf("chart.separator: got %q", loaded.Chart.Separator)
	}
	if loaded.Force.Strength != 0.1 {
		t.Errorf("force.strength: got %v", loaded.Force.Strength)
	}
	if len(loaded.Include) != len(original.Include) {
		t.Fatalf("include length: got %d, want %d", len(loaded.Include), len(original.Include))
	}
	for i, v := range loaded.Include {
		if v != original.Include[i] {
			t.Errorf("include[%d]: got %q, want %q", i, v, original.Include[i])
		}
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yml")
	if err := os.WriteFile(path, []byte("chart:\n  duration_ms: 1000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Chart.DurationMS != 1000 {
		t.Errorf("duration_ms = %d, want 1000", cfg.Chart.DurationMS)
	}
	if cfg.Chart.Width != 1300 || cfg.Chart.Separator != " -> " {
		t.Errorf("defaults lost: %+v", cfg.Chart)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.DataDir != "data" {
		t.Errorf("expected default data_dir, got %q", cfg.DataDir)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yml")
	if err := os.WriteFile(path, []byte("chart: [unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("HEALTHVIZ_DATA_DIR", "/srv/oecd")
	t.Setenv("HEALTHVIZ_SERVER__PORT", "9090")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.DataDir != "/srv/oecd" {
		t.Errorf("env override failed: got %q", loaded.DataDir)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("nested env override failed: got %d", loaded.Server.Port)
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"HEALTHVIZ_DATA_DIR":           "data_dir",
		"HEALTHVIZ_SERVER__ALLOW_ALL":  "server.allow_all",
		"HEALTHVIZ_FORCE__MAX_RADIUS":  "force.max_radius",
		"HEALTHVIZ_CHART__LABEL_LIMIT": "chart.label_limit",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"empty database", func(c *Config) { c.Database = "" }},
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"zero width", func(c *Config) { c.Chart.Width = 0 }},
		{"negative duration", func(c *Config) { c.Chart.DurationMS = -1 }},
		{"empty separator", func(c *Config) { c.Chart.Separator = "" }},
		{"zero label limit", func(c *Config) { c.Chart.LabelLimit = 0 }},
		{"treemap height", func(c *Config) { c.Treemap.Height = -5 }},
		{"radius", func(c *Config) { c.Force.MaxRadius = 0 }},
		{"strength", func(c *Config) { c.Force.Strength = 2 }},
		{"alpha decay", func(c *Config) { c.Force.AlphaDecay = 1 }},
		{"iterations", func(c *Config) { c.Force.MaxIterations = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{"", VariantBar, false},
		{"bar", VariantBar, false},
		{"Treemap", VariantTreemap, false},
		{"bubble", VariantBubble, false},
		{"pie", "", true},
	}
	for _, tt := range tests {
		got, err := ParseVariant(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseVariant(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestValidatePort(t *testing.T) {
	for _, ok := range []string{"1", "8080", " 65535 "} {
		if err := validatePort(ok); err != nil {
			t.Errorf("validatePort(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "0", "http", "65536"} {
		if err := validatePort(bad); err == nil {
			t.Errorf("validatePort(%q) should fail", bad)
		}
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"**/*.csv", []string{"**/*.csv"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}
