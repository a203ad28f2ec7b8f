package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix marks environment overrides.
const EnvPrefix = "HEALTHVIZ_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (HEALTHVIZ_*). A double underscore
// separates nested keys: HEALTHVIZ_SERVER__PORT sets server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validVariants is the set of recognized chart variants.
var validVariants = map[Variant]bool{
	VariantBar:     true,
	VariantTreemap: true,
	VariantBubble:  true,
}

// ParseVariant checks a variant name. An empty name is the bar chart.
func ParseVariant(s string) (Variant, error) {
	if s == "" {
		return VariantBar, nil
	}
	v := Variant(strings.ToLower(s))
	if !validVariants[v] {
		return "", fmt.Errorf("invalid variant %q: must be one of bar, treemap, bubble", s)
	}
	return v, nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}

	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart width and height must be positive")
	}
	if c.Chart.DurationMS < 0 || c.Chart.ResetDurationMS < 0 || c.Chart.StaggerMS < 0 {
		return fmt.Errorf("chart durations must be non-negative")
	}
	if c.Chart.Separator == "" {
		return fmt.Errorf("chart.separator is required")
	}
	if c.Chart.LabelLimit <= 0 {
		return fmt.Errorf("chart.label_limit must be positive")
	}

	if c.Treemap.Width <= 0 || c.Treemap.Height <= 0 {
		return fmt.Errorf("treemap width and height must be positive")
	}

	if c.Force.Width <= 0 || c.Force.Height <= 0 {
		return fmt.Errorf("force width and height must be positive")
	}
	if c.Force.MaxRadius <= 0 {
		return fmt.Errorf("force.max_radius must be positive")
	}
	if c.Force.Strength <= 0 || c.Force.Strength > 1 {
		return fmt.Errorf("force.strength must be in (0, 1]")
	}
	if c.Force.AlphaDecay <= 0 || c.Force.AlphaDecay >= 1 {
		return fmt.Errorf("force.alpha_decay must be in (0, 1)")
	}
	if c.Force.MaxIterations <= 0 {
		return fmt.Errorf("force.max_iterations must be positive")
	}

	return nil
}
