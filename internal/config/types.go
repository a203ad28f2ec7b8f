package config

import "time"

// Variant names a chart type.
type Variant string

const (
	VariantBar     Variant = "bar"
	VariantTreemap Variant = "treemap"
	VariantBubble  Variant = "bubble"
)

// Config is the top-level healthviz configuration, corresponding to .healthviz.yml.
type Config struct {
	DataDir  string        `yaml:"data_dir" koanf:"data_dir"`
	Database string        `yaml:"database" koanf:"database"`
	Include  []string      `yaml:"include" koanf:"include"`
	Server   ServerConfig  `yaml:"server" koanf:"server"`
	Chart    ChartConfig   `yaml:"chart" koanf:"chart"`
	Treemap  TreemapConfig `yaml:"treemap" koanf:"treemap"`
	Force    ForceConfig   `yaml:"force" koanf:"force"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"` // allow any CORS origin
}

// ChartConfig holds the bar chart canvas and the transition timing shared
// by every variant.
type ChartConfig struct {
	Title           string `yaml:"title" koanf:"title"`
	Width           int    `yaml:"width" koanf:"width"`
	Height          int    `yaml:"height" koanf:"height"`
	DurationMS      int    `yaml:"duration_ms" koanf:"duration_ms"`
	ResetDurationMS int    `yaml:"reset_duration_ms" koanf:"reset_duration_ms"`
	StaggerMS       int    `yaml:"stagger_ms" koanf:"stagger_ms"`
	Separator       string `yaml:"separator" koanf:"separator"`
	LabelLimit      int    `yaml:"label_limit" koanf:"label_limit"`
}

// Duration is the drill transition length.
func (c ChartConfig) Duration() time.Duration {
	return time.Duration(c.DurationMS) * time.Millisecond
}

// ResetDuration is the length of the double-click reset.
func (c ChartConfig) ResetDuration() time.Duration {
	return time.Duration(c.ResetDurationMS) * time.Millisecond
}

// Stagger is the delay added per slot.
func (c ChartConfig) Stagger() time.Duration {
	return time.Duration(c.StaggerMS) * time.Millisecond
}

// TreemapConfig holds the treemap canvas.
type TreemapConfig struct {
	Title  string `yaml:"title" koanf:"title"`
	Width  int    `yaml:"width" koanf:"width"`
	Height int    `yaml:"height" koanf:"height"`
}

// ForceConfig holds the bubble chart canvas and simulation.
type ForceConfig struct {
	Title         string  `yaml:"title" koanf:"title"`
	Width         int     `yaml:"width" koanf:"width"`
	Height        int     `yaml:"height" koanf:"height"`
	MaxRadius     float64 `yaml:"max_radius" koanf:"max_radius"`
	Strength      float64 `yaml:"strength" koanf:"strength"`
	AlphaDecay    float64 `yaml:"alpha_decay" koanf:"alpha_decay"`
	MaxIterations int     `yaml:"max_iterations" koanf:"max_iterations"`
}
