package config

// FileName is the default configuration file.
const FileName = ".healthviz.yml"

// DefaultInclude are the dataset globs searched under data_dir.
var DefaultInclude = []string{"**/*.json", "**/*.csv", "**/*.geojson"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  "data",
		Database: "data/healthviz.db",
		Include:  DefaultInclude,
		Server: ServerConfig{
			Port:     8080,
			AllowAll: false,
		},
		Chart: ChartConfig{
			Title:           "Distribution of Hospitals by Type and Ownership (2010 vs 2020)",
			Width:           1300,
			Height:          400,
			DurationMS:      750,
			ResetDurationMS: 375,
			StaggerMS:       50,
			Separator:       " -> ",
			LabelLimit:      20,
		},
		Treemap: TreemapConfig{
			Title:  "MRI units",
			Width:  928,
			Height: 1010,
		},
		Force: ForceConfig{
			Title:         "Medical Technology Availability",
			Width:         900,
			Height:        600,
			MaxRadius:     40,
			Strength:      0.05,
			AlphaDecay:    0.05,
			MaxIterations: 300,
		},
	}
}

// speedPresets maps wizard choices to durations in milliseconds.
var speedPresets = []struct {
	Label           string
	Duration, Reset int
	Stagger         int
}{
	{Label: "standard: 750ms drills, 375ms reset", Duration: 750, Reset: 375, Stagger: 50},
	{Label: "fast: 375ms drills, 200ms reset", Duration: 375, Reset: 200, Stagger: 25},
	{Label: "slow: 1500ms drills, 750ms reset", Duration: 1500, Reset: 750, Stagger: 100},
}
