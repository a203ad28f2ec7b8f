package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// dataDirCandidates are directories that usually hold the chart datasets.
var dataDirCandidates = []string{"data", "cleaned", "json", "datasets"}

// detectDataDir returns the first candidate directory present in the
// current directory.
func detectDataDir() string {
	for _, dir := range dataDirCandidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return "data"
}

// RunWizard runs an interactive configuration wizard and saves the result
// to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to healthviz! Let's configure your charts.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Data directory.
	dataDir := detectDataDir()
	if dataDir != "data" {
		fmt.Printf("Detected dataset directory: %s\n\n", dataDir)
	}
	dataPrompt := promptui.Prompt{
		Label:   "Dataset directory",
		Default: dataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	cfg.DataDir = dataDir
	cfg.Database = filepath.Join(dataDir, "healthviz.db")

	// 2. Include patterns.
	includePrompt := promptui.Prompt{
		Label:   "Dataset patterns (comma-separated globs)",
		Default: strings.Join(DefaultInclude, ","),
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	if include := splitAndTrim(includeStr); len(include) > 0 {
		cfg.Include = include
	}

	// 3. Animation speed.
	labels := make([]string, len(speedPresets))
	for i, p := range speedPresets {
		labels[i] = p.Label
	}
	speedPrompt := promptui.Select{
		Label: "Select animation speed",
		Items: labels,
	}
	speedIdx, _, err := speedPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("speed selection: %w", err)
	}
	preset := speedPresets[speedIdx]
	cfg.Chart.DurationMS = preset.Duration
	cfg.Chart.ResetDurationMS = preset.Reset
	cfg.Chart.StaggerMS = preset.Stagger

	// 4. Server port.
	portPrompt := promptui.Prompt{
		Label:    "Server port",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
