package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/ziadkadry99/healthviz/internal/config"
	"github.com/ziadkadry99/healthviz/internal/dataset"
	"github.com/ziadkadry99/healthviz/internal/db"
	"github.com/ziadkadry99/healthviz/internal/hierarchy"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `healthviz init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openDatabase opens the observation database named in cfg.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.Database, err)
	}
	return database, nil
}

// loadTree reads a tree dataset through a one-shot loader. Verbose status
// goes to status, never to the command output.
func loadTree(ctx context.Context, status io.Writer, path string) (*hierarchy.Node, error) {
	l := dataset.NewLoader(path, dataset.FileSource(path))
	if verbose {
		l.OnReady(func(root *hierarchy.Node) {
			fmt.Fprintf(status, "Loaded %s: %d leaves\n", path, len(root.Leaves()))
		})
	}
	return l.Fetch(ctx)
}
