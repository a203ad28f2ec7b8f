package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/healthviz/internal/dataset"
	"github.com/ziadkadry99/healthviz/internal/progress"
)

var importCmd = &cobra.Command{
	Use:   "import <csv>",
	Short: "Import a tabular dataset into the observation database",
	Long: `Reads an OECD-style CSV (Country, Technology_Types, Availability_Category,
Year, OBS_VALUE) and stores its rows in the SQLite database from the config.
Rows with an empty Year or OBS_VALUE are skipped. Re-importing a row with the
same country, technology and year replaces it.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	res, err := dataset.ReadObservations(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	reporter := progress.NewReporter()
	reporter.Start(len(res.Observations))
	imp, err := dataset.NewStore(database).Import(ctx, path, res, func(done int) {
		reporter.Update(done, res.Observations[done-1].ID)
	})
	reporter.Finish()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Imported %d observations from %s", imp.Rows, path)
	if imp.Skipped > 0 {
		fmt.Fprintf(os.Stderr, " (%d rows skipped)", imp.Skipped)
	}
	fmt.Fprintln(os.Stderr)
	if verbose {
		fmt.Fprintf(os.Stderr, "  Import ID: %s\n  Database: %s\n", imp.ID, database.Path())
	}
	return nil
}
