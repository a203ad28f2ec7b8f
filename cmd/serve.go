package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/healthviz/internal/dataset"
	"github.com/ziadkadry99/healthviz/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chart API and navigation server",
	Long: `Starts the HTTP server exposing the dataset catalog, SVG snapshots, filtered
observations and per-connection navigation sessions over WebSocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("allow-all") {
			cfg.Server.AllowAll, _ = cmd.Flags().GetBool("allow-all")
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			DataDir:  cfg.DataDir,
			Include:  cfg.Include,
			AllowAll: cfg.Server.AllowAll,
			Charts:   cfg,
		}, database)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		entries, err := dataset.Discover(cfg.DataDir, cfg.Include)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not scan %s: %v\n", cfg.DataDir, err)
		}
		count, err := srv.Store().Count(ctx)
		if err != nil {
			return fmt.Errorf("counting observations: %w", err)
		}

		fmt.Fprintf(os.Stderr, "healthviz server v%s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", database.Path())
		fmt.Fprintf(os.Stderr, "  Data: %s (%d datasets)\n", cfg.DataDir, len(entries))
		fmt.Fprintf(os.Stderr, "  Observations: %d\n", count)
		if verbose {
			for _, e := range entries {
				fmt.Fprintf(os.Stderr, "    %-24s %-10s %s\n", e.Name, e.Kind, e.Path)
			}
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 8080, "port to listen on (overrides server.port)")
	serveCmd.Flags().Bool("allow-all", false, "allow all CORS origins")
	rootCmd.AddCommand(serveCmd)
}
