package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/healthviz/internal/chart"
	"github.com/ziadkadry99/healthviz/internal/config"
	"github.com/ziadkadry99/healthviz/internal/hierarchy"
	"github.com/ziadkadry99/healthviz/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render <tree.json>",
	Short: "Render a settled chart view as SVG",
	Long: `Loads a hierarchical JSON dataset, drills down along --path (child names
separated by "/") and writes the settled view of the chosen variant as SVG.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().String("variant", string(config.VariantBar), "chart variant: bar, treemap, bubble")
	renderCmd.Flags().String("path", "", "drill-down path, e.g. Public/Hospitals")
	renderCmd.Flags().StringP("out", "o", "-", "output file, - for stdout")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	variant, _ := cmd.Flags().GetString("variant")
	path, _ := cmd.Flags().GetString("path")
	out, _ := cmd.Flags().GetString("out")

	v, err := config.ParseVariant(variant)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	root, err := loadTree(context.Background(), cmd.ErrOrStderr(), args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	breadcrumb, err := writeSnapshot(w, chart.New(cfg, v), root, path)
	if err != nil {
		return err
	}
	if out != "-" {
		fmt.Fprintf(os.Stderr, "Wrote %s (%s)\n", out, breadcrumb)
	}
	return nil
}

// writeSnapshot renders the settled view at path and returns its breadcrumb.
func writeSnapshot(w io.Writer, kit chart.Kit, root *hierarchy.Node, path string) (string, error) {
	var keys []string
	for _, k := range strings.Split(path, "/") {
		if k != "" {
			keys = append(keys, k)
		}
	}
	frame, err := kit.Snapshot(root, keys)
	if err != nil {
		return "", err
	}
	if err := render.SVG(w, frame, kit.Render); err != nil {
		return "", fmt.Errorf("rendering svg: %w", err)
	}
	return frame.Breadcrumb, nil
}
