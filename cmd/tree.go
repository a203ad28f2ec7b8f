package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/healthviz/internal/hierarchy"
)

var treeCmd = &cobra.Command{
	Use:   "tree <tree.json>",
	Short: "Print the aggregated tree",
	Long:  `Loads a hierarchical JSON dataset and prints every node with its aggregated value, largest first.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		depth, _ := cmd.Flags().GetInt("depth")
		breadcrumbs, _ := cmd.Flags().GetBool("breadcrumbs")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		root, err := loadTree(context.Background(), cmd.ErrOrStderr(), args[0])
		if err != nil {
			return err
		}
		printTree(cmd.OutOrStdout(), root, depth, breadcrumbs, cfg.Chart.Separator)
		return nil
	},
}

func init() {
	treeCmd.Flags().Int("depth", 0, "maximum depth to print, 0 for all")
	treeCmd.Flags().Bool("breadcrumbs", false, "print the full breadcrumb of each node")
	rootCmd.AddCommand(treeCmd)
}

func printTree(w io.Writer, root *hierarchy.Node, maxDepth int, breadcrumbs bool, sep string) {
	root.Walk(func(n *hierarchy.Node) bool {
		d := n.Depth()
		if maxDepth > 0 && d > maxDepth {
			return false
		}
		label := n.Name
		if breadcrumbs {
			label = n.PathString(sep)
		}
		fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", d), label, humanize.Commaf(n.Value))
		return true
	})
}
