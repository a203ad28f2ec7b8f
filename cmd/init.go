package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/healthviz/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize healthviz configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to locate your datasets and pick chart timing, then writes a .healthviz.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
