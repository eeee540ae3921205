package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gemstage/gemstage/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize gemstage configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure gemstage and generates a .gemstage.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
