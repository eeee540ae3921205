package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "gemstage",
	Short: "AI-staged product photography for jewelry",
	Long: `Gemstage turns a single photo of a jewelry piece into a set of staged
product photos. It analyzes the piece with a multimodal model, renders
it into a catalog of studio scenes, composites a virtual try-on from a
model photo, and keeps every shoot in a local project archive.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".gemstage.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
