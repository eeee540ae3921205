package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <product-photo>",
	Short: "Analyze a jewelry photo and print the structured appraisal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		photo, err := loadImageFile(args[0])
		if err != nil {
			return err
		}

		st, err := createStudioFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating studio: %w", err)
		}

		result, err := st.Analyze(context.Background(), photo)
		if err != nil {
			return fmt.Errorf("analyzing photo: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Analysis); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Tokens: %d in, %d out\n", result.InputTokens, result.OutputTokens)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
