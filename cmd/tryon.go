package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gemstage/gemstage/internal/assets"
	"github.com/gemstage/gemstage/internal/projects"
	"github.com/gemstage/gemstage/internal/studio"
)

var tryonCmd = &cobra.Command{
	Use:   "tryon <product-photo> <model-photo>",
	Short: "Composite a virtual try-on of the piece worn by the model",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		product, err := loadImageFile(args[0])
		if err != nil {
			return err
		}
		model, err := loadImageFile(args[1])
		if err != nil {
			return err
		}

		st, err := createStudioFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating studio: %w", err)
		}

		fmt.Fprintln(os.Stderr, "Compositing virtual try-on...")
		resp, err := st.TryOn(ctx, product, model, nil)
		if err != nil {
			return fmt.Errorf("compositing try-on: %w", err)
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = "tryon" + extForMIME(resp.Image.MimeType)
		}
		if err := os.WriteFile(out, resp.Image.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", out)

		if projectID, _ := cmd.Flags().GetString("project"); projectID != "" {
			database, err := openDatabase(cfg)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()

			files, err := assets.NewStore(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("creating image store: %w", err)
			}
			path, err := files.Save(resp.Image.Data, resp.Image.MimeType)
			if err != nil {
				return err
			}
			img := &projects.GeneratedImage{
				Kind:      projects.KindTryOn,
				Label:     "Virtual try-on",
				Status:    string(studio.StatusDone),
				ImagePath: path,
				MimeType:  resp.Image.MimeType,
			}
			if err := projects.NewStore(database).AddImage(ctx, projectID, img); err != nil {
				return fmt.Errorf("attaching to project %s: %w", projectID, err)
			}
			fmt.Fprintf(os.Stderr, "Attached to project %s\n", projectID)
		}
		return nil
	},
}

func init() {
	tryonCmd.Flags().String("out", "", "output file (default tryon.<ext>)")
	tryonCmd.Flags().String("project", "", "attach the result to an existing project")
	rootCmd.AddCommand(tryonCmd)
}
