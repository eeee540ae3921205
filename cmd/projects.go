package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gemstage/gemstage/internal/assets"
	"github.com/gemstage/gemstage/internal/projects"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Browse and manage the saved project archive",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved projects, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		list, err := projects.NewStore(database).List(context.Background(), limit, 0)
		if err != nil {
			return fmt.Errorf("listing projects: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No saved projects yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tTITLE\tIMAGES")
		for _, p := range list {
			title := p.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.ID, p.CreatedAt.Format("2006-01-02 15:04"), title, len(p.Images))
		}
		return w.Flush()
	},
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show one project and its generated images",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		p, err := projects.NewStore(database).GetByID(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("loading project: %w", err)
		}

		title := p.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s — %s\n", p.ID, title)
		fmt.Printf("Created: %s\n", p.CreatedAt.Format("2006-01-02 15:04"))
		if p.ItemSize != "" {
			fmt.Printf("Item size: %s\n", p.ItemSize)
		}
		if len(p.Analysis) > 0 && string(p.Analysis) != "{}" {
			fmt.Printf("Analysis: %s\n", p.Analysis)
		}
		if len(p.Images) > 0 {
			fmt.Println("Images:")
			for _, img := range p.Images {
				label := img.Label
				if label == "" {
					label = string(img.Kind)
				}
				fmt.Printf("  %s  [%s]  %s", img.ID, img.Status, label)
				if img.ImagePath != "" {
					fmt.Printf("  %s", filepath.Join(cfg.DataDir, "images", img.ImagePath))
				}
				if img.Error != "" {
					fmt.Printf("  (%s)", img.Error)
				}
				fmt.Println()
			}
		}
		return nil
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project and its stored images",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		paths, err := projects.NewStore(database).Delete(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("deleting project: %w", err)
		}
		for _, path := range paths {
			full := filepath.Join(cfg.DataDir, "images", path)
			if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Warning: could not remove %s: %v\n", full, err)
			}
		}
		fmt.Printf("Deleted project %s (%d files)\n", args[0], len(paths))
		return nil
	},
}

var projectsExportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Export a project's analysis and rendered images to a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		p, err := projects.NewStore(database).GetByID(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("loading project: %w", err)
		}

		outDir, _ := cmd.Flags().GetString("out")
		if outDir == "" {
			outDir = p.ID
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		files, err := assets.NewStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("creating image store: %w", err)
		}

		if len(p.Analysis) > 0 && string(p.Analysis) != "{}" {
			if err := os.WriteFile(filepath.Join(outDir, "analysis.json"), p.Analysis, 0o644); err != nil {
				return fmt.Errorf("writing analysis.json: %w", err)
			}
		}

		exported := 0
		for _, img := range p.Images {
			if img.ImagePath == "" {
				continue
			}
			data, err := files.Load(img.ImagePath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", img.ImagePath, err)
				continue
			}
			name := img.SceneID
			if name == "" {
				name = string(img.Kind)
			}
			name = fmt.Sprintf("%s-%s%s", name, img.ID[:8], extForMIME(img.MimeType))
			if err := os.WriteFile(filepath.Join(outDir, name), data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
			exported++
		}
		fmt.Printf("Exported %d images to %s\n", exported, outDir)
		return nil
	},
}

func init() {
	projectsListCmd.Flags().Int("limit", 20, "maximum projects to list")
	projectsExportCmd.Flags().String("out", "", "output directory (default: the project id)")
	projectsCmd.AddCommand(projectsListCmd, projectsShowCmd, projectsDeleteCmd, projectsExportCmd)
	rootCmd.AddCommand(projectsCmd)
}
