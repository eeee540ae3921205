package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gemstage/gemstage/internal/ai"
	"github.com/gemstage/gemstage/internal/assets"
	"github.com/gemstage/gemstage/internal/config"
	"github.com/gemstage/gemstage/internal/progress"
	"github.com/gemstage/gemstage/internal/projects"
	"github.com/gemstage/gemstage/internal/studio"
)

var shootCmd = &cobra.Command{
	Use:   "shoot <product-photo>",
	Short: "Run a full photo shoot for one jewelry piece",
	Long: `Analyzes the jewelry piece in the photo, renders it into the staged
scene catalog, optionally composites a virtual try-on from a model
photo, and saves everything as a project.`,
	Args: cobra.ExactArgs(1),
	RunE: runShoot,
}

func init() {
	shootCmd.Flags().String("model", "", "model photo for the virtual try-on")
	shootCmd.Flags().String("logo", "", "brand logo to engrave into renders (overrides config)")
	shootCmd.Flags().String("scenes", "", "comma-separated scene ids (default: the scene catalog)")
	shootCmd.Flags().Int("count", 0, "number of scenes to render (overrides config)")
	shootCmd.Flags().String("size", "", "physical size hint, e.g. '18mm band'")
	shootCmd.Flags().String("title", "", "project title")
	shootCmd.Flags().String("out", "", "directory to also write rendered images into")
	rootCmd.AddCommand(shootCmd)
}

func runShoot(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	count, _ := cmd.Flags().GetInt("count")
	if count > 0 {
		cfg.SceneCount = count
	}

	product, err := loadImageFile(args[0])
	if err != nil {
		return err
	}

	var model *ai.InlineImage
	if path, _ := cmd.Flags().GetString("model"); path != "" {
		img, err := loadImageFile(path)
		if err != nil {
			return err
		}
		model = &img
	}

	logoPath, _ := cmd.Flags().GetString("logo")
	if logoPath == "" {
		logoPath = cfg.LogoPath
	}
	var logo *ai.InlineImage
	if logoPath != "" {
		img, err := loadImageFile(logoPath)
		if err != nil {
			return err
		}
		logo = &img
	}

	var sceneIDs []string
	if list, _ := cmd.Flags().GetString("scenes"); list != "" {
		for _, id := range strings.Split(list, ",") {
			if id = strings.TrimSpace(id); id != "" {
				sceneIDs = append(sceneIDs, id)
			}
		}
	}

	st, err := createStudioFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating studio: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Analyzing piece...")
	analysis, err := st.Analyze(ctx, product)
	if err != nil {
		return fmt.Errorf("analyzing photo: %w", err)
	}
	if verbose {
		raw, _ := json.MarshalIndent(analysis.Analysis, "", "  ")
		fmt.Fprintf(os.Stderr, "%s\n", raw)
	} else if analysis.Analysis.MarketingLine != "" {
		fmt.Fprintf(os.Stderr, "%s\n", analysis.Analysis.MarketingLine)
	}

	size, _ := cmd.Flags().GetString("size")
	req := studio.ShootRequest{
		Product:    product,
		Logo:       logo,
		Analysis:   analysis.Analysis,
		SceneIDs:   sceneIDs,
		SceneCount: cfg.SceneCount,
		ItemSize:   size,
	}

	reporter := progress.NewReporter()
	total := len(sceneIDs)
	if total == 0 {
		total = cfg.SceneCount
	}
	reporter.Start(total)

	result, err := st.RunShoot(ctx, req, func(done, totalScenes int, scene studio.SceneResult) {
		msg := scene.Label
		if scene.Status == studio.StatusFailed {
			msg += " (failed)"
		}
		reporter.Update(done, msg)
	})
	reporter.Finish()
	if err != nil {
		return fmt.Errorf("running shoot: %w", err)
	}

	var tryon *ai.ImageResponse
	if model != nil {
		fmt.Fprintln(os.Stderr, "Compositing virtual try-on...")
		tryon, err = st.TryOn(ctx, product, *model, analysis.Analysis)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: try-on failed: %v\n", err)
		}
	}

	title, _ := cmd.Flags().GetString("title")
	projectID, err := saveShootResults(ctx, cfg, title, size, product, model, analysis, result, tryon)
	if err != nil {
		return fmt.Errorf("saving project: %w", err)
	}

	if outDir, _ := cmd.Flags().GetString("out"); outDir != "" {
		if err := writeShootOutput(outDir, result, tryon); err != nil {
			return err
		}
	}

	done := 0
	for _, sc := range result.Scenes {
		if sc.Status == studio.StatusDone {
			done++
		}
	}
	fmt.Fprintf(os.Stderr, "Shoot complete: %d/%d scenes rendered in %s (project %s)\n",
		done, len(result.Scenes), time.Since(start).Round(time.Second), projectID)
	return nil
}

// saveShootResults persists the shoot as a project with its rendered files.
func saveShootResults(ctx context.Context, cfg *config.Config, title, size string, product ai.InlineImage, model *ai.InlineImage, analysis *studio.AnalyzeResult, result *studio.ShootResult, tryon *ai.ImageResponse) (string, error) {
	database, err := openDatabase(cfg)
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	files, err := assets.NewStore(cfg.DataDir)
	if err != nil {
		return "", fmt.Errorf("creating image store: %w", err)
	}

	productPath, err := files.Save(product.Data, product.MimeType)
	if err != nil {
		return "", err
	}
	p := &projects.Project{
		Title:        title,
		ProductImage: productPath,
		ProductMime:  product.MimeType,
		ItemSize:     size,
	}
	if model != nil {
		modelPath, err := files.Save(model.Data, model.MimeType)
		if err != nil {
			return "", err
		}
		p.ModelImage = modelPath
		p.ModelMime = model.MimeType
	}
	if analysis != nil && analysis.Analysis != nil {
		raw, err := json.Marshal(analysis.Analysis)
		if err != nil {
			return "", err
		}
		p.Analysis = raw
	}

	for _, sc := range result.Scenes {
		img := projects.GeneratedImage{
			Kind:    projects.KindScene,
			SceneID: sc.SceneID,
			Label:   sc.Label,
			Status:  string(sc.Status),
		}
		if sc.Status == studio.StatusDone {
			path, err := files.Save(sc.Image.Data, sc.Image.MimeType)
			if err != nil {
				return "", err
			}
			img.ImagePath = path
			img.MimeType = sc.Image.MimeType
		}
		if sc.Err != nil {
			img.Error = sc.Err.Error()
		}
		p.Images = append(p.Images, img)
	}
	if tryon != nil {
		path, err := files.Save(tryon.Image.Data, tryon.Image.MimeType)
		if err != nil {
			return "", err
		}
		p.Images = append(p.Images, projects.GeneratedImage{
			Kind:      projects.KindTryOn,
			Label:     "Virtual try-on",
			Status:    string(studio.StatusDone),
			ImagePath: path,
			MimeType:  tryon.Image.MimeType,
		})
	}

	store := projects.NewStore(database)
	if err := store.Save(ctx, p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// writeShootOutput copies rendered images into a user-facing directory.
func writeShootOutput(outDir string, result *studio.ShootResult, tryon *ai.ImageResponse) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for _, sc := range result.Scenes {
		if sc.Status != studio.StatusDone {
			continue
		}
		name := sc.SceneID + extForMIME(sc.Image.MimeType)
		if err := os.WriteFile(filepath.Join(outDir, name), sc.Image.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	if tryon != nil {
		name := "tryon" + extForMIME(tryon.Image.MimeType)
		if err := os.WriteFile(filepath.Join(outDir, name), tryon.Image.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

func extForMIME(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
