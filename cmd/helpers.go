package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gemstage/gemstage/internal/ai"
	"github.com/gemstage/gemstage/internal/assets"
	"github.com/gemstage/gemstage/internal/config"
	"github.com/gemstage/gemstage/internal/db"
	"github.com/gemstage/gemstage/internal/studio"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `gemstage init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createProviderFromConfig creates the AI provider with rate limiting applied.
func createProviderFromConfig(cfg *config.Config) (ai.Provider, error) {
	provider, err := ai.NewProvider(string(cfg.Provider), cfg.AnalysisModel, cfg.ImageModel)
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerMin > 0 {
		provider = ai.NewRateLimitedProvider(provider, cfg.RequestsPerMin)
	}
	return provider, nil
}

// createStudioFromConfig builds the shoot orchestrator from config settings.
func createStudioFromConfig(cfg *config.Config) (*studio.Studio, error) {
	provider, err := createProviderFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return studio.New(provider, studio.Options{
		AnalysisModel:  cfg.AnalysisModel,
		ImageModel:     cfg.ImageModel,
		StaggerDelay:   time.Duration(cfg.StaggerMS) * time.Millisecond,
		MaxConcurrency: cfg.MaxConcurrency,
	}), nil
}

// openDatabase opens the project database inside the data directory.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	return db.Open(filepath.Join(cfg.DataDir, "gemstage.db"))
}

// loadImageFile reads an image from disk and verifies it is a supported format.
func loadImageFile(path string) (ai.InlineImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ai.InlineImage{}, fmt.Errorf("reading %s: %w", path, err)
	}
	mime, err := assets.ValidateUpload(data)
	if err != nil {
		return ai.InlineImage{}, fmt.Errorf("%s: %w", path, err)
	}
	return ai.InlineImage{MimeType: mime, Data: data}, nil
}
