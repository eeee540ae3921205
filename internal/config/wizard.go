package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .gemstage.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to gemstage! Let's set up your studio.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select image provider",
		Items: []string{"gemini", "openai"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	// 2. Quality tier.
	qualityPrompt := promptui.Select{
		Label: "Select quality tier",
		Items: []string{
			"lite   — fast & cheap analysis",
			"normal — balanced",
			"max    — best analysis model",
		},
	}
	qualityIdx, _, err := qualityPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("quality selection: %w", err)
	}
	tiers := []QualityTier{QualityLite, QualityNormal, QualityMax}
	quality := tiers[qualityIdx]

	preset := GetPreset(provider, quality)

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory for projects and rendered images",
		Default: ".gemstage",
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 4. Scenes per shoot.
	scenesPrompt := promptui.Prompt{
		Label:   "Staged scenes per shoot",
		Default: "6",
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				return fmt.Errorf("must be a positive number")
			}
			return nil
		},
	}
	scenesStr, err := scenesPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("scene count: %w", err)
	}
	sceneCount, _ := strconv.Atoi(scenesStr)

	// 5. Optional brand logo.
	logoPrompt := promptui.Prompt{
		Label:   "Path to brand logo image (leave blank for none)",
		Default: "",
	}
	logoPath, err := logoPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("logo path: %w", err)
	}

	// Build the config from defaults plus answers.
	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Quality = quality
	cfg.AnalysisModel = preset.AnalysisModel
	cfg.ImageModel = preset.ImageModel
	cfg.DataDir = dataDir
	cfg.SceneCount = sceneCount
	cfg.LogoPath = logoPath

	// Check for API key.
	envVar := APIKeyEnvVar(provider)
	if envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running gemstage shoot.\n", envVar)
		}
	}

	if err := cfg.Save(".gemstage.yml"); err != nil {
		return nil, err
	}
	fmt.Println("\nSaved configuration to .gemstage.yml")

	return cfg, nil
}
