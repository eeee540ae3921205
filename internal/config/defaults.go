package config

// QualityPreset describes the models to use for a given quality tier.
type QualityPreset struct {
	AnalysisModel string
	ImageModel    string
}

// qualityPresets maps each provider+quality combination to its model choices.
// Image rendering for Gemini always goes through the image-output flash model;
// the tiers trade off the analysis model.
var qualityPresets = map[ProviderType]map[QualityTier]QualityPreset{
	ProviderGemini: {
		QualityLite:   {AnalysisModel: "gemini-2.5-flash-lite", ImageModel: "gemini-2.5-flash-image"},
		QualityNormal: {AnalysisModel: "gemini-2.5-flash", ImageModel: "gemini-2.5-flash-image"},
		QualityMax:    {AnalysisModel: "gemini-2.5-pro", ImageModel: "gemini-2.5-flash-image"},
	},
	ProviderOpenAI: {
		QualityLite:   {AnalysisModel: "gpt-4o-mini", ImageModel: "dall-e-3"},
		QualityNormal: {AnalysisModel: "gpt-4o", ImageModel: "dall-e-3"},
		QualityMax:    {AnalysisModel: "gpt-4o", ImageModel: "gpt-image-1"},
	},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderGemini,
		AnalysisModel:  "gemini-2.5-flash",
		ImageModel:     "gemini-2.5-flash-image",
		Quality:        QualityNormal,
		DataDir:        ".gemstage",
		Port:           8480,
		SceneCount:     6,
		StaggerMS:      400,
		MaxConcurrency: 3,
		RequestsPerMin: 10,
		MaxUploadMB:    12,
	}
}

// GetPreset returns the quality preset for the given provider and tier.
// Returns the Normal Gemini preset if the combination is not found.
func GetPreset(provider ProviderType, tier QualityTier) QualityPreset {
	if tiers, ok := qualityPresets[provider]; ok {
		if preset, ok := tiers[tier]; ok {
			return preset
		}
	}
	return qualityPresets[ProviderGemini][QualityNormal]
}
