package config

// QualityTier controls the model selection and trade-off between speed/cost and quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies a generative image/vision provider.
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOpenAI ProviderType = "openai"
)

// Config is the top-level gemstage configuration, corresponding to .gemstage.yml.
type Config struct {
	Provider       ProviderType `yaml:"provider" koanf:"provider"`
	AnalysisModel  string       `yaml:"analysis_model" koanf:"analysis_model"`
	ImageModel     string       `yaml:"image_model" koanf:"image_model"`
	Quality        QualityTier  `yaml:"quality" koanf:"quality"`
	DataDir        string       `yaml:"data_dir" koanf:"data_dir"`
	Port           int          `yaml:"port" koanf:"port"`
	SceneCount     int          `yaml:"scene_count" koanf:"scene_count"`
	StaggerMS      int          `yaml:"stagger_ms" koanf:"stagger_ms"`
	MaxConcurrency int          `yaml:"max_concurrency" koanf:"max_concurrency"`
	RequestsPerMin int          `yaml:"requests_per_min" koanf:"requests_per_min"`
	LogoPath       string       `yaml:"logo_path" koanf:"logo_path"`
	MaxUploadMB    int          `yaml:"max_upload_mb" koanf:"max_upload_mb"`
	CORSAllowAll   bool         `yaml:"cors_allow_all" koanf:"cors_allow_all"`
}
