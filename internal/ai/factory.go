package ai

import (
	"fmt"
	"os"
)

// NewProvider creates a provider based on the given provider type and models.
// Supported provider types: "gemini", "openai".
func NewProvider(providerType, analysisModel, imageModel string) (Provider, error) {
	switch providerType {
	case "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
		}
		return NewGeminiProvider(apiKey, analysisModel, imageModel), nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, analysisModel, imageModel), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
