package ai

import "context"

// Provider defines the interface for generative image/vision providers.
type Provider interface {
	// AnalyzeItem sends a photo with an analysis prompt and returns the
	// model's textual (usually JSON) response.
	AnalyzeItem(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error)
	// GenerateImage renders an image from a prompt and reference photos.
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error)
	// Name returns the name of this provider.
	Name() string
}
