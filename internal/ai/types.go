package ai

// InlineImage is an image payload attached to a request or returned by a provider.
type InlineImage struct {
	MimeType string
	Data     []byte
}

// AnalysisRequest contains the parameters for a multimodal analysis request.
type AnalysisRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
	Image        InlineImage
	MaxTokens    int
	Temperature  float64
	JSONMode     bool
}

// AnalysisResponse contains the result of an analysis request.
type AnalysisResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// ImageRequest contains the parameters for an image generation request.
// Images carries reference photos (product, logo, model, or a prior render
// being edited); providers that cannot condition on references use the
// prompt alone.
type ImageRequest struct {
	Model       string
	Prompt      string
	Images      []InlineImage
	Temperature float64
}

// ImageResponse contains a generated image and any accompanying text.
type ImageResponse struct {
	Image InlineImage
	Text  string
	Model string
}
