package studio

import "github.com/gemstage/gemstage/internal/ai"

// Gemstone is one stone identified in the analysis.
type Gemstone struct {
	Name  string `json:"name"`
	Cut   string `json:"cut,omitempty"`
	Color string `json:"color,omitempty"`
}

// Analysis is the structured appraisal of an uploaded product photo.
type Analysis struct {
	ItemType      string     `json:"item_type"`
	Materials     []string   `json:"materials"`
	Gemstones     []Gemstone `json:"gemstones"`
	Style         string     `json:"style"`
	Setting       string     `json:"setting"`
	ColorPalette  []string   `json:"color_palette"`
	Craftsmanship string     `json:"craftsmanship"`
	MarketingLine string     `json:"marketing_line"`
	WearPosition  string     `json:"wear_position"`
}

// AnalyzeResult holds the analysis plus token usage.
type AnalyzeResult struct {
	Analysis     *Analysis
	Raw          string
	InputTokens  int
	OutputTokens int
}

// Status is the terminal state of one generated image.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// ShootRequest describes one staged photo shoot.
type ShootRequest struct {
	Product  ai.InlineImage
	Logo     *ai.InlineImage
	Analysis *Analysis
	// SceneIDs selects catalog scenes; empty means the default catalog
	// trimmed to SceneCount.
	SceneIDs   []string
	SceneCount int
	ItemSize   string
}

// SceneResult is the outcome of one staged scene render.
type SceneResult struct {
	SceneID string
	Label   string
	Status  Status
	Image   ai.InlineImage
	Err     error
}

// ShootResult collects every scene outcome of a shoot, in request order.
type ShootResult struct {
	Scenes       []SceneResult
	InputTokens  int
	OutputTokens int
}

// ProgressFunc is called after each scene reaches a terminal state.
type ProgressFunc func(done, total int, scene SceneResult)
