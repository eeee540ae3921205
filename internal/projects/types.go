package projects

import (
	"encoding/json"
	"time"
)

// Kind distinguishes what produced a generated image.
type Kind string

const (
	KindScene Kind = "scene"
	KindTryOn Kind = "tryon"
	KindEdit  Kind = "edit"
)

// GeneratedImage is one rendered output belonging to a project. Image bytes
// live on disk under the data dir; ImagePath is the stored file name.
type GeneratedImage struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Kind      Kind      `json:"kind"`
	SceneID   string    `json:"scene_id,omitempty"`
	Label     string    `json:"label,omitempty"`
	Status    string    `json:"status"`
	ImagePath string    `json:"image_path,omitempty"`
	MimeType  string    `json:"mime_type,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is one saved studio session: the uploads, the analysis, and every
// generated image.
type Project struct {
	ID           string           `json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	Title        string           `json:"title"`
	ProductImage string           `json:"product_image"`
	ProductMime  string           `json:"product_mime"`
	ModelImage   string           `json:"model_image,omitempty"`
	ModelMime    string           `json:"model_mime,omitempty"`
	ItemSize     string           `json:"item_size,omitempty"`
	Analysis     json.RawMessage  `json:"analysis"`
	Images       []GeneratedImage `json:"images"`
}
