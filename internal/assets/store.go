package assets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store persists image files under the data directory. SQLite rows hold the
// relative paths, never the bytes.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir/images.
func NewStore(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, "images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating images directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// extForMIME maps supported MIME types to file extensions.
func extForMIME(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

// Save writes image bytes to a uuid-named file and returns its relative path.
func (s *Store) Save(data []byte, mimeType string) (string, error) {
	name := uuid.New().String() + extForMIME(mimeType)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing image file: %w", err)
	}
	return name, nil
}

// Load reads image bytes by relative path.
func (s *Store) Load(name string) ([]byte, error) {
	clean := filepath.Base(name)
	data, err := os.ReadFile(filepath.Join(s.dir, clean))
	if err != nil {
		return nil, fmt.Errorf("reading image file %s: %w", clean, err)
	}
	return data, nil
}

// Remove deletes an image file; a missing file is not an error.
func (s *Store) Remove(name string) error {
	clean := filepath.Base(name)
	if err := os.Remove(filepath.Join(s.dir, clean)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing image file %s: %w", clean, err)
	}
	return nil
}
