package projects

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/gemstage/gemstage/internal/db"
)

// Store provides CRUD operations for projects and their generated images.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Save inserts a project and its images in one transaction. Missing ids are
// generated.
func (s *Store) Save(ctx context.Context, p *Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if len(p.Analysis) == 0 {
		p.Analysis = json.RawMessage("{}")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var modelImage, modelMime sql.NullString
	if p.ModelImage != "" {
		modelImage = sql.NullString{String: p.ModelImage, Valid: true}
		modelMime = sql.NullString{String: p.ModelMime, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, title, product_image, product_mime, model_image, model_mime, item_size, analysis)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.ProductImage, p.ProductMime, modelImage, modelMime, p.ItemSize, string(p.Analysis),
	)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}

	for i := range p.Images {
		if err := insertImage(ctx, tx, p.ID, i, &p.Images[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing project: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertImage(ctx context.Context, ex execer, projectID string, position int, img *GeneratedImage) error {
	if img.ID == "" {
		img.ID = uuid.New().String()
	}
	img.ProjectID = projectID
	if img.Kind == "" {
		img.Kind = KindScene
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO generated_images (id, project_id, kind, scene_id, label, status, position, image_path, mime_type, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		img.ID, projectID, string(img.Kind), img.SceneID, img.Label, img.Status, position, img.ImagePath, img.MimeType, img.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting generated image: %w", err)
	}
	return nil
}

// AddImage appends a generated image to an existing project, after every
// image the project already has.
func (s *Store) AddImage(ctx context.Context, projectID string, img *GeneratedImage) error {
	var next int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM generated_images WHERE project_id = ?`,
		projectID).Scan(&next)
	if err != nil {
		return fmt.Errorf("computing image position: %w", err)
	}
	return insertImage(ctx, s.db, projectID, next, img)
}

// UpdateImage rewrites a generated image's terminal fields.
func (s *Store) UpdateImage(ctx context.Context, img *GeneratedImage) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE generated_images SET status = ?, image_path = ?, mime_type = ?, error = ?
		WHERE id = ? AND project_id = ?`,
		img.Status, img.ImagePath, img.MimeType, img.Error, img.ID, img.ProjectID,
	)
	if err != nil {
		return fmt.Errorf("updating generated image: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("generated image %s not found", img.ID)
	}
	return nil
}

// GetByID retrieves a project with its images.
func (s *Store) GetByID(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, title, product_image, product_mime, model_image, model_mime, item_size, analysis
		FROM projects WHERE id = ?`, id)

	p, err := scanProject(row)
	if err != nil {
		return nil, err
	}

	images, err := s.imagesFor(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Images = images
	return p, nil
}

// GetImage retrieves one generated image of a project.
func (s *Store) GetImage(ctx context.Context, projectID, imageID string) (*GeneratedImage, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, kind, scene_id, label, status, image_path, mime_type, error, created_at
		FROM generated_images WHERE id = ? AND project_id = ?`, imageID, projectID)

	img, err := scanImage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("generated image %s not found", imageID)
		}
		return nil, fmt.Errorf("querying generated image: %w", err)
	}
	return img, nil
}

// List returns projects newest first, with their images.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Project, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, title, product_image, product_mime, model_image, model_mime, item_size, analysis
		FROM projects ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}

	for i := range out {
		images, err := s.imagesFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Images = images
	}
	return out, nil
}

// Delete removes a project; generated image rows cascade. The removed image
// file names are returned so the caller can clean up the files on disk.
func (s *Store) Delete(ctx context.Context, id string) ([]string, error) {
	images, err := s.imagesFor(ctx, id)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, img := range images {
		if img.ImagePath != "" {
			paths = append(paths, img.ImagePath)
		}
	}

	var p Project
	err = s.db.QueryRowContext(ctx, `SELECT product_image, model_image FROM projects WHERE id = ?`, id).
		Scan(&p.ProductImage, &nullString{&p.ModelImage})
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("project %s not found", id)
		}
		return nil, fmt.Errorf("querying project: %w", err)
	}
	paths = append(paths, p.ProductImage)
	if p.ModelImage != "" {
		paths = append(paths, p.ModelImage)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("deleting project: %w", err)
	}
	return paths, nil
}

func (s *Store) imagesFor(ctx context.Context, projectID string) ([]GeneratedImage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, kind, scene_id, label, status, image_path, mime_type, error, created_at
		FROM generated_images WHERE project_id = ? ORDER BY position, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying generated images: %w", err)
	}
	defer rows.Close()

	var out []GeneratedImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning generated image: %w", err)
		}
		out = append(out, *img)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*Project, error) {
	var p Project
	var analysis string
	var modelImage, modelMime sql.NullString

	err := row.Scan(&p.ID, &p.CreatedAt, &p.Title, &p.ProductImage, &p.ProductMime,
		&modelImage, &modelMime, &p.ItemSize, &analysis)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("project not found")
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	p.ModelImage = modelImage.String
	p.ModelMime = modelMime.String
	p.Analysis = json.RawMessage(analysis)
	return &p, nil
}

func scanImage(row scanner) (*GeneratedImage, error) {
	var img GeneratedImage
	var kind string
	err := row.Scan(&img.ID, &img.ProjectID, &kind, &img.SceneID, &img.Label,
		&img.Status, &img.ImagePath, &img.MimeType, &img.Error, &img.CreatedAt)
	if err != nil {
		return nil, err
	}
	img.Kind = Kind(kind)
	return &img, nil
}

// nullString adapts a *string to sql.Scanner for nullable columns.
type nullString struct{ s *string }

func (n *nullString) Scan(v any) error {
	var ns sql.NullString
	if err := ns.Scan(v); err != nil {
		return err
	}
	*n.s = ns.String
	return nil
}
