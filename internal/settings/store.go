package settings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gemstage/gemstage/internal/db"
)

// PreferredLogoKey is the settings key holding the studio's brand logo as a
// data URI.
const PreferredLogoKey = "preferred_logo"

// Store provides key-value settings persistence.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Get returns the value for key, or "" when unset.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, nil
}

// Set upserts the value for key. Last write wins.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// Delete removes the value for key; a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting setting %s: %w", key, err)
	}
	return nil
}

// PreferredLogo returns the stored brand logo data URI, or "" when unset.
func (s *Store) PreferredLogo(ctx context.Context) (string, error) {
	return s.Get(ctx, PreferredLogoKey)
}

// SetPreferredLogo stores the brand logo data URI.
func (s *Store) SetPreferredLogo(ctx context.Context, dataURI string) error {
	return s.Set(ctx, PreferredLogoKey, dataURI)
}
