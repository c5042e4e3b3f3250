package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gymwatch/gymwatch/internal/model"
	"github.com/jackc/pgx/v5"
)

// ErrSettingNotFound is returned when a key has never been written.
var ErrSettingNotFound = errors.New("setting not found")

// GetSetting reads a single key from the settings table.
func (r *Repository) GetSetting(ctx context.Context, key string) (*model.Setting, error) {
	var s model.Setting
	err := r.pool.QueryRow(ctx,
		`SELECT key, value, updated_at FROM settings WHERE key = $1`, key,
	).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("failed to get setting %q: %w", key, err)
	}
	return &s, nil
}

// UpsertSetting writes key=value, replacing any previous value.
func (r *Repository) UpsertSetting(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to upsert setting %q: %w", key, err)
	}
	return nil
}
