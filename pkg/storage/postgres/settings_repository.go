package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/chatdeckco/chatdeck/pkg/settings"
)

type SettingsRepository struct {
	db *DB
}

func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (*settings.Settings, error) {
	var s settings.Settings
	err := r.db.Pool().QueryRow(ctx,
		`SELECT variant, base_url, token FROM settings WHERE id = 1`,
	).Scan(&s.Variant, &s.BaseURL, &s.Token)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, settings.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}

	return &s, nil
}

// Put overwrites the singleton settings row.
func (r *SettingsRepository) Put(ctx context.Context, s settings.Settings) error {
	_, err := r.db.Pool().Exec(ctx,
		`INSERT INTO settings (id, variant, base_url, token, updated_at)
		 VALUES (1, $1, $2, $3, now())
		 ON CONFLICT (id) DO UPDATE
		 SET variant = EXCLUDED.variant,
		     base_url = EXCLUDED.base_url,
		     token = EXCLUDED.token,
		     updated_at = now()`,
		s.Variant, s.BaseURL, s.Token,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}

	return nil
}
