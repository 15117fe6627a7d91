package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by stores when no settings record exists yet.
var ErrNotFound = errors.New("settings not found")

type store interface {
	Get(ctx context.Context) (*Settings, error)
	Put(ctx context.Context, s Settings) error
}

// Registry owns the active settings record.
type Registry struct {
	logger *zerolog.Logger
	store  store
}

func NewRegistry(logger *zerolog.Logger, store store) *Registry {
	return &Registry{
		logger: logger,
		store:  store,
	}
}

// Get returns the active settings, falling back to defaults before the
// first update.
func (r *Registry) Get(ctx context.Context) (Settings, error) {
	s, err := r.store.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return *s, nil
}

// Update validates and persists a new settings record, replacing the
// previous one wholesale.
func (r *Registry) Update(ctx context.Context, s Settings) (Settings, error) {
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	if err := r.store.Put(ctx, s); err != nil {
		return Settings{}, fmt.Errorf("persist settings: %w", err)
	}

	r.logger.Info().
		Str("variant", string(s.Variant)).
		Str("base_url", s.BaseURL).
		Msg("settings updated")

	return s, nil
}
