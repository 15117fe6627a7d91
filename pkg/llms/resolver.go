package llms

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/chatdeckco/chatdeck/pkg/lib"
	"github.com/chatdeckco/chatdeck/pkg/settings"
)

// Resolver looks up the available models for the active backend and
// caches the result. Entries are keyed by (purpose, variant, token,
// base URL): changing any of these bypasses the stale entry.
type Resolver struct {
	logger  *zerolog.Logger
	cache   *lib.Cache
	timeout time.Duration
	group   singleflight.Group
}

func NewResolver(cfg *Config, logger *zerolog.Logger) *Resolver {
	return &Resolver{
		logger:  logger,
		cache:   lib.NewCache(cfg.ModelCacheTTL, logger),
		timeout: cfg.RequestTimeout,
	}
}

// Resolve returns the model descriptors for the given settings.
// The manual variant (and any unrecognized variant) yields an empty
// list without touching the network. Fetch failures are returned to the
// caller, never swallowed.
func (r *Resolver) Resolve(ctx context.Context, purpose string, s settings.Settings) ([]ModelDescriptor, error) {
	switch s.Variant {
	case settings.VariantOllama, settings.VariantOpenAI:
	default:
		return []ModelDescriptor{}, nil
	}

	key := lib.HashParams(purpose, string(s.Variant), s.Token, s.BaseURL)

	if cached, found := r.cache.Get(key); found {
		if models, ok := cached.([]ModelDescriptor); ok {
			return models, nil
		}
	}

	// Concurrent misses for the same key collapse into one fetch.
	result, err, _ := r.group.Do(key, func() (any, error) {
		models, err := r.fetch(ctx, s)
		if err != nil {
			return nil, err
		}
		r.cache.Set(key, models)
		return models, nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve models for %s: %w", s.Variant, err)
	}

	return result.([]ModelDescriptor), nil
}

func (r *Resolver) fetch(ctx context.Context, s settings.Settings) ([]ModelDescriptor, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	switch s.Variant {
	case settings.VariantOllama:
		return NewOllamaClient(s.BaseURL, nil).ListModels(ctx)
	case settings.VariantOpenAI:
		return NewOpenAIClient(s.BaseURL, s.Token).ListModels(ctx)
	default:
		return []ModelDescriptor{}, nil
	}
}

// Filter narrows descriptors by fuzzy-matching their IDs, best match
// first. An empty query returns the input unchanged.
func Filter(models []ModelDescriptor, query string) []ModelDescriptor {
	if query == "" {
		return models
	}

	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}

	ranks := fuzzy.RankFindFold(query, ids)
	sort.Sort(ranks)

	out := make([]ModelDescriptor, len(ranks))
	for i, rank := range ranks {
		out[i] = models[rank.OriginalIndex]
	}
	return out
}
