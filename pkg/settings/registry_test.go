package settings

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	record *Settings
}

func (m *memStore) Get(_ context.Context) (*Settings, error) {
	if m.record == nil {
		return nil, ErrNotFound
	}
	return m.record, nil
}

func (m *memStore) Put(_ context.Context, s Settings) error {
	m.record = &s
	return nil
}

func TestRegistry_DefaultsBeforeFirstUpdate(t *testing.T) {
	logger := zerolog.Nop()
	registry := NewRegistry(&logger, &memStore{})

	got, err := registry.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func TestRegistry_UpdateOverwritesWholesale(t *testing.T) {
	logger := zerolog.Nop()
	store := &memStore{}
	registry := NewRegistry(&logger, store)

	first := Settings{
		Variant: VariantOpenAI,
		BaseURL: "https://api.openai.com/v1",
		Token:   "sk-test-token",
	}
	_, err := registry.Update(context.Background(), first)
	require.NoError(t, err)

	second := Settings{
		Variant: VariantOllama,
		BaseURL: "http://localhost:11434",
	}
	_, err = registry.Update(context.Background(), second)
	require.NoError(t, err)

	got, err := registry.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second, got)
	assert.Empty(t, got.Token, "token from the previous record must not survive")
}

func TestRegistry_UpdateRejectsInvalid(t *testing.T) {
	logger := zerolog.Nop()
	store := &memStore{}
	registry := NewRegistry(&logger, store)

	_, err := registry.Update(context.Background(), Settings{
		Variant: VariantOpenAI,
		BaseURL: "not-a-url",
	})
	require.Error(t, err)
	assert.Nil(t, store.record, "invalid settings must not be persisted")
}
