package llms

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/chatdeckco/chatdeck/pkg/settings"
)

// NewEmbedder returns the embedding model for the active backend.
// The manual variant is assumed to speak the OpenAI-compatible shape,
// same as it does for chat.
func NewEmbedder(cfg *Config, s settings.Settings) (Embedder, error) {
	switch s.Variant {
	case settings.VariantOllama:
		return &ollamaEmbedder{
			client: NewOllamaClient(s.BaseURL, nil),
			model:  cfg.OllamaEmbedModel,
		}, nil
	case settings.VariantOpenAI, settings.VariantManual:
		opts := []openai.Option{
			openai.WithToken(s.Token),
			openai.WithEmbeddingModel(cfg.OpenAIEmbedModel),
		}
		if s.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(s.BaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai embedding model: %w", err)
		}
		return &openaiEmbedder{
			model: model,
			name:  cfg.OpenAIEmbedModel,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported variant: %s", s.Variant)
	}
}

// NewStreamer returns the chat backend for the active settings.
// Manual endpoints are treated as OpenAI-compatible.
func NewStreamer(s settings.Settings) (Streamer, error) {
	switch s.Variant {
	case settings.VariantOllama:
		return NewOllamaClient(s.BaseURL, nil), nil
	case settings.VariantOpenAI, settings.VariantManual:
		return NewOpenAIClient(s.BaseURL, s.Token), nil
	default:
		return nil, fmt.Errorf("unsupported variant: %s", s.Variant)
	}
}

type ollamaEmbedder struct {
	client *OllamaClient
	model  string
}

func (e *ollamaEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.client.Embed(ctx, e.model, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

func (e *ollamaEmbedder) Model() string {
	return e.model
}

type openaiEmbedder struct {
	model *openai.LLM
	name  string
}

func (e *openaiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings, err := e.model.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	return embeddings, nil
}

func (e *openaiEmbedder) Model() string {
	return e.name
}
