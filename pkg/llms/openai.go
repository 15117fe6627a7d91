package llms

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient wraps the go-openai SDK for any OpenAI-compatible
// backend: the hosted API, Together, Mistral, or a manually configured
// endpoint speaking the same shape.
type OpenAIClient struct {
	client *openai.Client
}

func NewOpenAIClient(baseURL, token string) *OpenAIClient {
	cfg := openai.DefaultConfig(token)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
	}
}

// ListModels fetches /v1/models and normalizes the entries.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]ModelDescriptor, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	result := make([]ModelDescriptor, len(list.Models))
	for i, m := range list.Models {
		result[i] = ModelDescriptor{
			ID:      m.ID,
			Object:  m.Object,
			Created: m.CreatedAt,
			Type:    "openai",
		}
	}

	return result, nil
}

// StreamChat opens a streamed chat completion and forwards the deltas.
func (c *OpenAIClient) StreamChat(ctx context.Context, model string, messages []Message) (<-chan StreamChunk, error) {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: make([]openai.ChatCompletionMessage, len(messages)),
		Stream:   true,
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}

	out := make(chan StreamChunk)

	go func() {
		defer close(out)

		stream, err := c.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			emit(ctx, out, StreamChunk{Err: fmt.Errorf("create stream: %w", err)})
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				emit(ctx, out, StreamChunk{Done: true})
				return
			}
			if err != nil {
				if ctx.Err() == nil {
					emit(ctx, out, StreamChunk{Err: fmt.Errorf("receive stream: %w", err)})
				}
				return
			}

			if len(resp.Choices) > 0 {
				content := resp.Choices[0].Delta.Content
				if content != "" {
					if !emit(ctx, out, StreamChunk{Content: content}) {
						return
					}
				}
			}
		}
	}()

	return out, nil
}
