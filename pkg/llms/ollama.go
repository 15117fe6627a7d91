package llms

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// OllamaClient speaks the Ollama HTTP API: /api/tags for model listing,
// /api/chat for streamed completions and /api/embeddings for vectors.
type OllamaClient struct {
	baseURL string
	client  *http.Client
}

func NewOllamaClient(baseURL string, client *http.Client) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if client == nil {
		// Streaming responses must not be bounded by a global client
		// timeout, only the dial and response-header phases are.
		client = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 120 * time.Second,
			},
		}
	}
	return &OllamaClient{
		baseURL: baseURL,
		client:  client,
	}
}

type ollamaTagsResponse struct {
	Models []struct {
		Name       string    `json:"name"`
		ModifiedAt time.Time `json:"modified_at"`
	} `json:"models"`
}

// ListModels fetches the locally installed models from /api/tags.
func (c *OllamaClient) ListModels(ctx context.Context) ([]ModelDescriptor, error) {
	apiURL, err := url.JoinPath(c.baseURL, "api", "tags")
	if err != nil {
		return nil, fmt.Errorf("construct API URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	result := make([]ModelDescriptor, len(tags.Models))
	for i, m := range tags.Models {
		result[i] = ModelDescriptor{
			ID:      m.Name,
			Object:  "model",
			Created: m.ModifiedAt.Unix(),
			Type:    "ollama",
		}
	}

	return result, nil
}

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// StreamChat posts to /api/chat and forwards the NDJSON stream chunk by
// chunk. The channel closes once done is seen, an error occurs, or the
// context is cancelled.
func (c *OllamaClient) StreamChat(ctx context.Context, model string, messages []Message) (<-chan StreamChunk, error) {
	reqBody := ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	apiURL, err := url.JoinPath(c.baseURL, "api", "chat")
	if err != nil {
		return nil, fmt.Errorf("construct API URL: %w", err)
	}

	out := make(chan StreamChunk)

	go func() {
		defer close(out)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonBody))
		if err != nil {
			emit(ctx, out, StreamChunk{Err: fmt.Errorf("create request: %w", err)})
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			emit(ctx, out, StreamChunk{Err: fmt.Errorf("execute request: %w", err)})
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			emit(ctx, out, StreamChunk{Err: fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))})
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}

			line := scanner.Bytes()
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}

			var chatResp ollamaChatResponse
			if err := json.Unmarshal(line, &chatResp); err != nil {
				emit(ctx, out, StreamChunk{Err: fmt.Errorf("decode stream line: %w", err)})
				return
			}

			if chatResp.Message.Content != "" {
				if !emit(ctx, out, StreamChunk{Content: chatResp.Message.Content}) {
					return
				}
			}

			if chatResp.Done {
				emit(ctx, out, StreamChunk{Done: true})
				return
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			emit(ctx, out, StreamChunk{Err: fmt.Errorf("read stream: %w", err)})
		}
	}()

	return out, nil
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates an embedding for a single text via /api/embeddings.
func (c *OllamaClient) Embed(ctx context.Context, model, text string) ([]float32, error) {
	reqBody := ollamaEmbedRequest{
		Model:  model,
		Prompt: text,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	apiURL, err := url.JoinPath(c.baseURL, "api", "embeddings")
	if err != nil {
		return nil, fmt.Errorf("construct API URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var embedResp ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return embedResp.Embedding, nil
}

// emit delivers a chunk unless the context is already cancelled.
// Returns false when delivery was abandoned.
func emit(ctx context.Context, out chan<- StreamChunk, chunk StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
