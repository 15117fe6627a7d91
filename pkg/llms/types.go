package llms

import "context"

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamChunk is one increment of a streamed chat response.
type StreamChunk struct {
	Content string
	Done    bool
	Err     error
}

// ModelDescriptor is the normalized shape of a backend model entry.
// Descriptors are ephemeral: re-fetched per query, never persisted.
type ModelDescriptor struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Type    string `json:"type"`
}

// Streamer produces an incrementally delivered chat completion.
// The returned channel is closed when the stream ends, fails, or the
// context is cancelled.
type Streamer interface {
	StreamChat(ctx context.Context, model string, messages []Message) (<-chan StreamChunk, error)
}

// Embedder converts texts into vector representations.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}
