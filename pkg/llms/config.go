package llms

import "time"

type Config struct {
	// Model list cache
	ModelCacheTTL time.Duration `env:"LLM_MODEL_CACHE_TTL,default=5m"`

	// Embedding model per variant
	OllamaEmbedModel string `env:"LLM_OLLAMA_EMBED_MODEL,default=nomic-embed-text"`
	OpenAIEmbedModel string `env:"LLM_OPENAI_EMBED_MODEL,default=text-embedding-3-small"`

	// Timeout for non-streaming provider calls. Streaming requests are
	// bounded by the caller's context instead.
	RequestTimeout time.Duration `env:"LLM_REQUEST_TIMEOUT,default=60s"`
}
