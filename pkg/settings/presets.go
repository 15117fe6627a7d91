package settings

import (
	"net/url"
	"strings"
)

// Preset is a known backend a user can pick instead of typing a URL.
type Preset struct {
	Name    string  `json:"name"`
	BaseURL string  `json:"baseUrl"`
	Variant Variant `json:"variant"`
}

// Presets returns the built-in backend presets, variant pre-inferred.
func Presets() []Preset {
	urls := []struct {
		name string
		url  string
	}{
		{"Ollama", "http://localhost:11434"},
		{"OpenAI", "https://api.openai.com/v1"},
		{"Together", "https://api.together.xyz/v1"},
		{"Mistral", "https://api.mistral.ai/v1"},
	}

	out := make([]Preset, len(urls))
	for i, p := range urls {
		out[i] = Preset{
			Name:    p.name,
			BaseURL: p.url,
			Variant: InferVariant(p.url),
		}
	}
	return out
}

// openAIHosts are hosts known to speak the OpenAI-compatible API shape.
var openAIHosts = map[string]struct{}{
	"api.openai.com":   {},
	"api.together.xyz": {},
	"api.mistral.ai":   {},
}

// InferVariant maps a base URL to the backend variant it implies.
// Unrecognized hosts fall back to manual entry.
func InferVariant(baseURL string) Variant {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return VariantManual
	}

	if u.Host == "localhost:11434" || u.Host == "127.0.0.1:11434" {
		return VariantOllama
	}

	if _, ok := openAIHosts[u.Hostname()]; ok {
		return VariantOpenAI
	}

	return VariantManual
}
