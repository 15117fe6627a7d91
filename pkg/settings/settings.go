package settings

import (
	"fmt"
	"regexp"
)

// Variant selects the backend flavor used for model listing and chat.
type Variant string

const (
	VariantOllama Variant = "ollama"
	VariantOpenAI Variant = "openai"
	VariantManual Variant = "manual"
)

// Settings is the singleton backend configuration. Updates overwrite
// the whole record, partial merges are not supported.
type Settings struct {
	Variant Variant `json:"variant" validate:"required,oneof=ollama openai manual"`
	BaseURL string  `json:"baseUrl" validate:"required"`
	Token   string  `json:"token"`
}

// baseURLPattern requires an http(s) scheme and a host with an optional
// port and path. Bare schemes or schemeless hosts are rejected.
var baseURLPattern = regexp.MustCompile(`^https?://[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?)*(:\d{1,5})?(/[a-zA-Z0-9._~/-]*)?$`)

// minTokenLength is the shortest non-empty token accepted. An empty
// token is valid: local backends do not require authentication.
const minTokenLength = 5

// Validate checks the record against the settings form rules.
func (s Settings) Validate() error {
	switch s.Variant {
	case VariantOllama, VariantOpenAI, VariantManual:
	default:
		return fmt.Errorf("unknown variant: %q", s.Variant)
	}

	if !baseURLPattern.MatchString(s.BaseURL) {
		return fmt.Errorf("base URL %q is not a valid http(s) URL", s.BaseURL)
	}

	if len(s.Token) > 0 && len(s.Token) < minTokenLength {
		return fmt.Errorf("token must be empty or at least %d characters", minTokenLength)
	}

	return nil
}

// Default returns the settings used before the first form submission.
func Default() Settings {
	return Settings{
		Variant: VariantOllama,
		BaseURL: "http://localhost:11434",
	}
}
