package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"

	"github.com/chatdeckco/chatdeck/pkg/api"
	"github.com/chatdeckco/chatdeck/pkg/documents"
	"github.com/chatdeckco/chatdeck/pkg/lib"
	"github.com/chatdeckco/chatdeck/pkg/lib/log"
	"github.com/chatdeckco/chatdeck/pkg/llms"
	"github.com/chatdeckco/chatdeck/pkg/storage/postgres"
)

type Config struct {
	DB        postgres.Config  `env:""`
	API       api.Config       `env:""`
	Log       log.Config       `env:""`
	LLM       llms.Config      `env:""`
	Documents documents.Config `env:""`
}

func Load() (*Config, error) {
	var cfg Config

	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := lib.ValidateStruct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
