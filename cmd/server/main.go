package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/chatdeckco/chatdeck/pkg/api"
	"github.com/chatdeckco/chatdeck/pkg/chat"
	"github.com/chatdeckco/chatdeck/pkg/config"
	"github.com/chatdeckco/chatdeck/pkg/documents"
	"github.com/chatdeckco/chatdeck/pkg/lib/log"
	"github.com/chatdeckco/chatdeck/pkg/llms"
	"github.com/chatdeckco/chatdeck/pkg/settings"
	"github.com/chatdeckco/chatdeck/pkg/storage/postgres"
)

func main() {
	err := run()
	if err != nil {
		panic(err)
	}
}

func run() error {
	// A .env file is a local development convenience, not a requirement.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := log.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, cleanup, err := initServer(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}
	defer cleanup()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	logger.Info().Msg("server starting")

	if err := server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	return nil
}

func initServer(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) (*api.Server, func(), error) {
	db := postgres.NewDB(&cfg.DB)
	if err := db.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	settingsRepo := postgres.NewSettingsRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)
	chunkRepo := postgres.NewChunkRepository(db)

	settingsRegistry := settings.NewRegistry(logger, settingsRepo)
	resolver := llms.NewResolver(&cfg.LLM, logger)
	chatManager := chat.NewManager(logger)
	docsRegistry := documents.NewRegistry(logger, &cfg.Documents, documentRepo, chunkRepo)

	cleanup := func() { db.Close() }

	if cfg.Documents.WatchUploads {
		watcher, err := documents.NewWatcher(logger, docsRegistry)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("create upload watcher: %w", err)
		}
		if err := os.MkdirAll(cfg.Documents.UploadDir, 0o755); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("create upload dir: %w", err)
		}
		if err := watcher.Start(ctx, cfg.Documents.UploadDir); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("start upload watcher: %w", err)
		}
		cleanup = func() {
			_ = watcher.Close()
			db.Close()
		}
	}

	server := api.NewServer(
		logger,
		&cfg.API,
		settingsRegistry,
		resolver,
		&cfg.LLM,
		chatManager,
		docsRegistry,
	)

	return server, cleanup, nil
}
