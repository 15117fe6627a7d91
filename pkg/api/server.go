package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	httpswagger "github.com/swaggo/http-swagger"

	"github.com/rs/zerolog"

	"github.com/chatdeckco/chatdeck/pkg/chat"
	"github.com/chatdeckco/chatdeck/pkg/documents"
	"github.com/chatdeckco/chatdeck/pkg/llms"
	"github.com/chatdeckco/chatdeck/pkg/settings"
)

//go:embed openapi.yaml
var openapiSpecYaml string

type Server struct {
	logger       *zerolog.Logger
	settings     *settings.Registry
	resolver     *llms.Resolver
	llmConfig    *llms.Config
	chatManager  *chat.Manager
	docsRegistry *documents.Registry
	http         http.Server
}

func NewServer(
	logger *zerolog.Logger,
	config *Config,
	settingsRegistry *settings.Registry,
	resolver *llms.Resolver,
	llmConfig *llms.Config,
	chatManager *chat.Manager,
	docsRegistry *documents.Registry,
) *Server {
	mux := http.NewServeMux()

	server := &Server{
		logger:       logger,
		settings:     settingsRegistry,
		resolver:     resolver,
		llmConfig:    llmConfig,
		chatManager:  chatManager,
		docsRegistry: docsRegistry,
		http: http.Server{
			Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
			Handler: corsMiddleware(loggingMiddleware(mux, logger), config.CORSOrigin),
		},
	}

	mux.HandleFunc("GET /api/settings", server.GetSettings)
	mux.HandleFunc("PUT /api/settings", server.UpdateSettings)
	mux.HandleFunc("GET /api/settings/presets", server.ListPresets)
	mux.HandleFunc("GET /api/models", server.ListModels)
	mux.HandleFunc("POST /api/chat", server.StreamChat)
	mux.HandleFunc("POST /api/chat/cancel", server.CancelChat)
	mux.HandleFunc("POST /api/documents", server.UploadDocument)
	mux.HandleFunc("GET /api/documents", server.ListDocuments)
	mux.HandleFunc("GET /api/documents/upload-state", server.UploadState)
	mux.HandleFunc("POST /api/documents/{id}/embed", server.EmbedDocument)
	mux.HandleFunc("GET /api/documents/search", server.SearchDocuments)
	server.registerApiDocsHandlers(mux)

	return server
}

func corsMiddleware(next http.Handler, originConfig string) http.Handler {
	origins := strings.Split(originConfig, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestOrigin := r.Header.Get("Origin")

		if len(origins) == 1 && origins[0] == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if requestOrigin != "" && slices.Contains(origins, requestOrigin) {
			// CORS doesn't support multiple origins,
			// so we either set the origin in the header or not at all.
			w.Header().Set("Access-Control-Allow-Origin", requestOrigin)
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler, logger *zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

func (s *Server) registerApiDocsHandlers(mux *http.ServeMux) {
	mux.Handle("/docs/", httpswagger.Handler(
		httpswagger.URL("/docs/openapi.yaml"),
	))
	mux.HandleFunc("/docs/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")

		_, err := w.Write([]byte(openapiSpecYaml))
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			s.logger.Error().Err(err).Msg("response write error")
		}
	})
}

func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func deserializeReq[Req any](r *http.Request, req *Req) error {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return fmt.Errorf("unsupported content type: %s", contentType)
	}

	reqBytes, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}

	err = json.Unmarshal(reqBytes, req)
	if err != nil {
		return fmt.Errorf("deserialize request body: %w", err)
	}

	return nil
}

func (s *Server) serializeRes(w http.ResponseWriter, res any) {
	w.Header().Add("Content-Type", "application/json")

	if res == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	err := json.NewEncoder(w).Encode(res)
	if err != nil {
		s.internalError(w, err, "serialize response")
	}
}

func (s *Server) internalError(w http.ResponseWriter, err error, msg string) {
	s.logger.Err(err).Msg(msg)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) badRequest(w http.ResponseWriter, err error, msg string) {
	s.logger.Err(err).Msg(msg)
	http.Error(w, err.Error(), http.StatusBadRequest)
}
