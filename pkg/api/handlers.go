package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/chatdeckco/chatdeck/pkg/chat"
	"github.com/chatdeckco/chatdeck/pkg/documents"
	"github.com/chatdeckco/chatdeck/pkg/llms"
	"github.com/chatdeckco/chatdeck/pkg/settings"
)

func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.settings.Get(r.Context())
	if err != nil {
		s.internalError(w, err, "load settings")
		return
	}

	s.serializeRes(w, current)
}

func (s *Server) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settings.Settings
	if err := deserializeReq(r, &req); err != nil {
		s.badRequest(w, err, "deserialize request")
		return
	}

	if err := req.Validate(); err != nil {
		s.badRequest(w, err, "validate settings")
		return
	}

	updated, err := s.settings.Update(r.Context(), req)
	if err != nil {
		s.internalError(w, err, "update settings")
		return
	}

	s.serializeRes(w, updated)
}

func (s *Server) ListPresets(w http.ResponseWriter, _ *http.Request) {
	s.serializeRes(w, settings.Presets())
}

func (s *Server) ListModels(w http.ResponseWriter, r *http.Request) {
	purpose := r.URL.Query().Get("purpose")
	if purpose == "" {
		purpose = "chat"
	}

	// A model-list refresh tied to a session counts as a loading fetch:
	// sends on that session are refused until it finishes.
	if sessionID := r.URL.Query().Get("sessionId"); sessionID != "" {
		session := s.chatManager.GetOrCreate(sessionID)
		session.SetLoading(true)
		defer session.SetLoading(false)
	}

	current, err := s.settings.Get(r.Context())
	if err != nil {
		s.internalError(w, err, "load settings")
		return
	}

	models, err := s.resolver.Resolve(r.Context(), purpose, current)
	if err != nil {
		s.internalError(w, err, "resolve models")
		return
	}

	models = llms.Filter(models, r.URL.Query().Get("query"))

	s.serializeRes(w, models)
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Model     string `json:"model"`
	Message   string `json:"message"`
}

// StreamChat dispatches a message and streams the response back as
// server-sent events. The session id is echoed in X-Session-Id so the
// caller can cancel or continue the conversation.
func (s *Server) StreamChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := deserializeReq(r, &req); err != nil {
		s.badRequest(w, err, "deserialize request")
		return
	}

	current, err := s.settings.Get(r.Context())
	if err != nil {
		s.internalError(w, err, "load settings")
		return
	}

	streamer, err := llms.NewStreamer(current)
	if err != nil {
		s.badRequest(w, err, "create streamer")
		return
	}

	session := s.chatManager.GetOrCreate(req.SessionID)
	session.SetModel(req.Model)

	chunks, err := session.Send(r.Context(), streamer, req.Message)
	switch {
	case errors.Is(err, chat.ErrStreamInFlight), errors.Is(err, chat.ErrLoading):
		s.logger.Err(err).Msg("send refused")
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, chat.ErrEmptyInput), errors.Is(err, chat.ErrNoModel):
		s.badRequest(w, err, "send refused")
		return
	case err != nil:
		s.internalError(w, err, "dispatch chat")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.internalError(w, errors.New("streaming unsupported"), "acquire flusher")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Session-Id", session.ID.String())

	for chunk := range chunks {
		if chunk.Err != nil {
			sendSSE(w, flusher, map[string]any{"error": chunk.Err.Error(), "done": true})
			return
		}
		sendSSE(w, flusher, map[string]any{"content": chunk.Content, "done": chunk.Done})
	}
}

func (s *Server) CancelChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := deserializeReq(r, &req); err != nil {
		s.badRequest(w, err, "deserialize request")
		return
	}

	session := s.chatManager.GetOrCreate(req.SessionID)
	session.Cancel()

	s.serializeRes(w, map[string]string{"message": "stream cancelled"})
}

// UploadDocument accepts a multipart `file` field. The received bytes
// are streamed back to the caller on success; a missing or invalid file
// yields a plain-text 400 before anything is written.
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		s.logger.Err(err).Msg("missing upload file")
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := documents.ValidateUpload(header.Filename, header.Size, header.Header.Get("Content-Type")); err != nil {
		s.logger.Err(err).Str("filename", header.Filename).Msg("upload rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")

	// Echo received bytes back while they are persisted.
	_, err = s.docsRegistry.Upload(
		r.Context(),
		header.Filename,
		header.Size,
		header.Header.Get("Content-Type"),
		io.TeeReader(file, w),
	)
	if err != nil {
		// Validation already passed, so the response status is
		// committed; all that is left is to log the failure.
		s.logger.Err(err).Str("filename", header.Filename).Msg("upload failed")
	}
}

func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docsRegistry.List(r.Context())
	if err != nil {
		s.internalError(w, err, "list documents")
		return
	}

	s.serializeRes(w, docs)
}

func (s *Server) UploadState(w http.ResponseWriter, _ *http.Request) {
	s.serializeRes(w, s.docsRegistry.Tracker().Snapshot())
}

func (s *Server) EmbedDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.badRequest(w, fmt.Errorf("invalid document id: %w", err), "parse document id")
		return
	}

	current, err := s.settings.Get(r.Context())
	if err != nil {
		s.internalError(w, err, "load settings")
		return
	}

	embedder, err := llms.NewEmbedder(s.llmConfig, current)
	if err != nil {
		s.badRequest(w, err, "create embedder")
		return
	}

	doc, err := s.docsRegistry.Embed(r.Context(), id, embedder)
	if errors.Is(err, documents.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, err, "embed document")
		return
	}

	s.serializeRes(w, doc)
}

func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.badRequest(w, errors.New("query parameter q is required"), "parse search query")
		return
	}

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.badRequest(w, fmt.Errorf("invalid limit: %w", err), "parse limit")
			return
		}
		limit = parsed
	}

	current, err := s.settings.Get(r.Context())
	if err != nil {
		s.internalError(w, err, "load settings")
		return
	}

	embedder, err := llms.NewEmbedder(s.llmConfig, current)
	if err != nil {
		s.badRequest(w, err, "create embedder")
		return
	}

	matches, err := s.docsRegistry.Search(r.Context(), embedder, query, limit)
	if err != nil {
		s.internalError(w, err, "search documents")
		return
	}

	s.serializeRes(w, matches)
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, data map[string]any) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}
