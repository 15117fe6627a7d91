package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chatdeckco/chatdeck/pkg/llms"
)

var (
	// ErrEmptyInput is returned when the trimmed input is empty.
	ErrEmptyInput = errors.New("empty input")
	// ErrStreamInFlight is returned while a response stream is active.
	ErrStreamInFlight = errors.New("a response stream is already in flight")
	// ErrLoading is returned while another fetch is loading.
	ErrLoading = errors.New("a fetch is in progress")
	// ErrNoModel is returned when no model is active.
	ErrNoModel = errors.New("no model selected")
)

// Session orchestrates one chat conversation. Sends are serialized:
// while a stream is in flight or a fetch is loading, further sends are
// refused rather than queued, mirroring the suppressed keystroke.
type Session struct {
	ID     uuid.UUID
	logger *zerolog.Logger

	mu        sync.Mutex
	model     string
	loading   bool
	streaming bool
	cancel    context.CancelFunc
	history   []llms.Message
}

func NewSession(logger *zerolog.Logger) *Session {
	return &Session{
		ID:     uuid.New(),
		logger: logger,
	}
}

// SetModel selects the active model for subsequent sends.
func (s *Session) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = strings.TrimSpace(model)
}

// SetLoading marks a non-chat fetch (e.g. a model-list refresh) as in
// progress; sends are refused until it clears.
func (s *Session) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// Busy reports whether a send would currently be refused.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming || s.loading
}

// History returns a copy of the accumulated conversation.
func (s *Session) History() []llms.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llms.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Send trims and dispatches user text, returning the response stream.
// The returned channel is closed when the stream completes, fails, or
// is cancelled; the accumulated assistant reply is appended to the
// history on completion.
func (s *Session) Send(ctx context.Context, streamer llms.Streamer, text string) (<-chan llms.StreamChunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	s.mu.Lock()
	if s.streaming {
		s.mu.Unlock()
		return nil, ErrStreamInFlight
	}
	if s.loading {
		s.mu.Unlock()
		return nil, ErrLoading
	}
	if s.model == "" {
		s.mu.Unlock()
		return nil, ErrNoModel
	}

	model := s.model
	s.history = append(s.history, llms.Message{Role: "user", Content: text})
	messages := make([]llms.Message, len(s.history))
	copy(messages, s.history)

	streamCtx, cancel := context.WithCancel(ctx)
	s.streaming = true
	s.cancel = cancel
	s.mu.Unlock()

	upstream, err := streamer.StreamChat(streamCtx, model, messages)
	if err != nil {
		s.finish(cancel, "")
		return nil, err
	}

	out := make(chan llms.StreamChunk)

	go func() {
		defer close(out)

		var reply strings.Builder
		for chunk := range upstream {
			if chunk.Err != nil {
				s.logger.Error().Err(chunk.Err).Str("session", s.ID.String()).Msg("chat stream failed")
			} else {
				reply.WriteString(chunk.Content)
			}

			select {
			case out <- chunk:
			case <-streamCtx.Done():
				s.finish(cancel, reply.String())
				return
			}

			if chunk.Done || chunk.Err != nil {
				break
			}
		}

		s.finish(cancel, reply.String())
	}()

	return out, nil
}

// Cancel stops the in-flight stream, if any. The stream reader is
// released and no further chunks are delivered; the session is
// immediately ready for the next send.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (s *Session) finish(cancel context.CancelFunc, reply string) {
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if reply != "" {
		s.history = append(s.history, llms.Message{Role: "assistant", Content: reply})
	}
	s.streaming = false
	s.cancel = nil
}
