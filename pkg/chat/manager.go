package chat

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manager tracks the live chat sessions of this process. Sessions are
// in-memory only and vanish on restart.
type Manager struct {
	logger *zerolog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewManager(logger *zerolog.Logger) *Manager {
	return &Manager{
		logger:   logger,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Get returns the session with the given id, or nil.
func (m *Manager) Get(id uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Create registers a new session.
func (m *Manager) Create() *Session {
	s := NewSession(m.logger)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debug().Str("session", s.ID.String()).Msg("chat session created")
	return s
}

// GetOrCreate resolves an optional session id, creating a session when
// the id is absent or unknown.
func (m *Manager) GetOrCreate(id string) *Session {
	if id != "" {
		if parsed, err := uuid.Parse(id); err == nil {
			if s := m.Get(parsed); s != nil {
				return s
			}
		}
	}
	return m.Create()
}
