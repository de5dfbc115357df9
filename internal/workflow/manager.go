package workflow

import (
	"sync"
	"time"

	"resumeflow/internal/errors"
)

// Manager owns the live sessions of a server process. Idle sessions are
// evicted by a background sweep so abandoned workflows do not accumulate.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	collab Collaborators
	logger *errors.Logger

	idleTTL  time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewManager creates a session manager and starts its eviction sweep
func NewManager(collab Collaborators, idleTTL time.Duration, logger *errors.Logger) *Manager {
	if idleTTL <= 0 {
		idleTTL = time.Hour
	}

	m := &Manager{
		sessions: make(map[string]*Session),
		collab:   collab,
		logger:   logger,
		idleTTL:  idleTTL,
		stopChan: make(chan struct{}),
	}

	go m.sweepLoop()
	return m
}

// Create registers a new session at the intake stage
func (m *Manager) Create() *Session {
	s := NewSession(m.collab, m.logger)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Debug("Session created", "session_id", s.ID())
	}
	return s
}

// Get returns the session with the given ID
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeSessionNotFound,
			"no session with that ID", nil).WithContext("session_id", id)
	}
	return s, nil
}

// Delete removes a session
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stop terminates the eviction sweep
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(m.idleTTL / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastUsed.Before(cutoff)
		s.mu.Unlock()

		if idle {
			delete(m.sessions, id)
			if m.logger != nil {
				m.logger.Debug("Evicted idle session", "session_id", id)
			}
		}
	}
}
