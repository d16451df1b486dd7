package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stationkit/aircheck/internal/config"
	"github.com/stationkit/aircheck/internal/logger"
)

// Manager is the registry of live playback sessions. Idle sessions are
// reaped by a background cleanup loop after the configured grace period.
type Manager struct {
	deps     Deps
	cfg      *config.SessionsConfig
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Controller

	cleanupTicker *time.Ticker
	stopChan      chan struct{}
	cleanupDone   chan struct{}
	stopped       bool
}

// NewManager creates a new session manager instance
func NewManager(deps Deps, cfg *config.SessionsConfig) *Manager {
	return &Manager{
		deps:        deps,
		cfg:         cfg,
		sessions:    make(map[uuid.UUID]*Controller),
		stopChan:    make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Start launches the background cleanup loop
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrManagerStopped
	}

	m.cleanupTicker = time.NewTicker(m.cfg.CleanupInterval)
	go m.runCleanupLoop()

	logger.Log.Info().
		Dur("cleanup_interval", m.cfg.CleanupInterval).
		Dur("grace_period", m.cfg.GracePeriod).
		Msg("Session manager started")

	return nil
}

// Stop gracefully shuts down the session manager
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	count := len(m.sessions)
	m.mu.Unlock()

	close(m.stopChan)
	if m.cleanupTicker != nil {
		<-m.cleanupDone
		m.cleanupTicker.Stop()
	}

	logger.Log.Info().
		Int("active_sessions", count).
		Msg("Session manager stopped")
}

// Create registers a new playback session for a listener
func (m *Manager) Create(listenerID string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil, ErrManagerStopped
	}

	ctrl := NewController(listenerID, m.deps)
	m.sessions[ctrl.ID()] = ctrl

	logger.Log.Debug().
		Str("session_id", ctrl.ID().String()).
		Str("listener_id", listenerID).
		Msg("Playback session created")

	return ctrl, nil
}

// Get returns the session with the given ID
func (m *Manager) Get(id uuid.UUID) (*Controller, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctrl, ok := m.sessions[id]
	return ctrl, ok
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// runCleanupLoop reaps idle sessions until the manager is stopped
func (m *Manager) runCleanupLoop() {
	defer close(m.cleanupDone)

	for {
		select {
		case <-m.stopChan:
			return
		case <-m.cleanupTicker.C:
			m.cleanupIdleSessions()
		}
	}
}

// cleanupIdleSessions removes sessions idle beyond the grace period
func (m *Manager) cleanupIdleSessions() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, ctrl := range m.sessions {
		if ctrl.IdleDuration() > m.cfg.GracePeriod {
			delete(m.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		logger.Log.Debug().
			Int("removed", removed).
			Int("remaining", len(m.sessions)).
			Msg("Reaped idle playback sessions")
	}
}
