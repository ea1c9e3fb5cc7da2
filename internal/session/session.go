// Package session keeps one wizard per browser session for the HTTP service.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/loan-wizard/internal/wizard"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// ErrLimitReached is returned by Create once the live session limit is reached.
var ErrLimitReached = errors.New("session limit reached")

// Factory starts a wizard for a visitor.
type Factory func(ctx context.Context, visitorID string) (*wizard.Wizard, error)

type entry struct {
	wizard   *wizard.Wizard
	lastSeen time.Time
}

// Manager maps session ids to wizards and drops sessions idle for longer
// than the configured timeout.
type Manager struct {
	logger      *zap.Logger
	factory     Factory
	idleTimeout time.Duration
	now         func() time.Time

	mu          sync.Mutex
	maxSessions int
	sessions    map[string]*entry
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewManager creates a Manager. A positive idleTimeout starts a background
// sweep every idleTimeout/2 that runs until Stop.
func NewManager(logger *zap.Logger, factory Factory, idleTimeout time.Duration) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		logger:      logger,
		factory:     factory,
		idleTimeout: idleTimeout,
		now:         time.Now,
		sessions:    make(map[string]*entry),
		stopCleanup: make(chan struct{}),
	}
	if idleTimeout > 0 {
		go m.cleanupLoop(idleTimeout / 2)
	}
	return m
}

func (m *Manager) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the background sweep.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCleanup)
	})
}

// SetMaxSessions caps the number of live sessions. Zero or less removes the cap.
func (m *Manager) SetMaxSessions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSessions = n
}

// hasRoom reports whether another session fits, sweeping expired ones
// first when the cap is reached. Callers hold mu.
func (m *Manager) hasRoom() bool {
	if m.maxSessions <= 0 || len(m.sessions) < m.maxSessions {
		return true
	}
	m.sweepLocked()
	return len(m.sessions) < m.maxSessions
}

// Create starts a new wizard for visitorID and returns its session id.
func (m *Manager) Create(ctx context.Context, visitorID string) (string, *wizard.Wizard, error) {
	m.mu.Lock()
	room := m.hasRoom()
	m.mu.Unlock()
	if !room {
		return "", nil, ErrLimitReached
	}

	w, err := m.factory(ctx, visitorID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to start wizard: %w", err)
	}

	id := uuid.NewString()
	m.mu.Lock()
	if !m.hasRoom() {
		m.mu.Unlock()
		return "", nil, ErrLimitReached
	}
	m.sessions[id] = &entry{wizard: w, lastSeen: m.now()}
	count := len(m.sessions)
	m.mu.Unlock()

	m.logger.Debug("session created",
		zap.String("op", "session.Create"),
		zap.String("session", id),
		zap.String("visitor", visitorID),
		zap.Int("sessions", count),
	)
	return id, w, nil
}

// Get returns the wizard of session id and refreshes its idle timer.
func (m *Manager) Get(id string) (*wizard.Wizard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok || m.expired(e) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	e.lastSeen = m.now()
	return e.wizard, nil
}

// Delete drops session id.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops every expired session and returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked()
}

func (m *Manager) sweepLocked() int {
	removed := 0
	for id, e := range m.sessions {
		if m.expired(e) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug("expired sessions removed",
			zap.String("op", "session.Sweep"),
			zap.Int("removed", removed),
			zap.Int("remaining", len(m.sessions)),
		)
	}
	return removed
}

func (m *Manager) expired(e *entry) bool {
	return m.idleTimeout > 0 && m.now().Sub(e.lastSeen) > m.idleTimeout
}
