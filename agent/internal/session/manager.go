// Package session tracks per-user authenticated sessions with lazy expiry.
package session

import (
	"context"
	"sync"
	"time"
)

// Session is created on successful login and never mutated; it is replaced by
// the next login or allowed to lapse.
type Session struct {
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// CredentialVerifier is the external login collaborator. The manager never
// inspects credentials itself.
type CredentialVerifier interface {
	Verify(ctx context.Context, userID, credential string) (bool, error)
}

// Manager is the process-scoped session table. Expired entries are evicted
// lazily on access; there is no background sweeper.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]Session
	timeout  time.Duration
	verifier CredentialVerifier
	now      func() time.Time
}

const DefaultTimeout = 15 * time.Minute

func NewManager(verifier CredentialVerifier, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{
		sessions: make(map[string]Session),
		timeout:  timeout,
		verifier: verifier,
		now:      time.Now,
	}
}

// Login verifies the credential with the external collaborator and creates a
// session on success. An existing session for the user is replaced.
func (m *Manager) Login(ctx context.Context, userID, credential string) (bool, error) {
	ok, err := m.verifier.Verify(ctx, userID, credential)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	m.CreateSession(userID)
	return true, nil
}

// CreateSession installs a fresh session for userID.
func (m *Manager) CreateSession(userID string) Session {
	now := m.now()
	s := Session{UserID: userID, CreatedAt: now, ExpiresAt: now.Add(m.timeout)}
	m.mu.Lock()
	m.sessions[userID] = s
	m.mu.Unlock()
	return s
}

// Authenticate reports whether userID has a live session. True strictly before
// ExpiresAt, false at or after it. Expired entries are dropped on the way out.
func (m *Manager) Authenticate(userID string) bool {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	if !m.now().Before(s.ExpiresAt) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent login may have replaced
		// the entry.
		if cur, ok := m.sessions[userID]; ok && !m.now().Before(cur.ExpiresAt) {
			delete(m.sessions, userID)
		}
		m.mu.Unlock()
		return false
	}
	return true
}

// Logout drops the user's session if present.
func (m *Manager) Logout(userID string) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}
