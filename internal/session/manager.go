package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ShinAdam/Badminton-Elo-App/internal/api"
)

// Manager is the single writer of the session and the persisted credential.
// Everything else reads through Current or, for the request layer, Token.
//
// Login and Logout are not serialized against each other: each writes the
// stored credential and the session in one critical section and the last
// commit wins for both. Front ends are expected to avoid overlapping them.
type Manager struct {
	api   AuthAPI
	store CredentialStore

	mu         sync.RWMutex
	current    Session
	credential string

	initOnce sync.Once
	ready    chan struct{}
}

// NewManager creates a manager in StateUnknown
func NewManager(authAPI AuthAPI, store CredentialStore) *Manager {
	return &Manager{
		api:     authAPI,
		store:   store,
		current: Session{State: StateUnknown},
		ready:   make(chan struct{}),
	}
}

// Current returns the session without touching the network
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Token implements api.TokenSource
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential
}

// Ready is closed once Initialize has finished
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Initialize restores the persisted credential and verifies it with the
// server. Only the first call does work; later calls wait for it and return
// its outcome. It never returns an error: every failure ends unauthenticated.
func (m *Manager) Initialize(ctx context.Context) Session {
	m.initOnce.Do(func() {
		defer close(m.ready)
		m.initialize(ctx)
	})
	<-m.ready
	return m.Current()
}

func (m *Manager) initialize(ctx context.Context) {
	token, err := m.store.LoadCredential()
	if err != nil {
		slog.Warn("Could not read stored credential, starting logged out", "error", err)
		token = ""
	}
	if token == "" {
		m.commit(unauthenticated(), "", nil)
		slog.Debug("No stored credential")
		return
	}

	ident, err := m.api.Self(api.WithCredential(ctx, token))
	if err != nil {
		slog.Info("Stored credential rejected, clearing it", "error", err)
		m.commit(unauthenticated(), "", m.clearStored)
		return
	}

	m.commit(authenticated(ident), token, nil)
	slog.Info("Session restored", "userID", ident.ID, "username", ident.Username)
}

// Login authenticates, verifies the new credential against /auth/self, then
// persists it and publishes the session. On any error nothing is changed.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	token, err := m.api.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	ident, err := m.api.Self(api.WithCredential(ctx, token))
	if err != nil {
		return fmt.Errorf("failed to verify new session: %w", err)
	}

	save := func() error { return m.store.SaveCredential(token) }
	if err := m.commit(authenticated(ident), token, save); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	slog.Info("Logged in", "userID", ident.ID, "username", ident.Username)
	return nil
}

// Logout tells the server (best effort) and then always clears local state
func (m *Manager) Logout(ctx context.Context) {
	if m.Token() != "" {
		if err := m.api.Logout(ctx); err != nil {
			slog.Warn("Server logout failed, clearing local session anyway", "error", err)
		}
	}

	m.commit(unauthenticated(), "", m.clearStored)
	slog.Info("Logged out")
}

// clearStored never fails the commit: local logout must always happen
func (m *Manager) clearStored() error {
	if err := m.store.ClearCredential(); err != nil {
		slog.Error("Failed to clear stored credential", "error", err)
	}
	return nil
}

// commit runs persist and publishes s under one lock, so the stored
// credential and the in-memory session always come from the same operation.
// If persist fails nothing is published.
func (m *Manager) commit(s Session, credential string, persist func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if persist != nil {
		if err := persist(); err != nil {
			return err
		}
	}
	m.current = s
	m.credential = credential
	return nil
}
