package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// CredentialKey is the single well-known key holding the raw bearer token
const CredentialKey = "access_token"

// CredentialStore persists the session credential across process runs.
// Only the session manager writes through it.
type CredentialStore struct {
	repo *Repository
}

// NewCredentialStore wraps the client_storage table
func NewCredentialStore(repo *Repository) *CredentialStore {
	return &CredentialStore{repo: repo}
}

// LoadCredential returns the stored token, or "" when none is stored
func (s *CredentialStore) LoadCredential() (string, error) {
	var token string
	err := s.repo.db.QueryRow(
		`SELECT value FROM client_storage WHERE key = ?`, CredentialKey,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	return token, nil
}

// SaveCredential stores the token, replacing any previous one
func (s *CredentialStore) SaveCredential(token string) error {
	_, err := s.repo.db.Exec(
		`INSERT INTO client_storage (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		CredentialKey, token,
	)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// ClearCredential removes the stored token
func (s *CredentialStore) ClearCredential() error {
	if _, err := s.repo.db.Exec(`DELETE FROM client_storage WHERE key = ?`, CredentialKey); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
