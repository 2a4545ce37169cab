// Package session owns the client's authentication state: who is logged in
// and the bearer credential attached to every outgoing request.
package session

import (
	"context"
	"fmt"

	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
)

// State is the position in the session state machine
type State int

const (
	// StateUnknown is the state before Initialize has finished
	StateUnknown State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is the in-memory view of the current viewer.
// ViewerID and ViewerUsername are set only in StateAuthenticated, and only
// from a verified /auth/self response.
type Session struct {
	State          State
	ViewerID       models.UserID
	ViewerUsername string
}

// Authenticated reports whether a verified viewer is logged in
func (s Session) Authenticated() bool {
	return s.State == StateAuthenticated
}

func unauthenticated() Session {
	return Session{State: StateUnauthenticated}
}

func authenticated(ident *models.Identity) Session {
	return Session{
		State:          StateAuthenticated,
		ViewerID:       ident.ID,
		ViewerUsername: ident.Username,
	}
}

// AuthAPI is the slice of the REST client the manager drives
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context) error
	Self(ctx context.Context) (*models.Identity, error)
}

// CredentialStore persists the raw bearer token under a single key
type CredentialStore interface {
	LoadCredential() (string, error)
	SaveCredential(token string) error
	ClearCredential() error
}
