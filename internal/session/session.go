// Package session owns the process-wide auth state: the signed-in user,
// the rotating access token, and the keyring-persisted refresh token. It
// is created at startup, handed explicitly to collaborators, and torn
// down on logout.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/mpham/mailboard/internal/api"
	"github.com/mpham/mailboard/internal/credential"
	"github.com/mpham/mailboard/internal/model"
)

// Session holds the authenticated user and tokens for one client process.
// It implements api.TokenSource so the HTTP client always sees the
// current access token, including after a refresh.
type Session struct {
	mu          sync.Mutex
	user        *model.User
	accessToken string
}

// New returns an empty, signed-out session.
func New() *Session {
	return &Session{}
}

// AccessToken returns the current bearer token, or "" when signed out.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// User returns the signed-in user, or nil when signed out.
func (s *Session) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Authenticated reports whether a user is signed in.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.accessToken != ""
}

// Establish installs the result of a successful login or refresh,
// persisting the refresh token to the keyring when one was issued.
func (s *Session) Establish(result *api.AuthResult) error {
	s.mu.Lock()
	user := result.User
	s.user = &user
	s.accessToken = result.AccessToken
	s.mu.Unlock()

	if result.RefreshToken != "" {
		if err := credential.SaveRefreshToken(result.RefreshToken); err != nil {
			return fmt.Errorf("persisting refresh token: %w", err)
		}
	}
	return nil
}

// Refresh exchanges the stored refresh token for a new access token.
// A missing refresh token or a failed exchange is fatal to the session:
// state is cleared and the caller must force a logout.
func (s *Session) Refresh(ctx context.Context, auth api.AuthService) error {
	refreshToken := credential.LoadRefreshToken()
	if refreshToken == "" {
		s.Clear()
		return &api.AuthError{Op: "refresh", Message: "no refresh token available"}
	}

	result, err := auth.Refresh(ctx, refreshToken)
	if err != nil {
		s.Clear()
		return fmt.Errorf("session refresh failed: %w", err)
	}

	s.mu.Lock()
	s.accessToken = result.AccessToken
	if s.user == nil {
		user := result.User
		s.user = &user
	}
	s.mu.Unlock()

	if result.RefreshToken != "" {
		if err := credential.SaveRefreshToken(result.RefreshToken); err != nil {
			return fmt.Errorf("persisting rotated refresh token: %w", err)
		}
	}
	return nil
}

// Clear wipes the in-memory session state and the stored refresh token.
// It is safe to call on an already-cleared session.
func (s *Session) Clear() {
	s.mu.Lock()
	s.user = nil
	s.accessToken = ""
	s.mu.Unlock()

	// Best effort; a stale token in the keyring is replaced on next login.
	_ = credential.SaveRefreshToken("")
}

// Logout invalidates the refresh token server-side and clears local
// state. Local state is cleared even when the remote call fails.
func (s *Session) Logout(ctx context.Context, auth api.AuthService) error {
	err := auth.Logout(ctx)
	s.Clear()
	if err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}
