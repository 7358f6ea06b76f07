package api

import (
	"context"
	"fmt"
)

// AuthClient implements AuthService against the mailboard backend.
type AuthClient struct {
	client *Client
}

// NewAuthClient creates an AuthService backed by the given API client.
func NewAuthClient(client *Client) *AuthClient {
	return &AuthClient{client: client}
}

// Login authenticates with email and password.
func (a *AuthClient) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	var result AuthResult
	if err := a.client.Post(ctx, "/auth/login", creds, &result); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	return &result, nil
}

// GoogleLogin authenticates with a Google ID credential.
func (a *AuthClient) GoogleLogin(ctx context.Context, credential string) (*AuthResult, error) {
	body := map[string]string{"credential": credential}

	var result AuthResult
	if err := a.client.Post(ctx, "/auth/google", body, &result); err != nil {
		return nil, fmt.Errorf("logging in with Google: %w", err)
	}
	return &result, nil
}

// Refresh exchanges a refresh token for a new access token. An empty
// refresh token fails immediately with an AuthError; the session treats
// that as fatal.
func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, &AuthError{Op: "refresh", Message: "no refresh token available"}
	}

	body := map[string]string{"refreshToken": refreshToken}

	var result AuthResult
	if err := a.client.Post(ctx, "/auth/refresh", body, &result); err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	return &result, nil
}

// Logout invalidates the refresh token server-side.
func (a *AuthClient) Logout(ctx context.Context) error {
	if err := a.client.Post(ctx, "/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}
