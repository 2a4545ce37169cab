package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ShinAdam/Badminton-Elo-App/internal/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token.
// A 401 comes back as *AuthenticationError.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out loginResponse
	if err := c.do(ctx, http.MethodPost, loginPath, loginRequest{Username: username, Password: password}, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", &AuthenticationError{Message: "server returned an empty access token"}
	}
	return out.AccessToken, nil
}

// Logout revokes the current credential on the server
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Self returns the identity behind the attached credential
func (c *Client) Self(ctx context.Context) (*models.Identity, error) {
	var ident models.Identity
	if err := c.do(ctx, http.MethodGet, "/auth/self", nil, &ident); err != nil {
		return nil, err
	}
	if ident.ID == 0 || ident.Username == "" {
		return nil, fmt.Errorf("incomplete identity from /auth/self: id=%d username=%q", ident.ID, ident.Username)
	}
	return &ident, nil
}

// Register creates a new account
func (c *Client) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	if reg.Username == "" || reg.Password == "" {
		return nil, &models.ValidationError{Field: "registration", Reason: "username and password are required"}
	}
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/auth/register", reg, &user); err != nil {
		return nil, fmt.Errorf("failed to register %q: %w", reg.Username, err)
	}
	return &user, nil
}
