package classrecord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/classrecord/pkg/credstore"
	"github.com/aussiebroadwan/classrecord/pkg/jwtx"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
)

// Login authenticates with a username and password. Any previous session is
// discarded first; on success the tokens and profile are persisted.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	if err := c.sess.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear previous session: %w", err)
	}

	var out LoginResponse
	err := c.do(ctx, http.MethodPost, c.cfg.Endpoints.Login, nil,
		LoginRequest{Username: username, Password: password}, &out)
	if err != nil {
		return nil, err
	}

	if out.Token == "" {
		return nil, errors.New("login response carried no token")
	}

	if err := c.sess.SetTokens(ctx, out.Token, out.RefreshToken); err != nil {
		return nil, fmt.Errorf("persist tokens: %w", err)
	}
	if err := c.sess.SetProfile(ctx, credstore.Profile{
		FirstName: out.FirstName,
		LastName:  out.LastName,
		Username:  out.Username,
	}); err != nil {
		return nil, fmt.Errorf("persist profile: %w", err)
	}

	slogx.FromContext(ctx).Info("logged in", "username", out.Username, "role", out.Role)
	return &out, nil
}

// Logout clears the tokens and the cached profile.
func (c *Client) Logout(ctx context.Context) error {
	return c.sess.Clear(ctx)
}

// RegisterStudent starts a student registration. The server answers with a
// one-time code that RegisterStudentUsername needs.
func (c *Client) RegisterStudent(ctx context.Context, req Register) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.do(ctx, http.MethodPost, c.cfg.Endpoints.RegisterStudent, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterStudentUsername completes a registration by choosing credentials
// and a course, proven with the one-time code.
func (c *Client) RegisterStudentUsername(ctx context.Context, otp string, req UsernamePassword) (*RegisterUsernameResponse, error) {
	if otp == "" {
		return nil, errors.New("otp is required")
	}

	var out RegisterUsernameResponse
	query := url.Values{"otp": {otp}}
	if err := c.do(ctx, http.MethodPost, c.cfg.Endpoints.RegisterUsername, query, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the profile cached at login.
func (c *Client) Profile(ctx context.Context) (credstore.Profile, bool) {
	return c.sess.Profile(ctx)
}

// Role returns the role claim of the stored access token, or "" when there is
// no token or it cannot be decoded.
func (c *Client) Role(ctx context.Context) string {
	token, ok := c.sess.AccessToken(ctx)
	if !ok {
		return ""
	}
	return jwtx.RoleOf(token)
}

// LoggedIn reports whether an access token is stored. The token may still
// need a refresh.
func (c *Client) LoggedIn(ctx context.Context) bool {
	_, ok := c.sess.AccessToken(ctx)
	return ok
}
