package credstore

import (
	"context"
	"errors"
)

// Keys under which the session is persisted.
const (
	KeyAccessToken  = "auth_token"
	KeyRefreshToken = "refresh_token"
	KeyFirstName    = "fname"
	KeyLastName     = "lname"
	KeyUsername     = "username"
)

// Profile holds the denormalized display fields cached at login so the
// profile does not have to be refetched on every launch.
type Profile struct {
	FirstName string `json:"fname"`
	LastName  string `json:"lname"`
	Username  string `json:"username"`
}

// Session is the explicit session context handed to the request pipeline.
// It is safe for concurrent use as long as the Backend is.
type Session struct {
	store *Store
}

func NewSession(store *Store) *Session {
	return &Session{store: store}
}

func (s *Session) AccessToken(ctx context.Context) (string, bool) {
	return s.store.Get(ctx, KeyAccessToken)
}

func (s *Session) RefreshToken(ctx context.Context) (string, bool) {
	return s.store.Get(ctx, KeyRefreshToken)
}

func (s *Session) SetAccessToken(ctx context.Context, token string) error {
	return s.store.Put(ctx, KeyAccessToken, token)
}

func (s *Session) SetRefreshToken(ctx context.Context, token string) error {
	return s.store.Put(ctx, KeyRefreshToken, token)
}

// SetTokens stores both tokens. The refresh token is left untouched when
// empty, matching servers that do not rotate it.
func (s *Session) SetTokens(ctx context.Context, access, refresh string) error {
	if err := s.SetAccessToken(ctx, access); err != nil {
		return err
	}
	if refresh == "" {
		return nil
	}
	return s.SetRefreshToken(ctx, refresh)
}

// Profile returns the cached profile. Fields that are missing or fail their
// integrity check come back empty; ok reports whether a username is cached.
func (s *Session) Profile(ctx context.Context) (Profile, bool) {
	var p Profile
	p.FirstName, _ = s.store.Get(ctx, KeyFirstName)
	p.LastName, _ = s.store.Get(ctx, KeyLastName)

	var ok bool
	p.Username, ok = s.store.Get(ctx, KeyUsername)
	return p, ok
}

func (s *Session) SetProfile(ctx context.Context, p Profile) error {
	return errors.Join(
		s.store.Put(ctx, KeyFirstName, p.FirstName),
		s.store.Put(ctx, KeyLastName, p.LastName),
		s.store.Put(ctx, KeyUsername, p.Username),
	)
}

// Clear removes the tokens and the cached profile together. Every key is
// attempted even if an earlier removal fails.
func (s *Session) Clear(ctx context.Context) error {
	return errors.Join(
		s.store.Remove(ctx, KeyAccessToken),
		s.store.Remove(ctx, KeyRefreshToken),
		s.store.Remove(ctx, KeyFirstName),
		s.store.Remove(ctx, KeyLastName),
		s.store.Remove(ctx, KeyUsername),
	)
}
