package fakeapi

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/cryptox"
	"github.com/aussiebroadwan/classrecord/pkg/idx"
	"github.com/aussiebroadwan/classrecord/pkg/jwtx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
)

// TokenPair is what login and refresh hand out.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService mints access tokens with an ephemeral Ed25519 key and keeps
// refresh tokens by fingerprint.
type TokenService struct {
	Store      *Store
	Signer     jwtx.Signer
	Verifier   *jwtx.EdDSAVerifier
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is the clock used for minting. nil means time.Now.
	Now func() time.Time
}

// NewTokenService generates a fresh signing key. Tokens do not survive a
// restart.
func NewTokenService(store *Store, issuer string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	pemKey, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}

	kid := idx.New().String()
	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	if err != nil {
		return nil, fmt.Errorf("load signing key: %w", err)
	}
	pub, ok := signer.Public().(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("signing key is not ed25519")
	}

	s := &TokenService{
		Store:      store,
		Signer:     signer,
		Issuer:     issuer,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}
	s.Verifier = jwtx.NewVerifierEdDSA(kid, pub, issuer)
	s.Verifier.Now = s.now
	return s, nil
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login checks a password and issues a token pair. Unknown users and wrong
// passwords both return ErrInvalidCredentials.
func (s *TokenService) Login(username, password string) (User, TokenPair, error) {
	u, err := s.Store.UserByUsername(username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, TokenPair{}, ErrInvalidCredentials
		}
		return User{}, TokenPair{}, err
	}
	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		return User{}, TokenPair{}, ErrInvalidCredentials
	}

	now := s.now()
	access, err := s.signAccess(u, now)
	if err != nil {
		return User{}, TokenPair{}, err
	}
	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return User{}, TokenPair{}, err
	}
	s.Store.CreateRefreshToken(RefreshToken{
		Hash:      cryptox.FingerprintToken(refresh),
		Subject:   u.Subject,
		ExpiresAt: now.Add(s.RefreshTTL),
	})

	return u, TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rotates a refresh token. The presented token is revoked whether or
// not the caller keeps the new one.
func (s *TokenService) Refresh(refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, ErrInvalidRefresh
	}

	now := s.now()
	next, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return TokenPair{}, err
	}

	subject, err := s.Store.RotateRefreshToken(
		cryptox.FingerprintToken(refreshToken),
		RefreshToken{Hash: cryptox.FingerprintToken(next), ExpiresAt: now.Add(s.RefreshTTL)},
		now,
	)
	if err != nil {
		return TokenPair{}, ErrInvalidRefresh
	}

	u, err := s.Store.UserBySubject(subject)
	if err != nil {
		return TokenPair{}, ErrInvalidRefresh
	}
	access, err := s.signAccess(u, now)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: next}, nil
}

func (s *TokenService) signAccess(u User, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(u.Subject, u.Role, u.Username, s.Issuer, s.AccessTTL, now)
	return s.Signer.Sign(claims)
}
