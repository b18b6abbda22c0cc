package credstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/classrecord/pkg/cryptox"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
)

// Separator splits the integrity tag from the plaintext in a stored value.
// Tags are hex so the first separator always ends the tag, and plaintexts
// may contain it freely.
const Separator = ":"

// ErrEmptySecret is returned by New when no secret is supplied.
var ErrEmptySecret = errors.New("credstore: secret must not be empty")

// Store wraps a Backend with integrity tags. Reads fail closed: anything that
// does not verify is reported as absent rather than as an error.
type Store struct {
	backend Backend
	secret  []byte
}

// New creates a Store over backend using secret as the device-embedded key.
// It panics if secret is empty since every tag would then be forgeable.
func New(backend Backend, secret []byte) *Store {
	if len(secret) == 0 {
		panic(ErrEmptySecret)
	}

	s := make([]byte, len(secret))
	copy(s, secret)
	return &Store{backend: backend, secret: s}
}

// Put stores plaintext under key, replacing any prior value.
func (s *Store) Put(ctx context.Context, key, plaintext string) error {
	if err := s.backend.Set(ctx, key, s.tag(plaintext)+Separator+plaintext); err != nil {
		return fmt.Errorf("credstore: put %q: %w", key, err)
	}
	return nil
}

// Get returns the plaintext stored under key. The second result is false
// when the key is missing, the value is corrupt, its tag does not match, or
// the backend could not be read.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	log := slogx.FromContext(ctx)

	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		log.Warn("credstore: backend read failed", "key", key, "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}

	tag, plaintext, found := strings.Cut(raw, Separator)
	if !found {
		log.Warn("credstore: stored value has no integrity tag", "key", key)
		return "", false
	}

	if !cryptox.Equal(tag, s.tag(plaintext)) {
		log.Warn("credstore: integrity tag mismatch", "key", key)
		return "", false
	}

	return plaintext, true
}

// Remove deletes key. Removing a missing key succeeds.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("credstore: remove %q: %w", key, err)
	}
	return nil
}

func (s *Store) tag(plaintext string) string {
	h := sha256.New()
	h.Write([]byte(plaintext))
	h.Write(s.secret)
	return hex.EncodeToString(h.Sum(nil))
}
