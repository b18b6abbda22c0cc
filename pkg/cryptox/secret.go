package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// SecretSize is the size in bytes of a generated device secret.
const SecretSize = 32

// ErrEmptySecret is returned when a secret file exists but holds nothing usable.
var ErrEmptySecret = errors.New("cryptox: secret file is empty")

// LoadOrGenerateSecret loads the device secret stored at path, creating a new
// random one (mode 0600) on first use. The file holds the secret base64url
// encoded so it survives being copied around as text.
func LoadOrGenerateSecret(path string) ([]byte, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("cryptox: create secret dir: %w", err)
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return generateSecretFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("cryptox: read secret: %w", err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, ErrEmptySecret
	}

	secret, err := base64.RawURLEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("cryptox: decode secret: %w", err)
	}
	return secret, nil
}

func generateSecretFile(path string) ([]byte, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("cryptox: generate secret: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(secret)
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return nil, fmt.Errorf("cryptox: write secret: %w", err)
	}
	return secret, nil
}

// DeriveKey expands secret into a size-byte key bound to info using
// HKDF-SHA256. Different info strings yield independent keys.
func DeriveKey(secret []byte, info string, size int) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if size <= 0 {
		return nil, fmt.Errorf("cryptox: key size must be positive, got %d", size)
	}

	key := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("cryptox: derive key: %w", err)
	}
	return key, nil
}
