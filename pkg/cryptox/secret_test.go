package cryptox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "device.secret")

	first, err := LoadOrGenerateSecret(path)
	require.NoError(t, err)
	require.Len(t, first, SecretSize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// second load must return the persisted secret, not a fresh one
	second, err := LoadOrGenerateSecret(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestLoadOrGenerateSecret_Invalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty")
		require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

		_, err := LoadOrGenerateSecret(path)
		require.ErrorIs(t, err, ErrEmptySecret)
	})

	t.Run("not base64", func(t *testing.T) {
		path := filepath.Join(dir, "garbage")
		require.NoError(t, os.WriteFile(path, []byte("!!!"), 0o600))

		_, err := LoadOrGenerateSecret(path)
		require.Error(t, err)
	})
}

func TestDeriveKey(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")

	a, err := DeriveKey(secret, "credstore", 32)
	require.NoError(t, err)
	require.Len(t, a, 32)

	again, err := DeriveKey(secret, "credstore", 32)
	require.NoError(t, err)
	require.Equal(t, a, again, "derivation must be deterministic")

	b, err := DeriveKey(secret, "something-else", 32)
	require.NoError(t, err)
	require.NotEqual(t, a, b, "info must separate keys")

	_, err = DeriveKey(nil, "credstore", 32)
	require.ErrorIs(t, err, ErrEmptySecret)

	_, err = DeriveKey(secret, "credstore", 0)
	require.Error(t, err)
}
