package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get("payor_access_token")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("payor_access_token", "abc"))
	v, err := s.Get("payor_access_token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Delete("payor_access_token"))
	require.NoError(t, s.Delete("payor_access_token"))
	_, err = s.Get("payor_access_token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeyringStore_ArrayBackend(t *testing.T) {
	s := NewKeyringStore(t.TempDir())
	// Pre-open with the in-memory backend so the test never touches the OS keyring.
	s.once.Do(func() { s.ring = keyring.NewArrayKeyring(nil) })

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("payor_refresh_token", "r1"))
	v, err := s.Get("payor_refresh_token")
	require.NoError(t, err)
	assert.Equal(t, "r1", v)

	require.NoError(t, s.Delete("payor_refresh_token"))
	require.NoError(t, s.Delete("payor_refresh_token"))
}
