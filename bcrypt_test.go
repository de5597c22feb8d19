package portal_test

import (
	"testing"

	portal "github.com/goliatone/go-portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Run("hashes a password", func(t *testing.T) {
		hash, err := portal.HashPassword("a-strong-password")
		require.NoError(t, err)
		assert.NotEmpty(t, hash)
		assert.NotEqual(t, "a-strong-password", hash)
	})

	t.Run("empty password is rejected", func(t *testing.T) {
		_, err := portal.HashPassword("")
		assert.ErrorIs(t, err, portal.ErrNoEmptyString)
	})

	t.Run("same password yields different hashes", func(t *testing.T) {
		a, err := portal.HashPassword("a-strong-password")
		require.NoError(t, err)
		b, err := portal.HashPassword("a-strong-password")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := portal.HashPassword("a-strong-password")
	require.NoError(t, err)

	t.Run("matching password passes", func(t *testing.T) {
		assert.NoError(t, portal.ComparePasswordAndHash("a-strong-password", hash))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		err := portal.ComparePasswordAndHash("not-the-password", hash)
		assert.ErrorIs(t, err, portal.ErrMismatchedHashAndPassword)
	})

	t.Run("garbage hash fails", func(t *testing.T) {
		assert.Error(t, portal.ComparePasswordAndHash("a-strong-password", "not-a-hash"))
	})
}
