package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherHashAndVerify(t *testing.T) {
	hasher := NewHasher(4)
	hash, err := hasher.Hash("muad-dib")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "muad-dib", hash)

	assert.True(t, hasher.Verify(hash, "muad-dib"))
	assert.False(t, hasher.Verify(hash, "usul"))
	assert.False(t, hasher.Verify("not a bcrypt hash", "muad-dib"))
}

func TestHasherDistinctHashes(t *testing.T) {
	hasher := NewHasher(4)
	first, err := hasher.Hash("secret")
	require.NoError(t, err)
	second, err := hasher.Hash("secret")
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "bcrypt salts every hash")
}

// TestHasherCostClamping verifies costs outside bcrypt's supported range fall
// back to the default instead of failing at hash time.
func TestHasherCostClamping(t *testing.T) {
	for _, cost := range []int{-1, 0, 3, 32, 100} {
		hasher := NewHasher(cost)
		hash, err := hasher.Hash("pw")
		require.NoError(t, err, "cost %d", cost)
		assert.True(t, hasher.Verify(hash, "pw"))
	}
}

func TestTokenStoreIssueAndValidate(t *testing.T) {
	store := NewTokenStore(time.Hour)
	session := store.Issue("gurney")
	require.NotEmpty(t, session.Token)
	assert.Equal(t, "gurney", session.Account)
	assert.True(t, session.ExpiresAt.After(session.CreatedAt))

	got, ok := store.Validate(session.Token)
	require.True(t, ok)
	assert.Equal(t, session.Account, got.Account)

	_, ok = store.Validate("unknown-token")
	assert.False(t, ok)
}

func TestTokenStoreExpiry(t *testing.T) {
	store := NewTokenStore(-time.Second)
	session := store.Issue("gurney")

	_, ok := store.Validate(session.Token)
	assert.False(t, ok, "expired sessions must not validate")
}

func TestTokenStoreRevoke(t *testing.T) {
	store := NewTokenStore(time.Hour)
	session := store.Issue("gurney")

	store.Revoke(session.Token)
	_, ok := store.Validate(session.Token)
	assert.False(t, ok)

	// Revoking an unknown token is a no-op.
	store.Revoke("unknown-token")
}

func TestTokenStoreSweep(t *testing.T) {
	store := NewTokenStore(-time.Second)
	store.Issue("gurney")
	store.Issue("duncan")

	live := NewTokenStore(time.Hour)
	keep := live.Issue("thufir")

	assert.Equal(t, 2, store.Sweep())
	assert.Equal(t, 0, store.Sweep(), "second sweep finds nothing")

	assert.Equal(t, 0, live.Sweep())
	_, ok := live.Validate(keep.Token)
	assert.True(t, ok)
}
