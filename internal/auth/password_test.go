package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashVerify(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	for _, pw := range []string{"Patient123!", "", "שלום-עולם", strings.Repeat("x", MaxPasswordBytes)} {
		hash, err := hasher.Hash(pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, hash)
		assert.True(t, hasher.Verify(pw, hash), "password %q", pw)
		assert.False(t, hasher.Verify(pw+"?", hash), "password %q", pw)
	}
}

func TestHashIsSalted(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestHashRejectsLongPasswords(t *testing.T) {
	_, err := NewHasher(bcrypt.MinCost).Hash(strings.Repeat("x", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestVerifyRejectsLongerPasswordWithSamePrefix(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)
	pw := strings.Repeat("a", MaxPasswordBytes)
	hash, err := hasher.Hash(pw)
	require.NoError(t, err)

	assert.True(t, hasher.Verify(pw, hash))
	assert.False(t, hasher.Verify(pw+"-suffix", hash))
}

func TestVerifyGarbageHash(t *testing.T) {
	assert.False(t, NewHasher(bcrypt.MinCost).Verify("pw", "not-a-bcrypt-hash"))
}

func TestVerifyNoneRunsAtHasherCost(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost + 1)

	assert.False(t, hasher.VerifyNone("no-account-has-this-password"))
	assert.False(t, hasher.VerifyNone(strings.Repeat("x", MaxPasswordBytes+10)))

	cost, err := bcrypt.Cost(hasher.dummy)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
}
