package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("longpass1")
	require.NoError(t, err)
	require.NotEqual(t, "longpass1", hash)

	require.True(t, VerifyPassword(hash, "longpass1"))
	require.False(t, VerifyPassword(hash, "wrongpass"))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	require.False(t, VerifyPassword("not-a-bcrypt-hash", "longpass1"))
}
