package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewULID(t *testing.T) {
	id, err := NewULID()

	require.NoError(t, err)
	require.Len(t, id, 26)
	require.True(t, IsULID(id))
}

func TestNewULIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewULID()
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate ULID %s", id)
		seen[id] = true
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("01HQZX3Y4K6F7G8H9J0K1M2N3P"))
	require.NoError(t, Validate("01hqzx3y4k6f7g8h9j0k1m2n3p"))
	require.ErrorIs(t, Validate("not-an-id"), ErrInvalidID)
	require.ErrorIs(t, Validate(""), ErrInvalidID)
	require.ErrorIs(t, Validate("01HQZX3Y4K6F7G8H9J0K1M2N"), ErrInvalidID)
}
