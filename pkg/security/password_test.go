package security

import (
	"strings"
	"testing"

	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/stretchr/testify/require"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", testPasswordConfig())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyPassword("s3cret", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("whatever", "not-a-hash")
	require.ErrorIs(t, err, ErrInvalidHash)
}

func TestRandomDigits(t *testing.T) {
	digits, err := RandomDigits(10)
	require.NoError(t, err)
	require.Len(t, digits, 10)
	for _, r := range digits {
		require.True(t, r >= '0' && r <= '9')
	}

	_, err = RandomDigits(0)
	require.Error(t, err)
}
