package auth

import (
	"testing"
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "stockroom-test",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testJWTConfig())
	userID := uuid.New()

	raw, expiresAt, err := issuer.Mint(userID, "admin@example.com", enums.UserRoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.True(t, expiresAt.After(time.Now()))

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, userID, claims.UserID)
	require.Equal(t, "admin@example.com", claims.Email)
	require.Equal(t, enums.UserRoleAdmin, claims.Role)
	require.Equal(t, "stockroom-test", claims.Issuer)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer(testJWTConfig())
	raw, _, err := issuer.Mint(uuid.New(), "staff@example.com", enums.UserRoleStaff)
	require.NoError(t, err)

	other := NewTokenIssuer(config.JWTConfig{Secret: "different", Issuer: "stockroom-test", ExpirationMinutes: 30})
	_, err = other.Parse(raw)
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer(testJWTConfig())
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	raw, _, err := issuer.Mint(uuid.New(), "staff@example.com", enums.UserRoleStaff)
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(raw)
	require.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	minting := NewTokenIssuer(config.JWTConfig{Secret: "unit-test-secret", Issuer: "someone-else", ExpirationMinutes: 30})
	raw, _, err := minting.Mint(uuid.New(), "staff@example.com", enums.UserRoleStaff)
	require.NoError(t, err)

	_, err = NewTokenIssuer(testJWTConfig()).Parse(raw)
	require.Error(t, err)
}
