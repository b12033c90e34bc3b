package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateTokens(t *testing.T) {
	a := NewJWTAuthenticator("access-secret", "refresh-secret", "brewscout", "brewscout")

	access, refresh, err := a.GenerateTokens(42, "Novice Scout")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	token, err := a.ValidateAccessToken(access)
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.EqualValues(t, 42, claims["sub"])
	assert.Equal(t, "Novice Scout", claims["rank"])

	_, err = a.ValidateRefreshToken(refresh)
	require.NoError(t, err)
}

func TestAccessTokenRejectedByRefreshValidator(t *testing.T) {
	a := NewJWTAuthenticator("access-secret", "refresh-secret", "brewscout", "brewscout")

	access, _, err := a.GenerateTokens(7, "Novice Scout")
	require.NoError(t, err)

	_, err = a.ValidateRefreshToken(access)
	assert.Error(t, err, "tokens signed with the access secret must not pass refresh validation")
}
