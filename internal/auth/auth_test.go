package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	site := uuid.New()
	p := Principal{UserID: uuid.New(), LocalSiteID: &site, IsAdmin: true}

	token, err := NewAccessToken(p, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, "secret")
	require.NoError(t, err)
	got := claims.Principal()
	assert.Equal(t, p.UserID, got.UserID)
	require.NotNil(t, got.LocalSiteID)
	assert.Equal(t, site, *got.LocalSiteID)
	assert.True(t, got.IsAdmin)
	assert.False(t, got.IsGlobalAdmin())
	assert.True(t, got.InLocalSite(site))
}

func TestAccessTokenGlobalUser(t *testing.T) {
	token, err := NewAccessToken(Principal{UserID: uuid.New(), IsAdmin: true}, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, "secret")
	require.NoError(t, err)
	p := claims.Principal()
	assert.Nil(t, p.LocalSiteID)
	assert.True(t, p.IsGlobalAdmin())
}

func TestParseAccessTokenRejectsBadTokens(t *testing.T) {
	token, err := NewAccessToken(Principal{UserID: uuid.New()}, "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseAccessToken(token, "other-secret")
	require.ErrorIs(t, err, jwt.ErrSignatureInvalid)

	expired, err := NewAccessToken(Principal{UserID: uuid.New()}, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken(expired, "secret")
	require.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = ParseAccessToken("not-a-token", "secret")
	require.ErrorIs(t, err, jwt.ErrTokenMalformed)

	missingUser, err := NewAccessToken(Principal{}, "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseAccessToken(missingUser, "secret")
	require.ErrorIs(t, err, ErrInvalidClaims)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	p := Principal{UserID: uuid.New()}
	got, ok := PrincipalFromContext(WithPrincipal(context.Background(), p))
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))
	assert.False(t, CheckPasswordHash("hunter22", "not-a-hash"))
}
