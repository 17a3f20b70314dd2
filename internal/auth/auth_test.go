package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	token, err := issuer.GenerateToken(7, "shiva")
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "shiva", claims.Username)
}

func TestTokenRejectsOtherSecret(t *testing.T) {
	token, err := NewIssuer("one", time.Hour).GenerateToken(1, "a")
	require.NoError(t, err)

	_, err = NewIssuer("two", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenExpires(t *testing.T) {
	issuer := NewIssuer("s", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.GenerateToken(1, "a")
	require.NoError(t, err)

	_, err = NewIssuer("s", time.Minute).ValidateToken(token)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)
	assert.True(t, CheckPassword(hash, "password123"))
	assert.False(t, CheckPassword(hash, "password124"))
}

func TestUserContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), &Claims{UserID: 3})
	c, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, 3, c.UserID)
}
