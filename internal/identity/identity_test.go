package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims jwt.RegisteredClaims, secret string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestStatic(t *testing.T) {
	id, ok := Static("user-1").CurrentUserID(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "user-1", id)

	_, ok = Static("").CurrentUserID(context.Background())
	assert.False(t, ok)
}

func TestTokenUnverified(t *testing.T) {
	now := time.Now()
	tok := sign(t, jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}, "whatever")

	id, ok := NewToken(tok, "").CurrentUserID(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "user-42", id)
}

func TestTokenExpired(t *testing.T) {
	tok := sign(t, jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}, "s")

	_, ok := NewToken(tok, "").CurrentUserID(context.Background())
	assert.False(t, ok)
	_, ok = NewToken(tok, "s").CurrentUserID(context.Background())
	assert.False(t, ok)
}

func TestTokenVerified(t *testing.T) {
	tok := sign(t, jwt.RegisteredClaims{Subject: "user-7"}, "secret")

	id, ok := NewToken(tok, "secret").CurrentUserID(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "user-7", id)

	_, ok = NewToken(tok, "other").CurrentUserID(context.Background())
	assert.False(t, ok)
}

func TestTokenMissingOrMalformed(t *testing.T) {
	_, ok := NewToken("", "").CurrentUserID(context.Background())
	assert.False(t, ok)
	_, ok = NewToken("not-a-token", "").CurrentUserID(context.Background())
	assert.False(t, ok)

	noSub := sign(t, jwt.RegisteredClaims{Issuer: "x"}, "s")
	_, err := NewToken(noSub, "").Subject()
	assert.Error(t, err)
}
