// Package identity resolves the current learner's user id.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Static always returns the same id. An empty id means anonymous.
type Static string

// CurrentUserID implements persist.IdentityProvider.
func (s Static) CurrentUserID(context.Context) (string, bool) {
	return string(s), s != ""
}

// Token reads the user id from the sub claim of a backend access token.
// Without a secret the signature is not checked; the backend verifies it
// on every request anyway.
type Token struct {
	token  string
	secret []byte
	now    func() time.Time
}

// NewToken returns a provider for an access token. secret may be empty.
func NewToken(token, secret string) *Token {
	t := &Token{token: token, now: time.Now}
	if secret != "" {
		t.secret = []byte(secret)
	}
	return t
}

// CurrentUserID implements persist.IdentityProvider. Missing, malformed and
// expired tokens all mean no identity.
func (t *Token) CurrentUserID(context.Context) (string, bool) {
	sub, err := t.Subject()
	if err != nil {
		return "", false
	}
	return sub, true
}

// Subject parses the token and returns its sub claim.
func (t *Token) Subject() (string, error) {
	if t.token == "" {
		return "", errors.New("no access token")
	}
	claims := &jwt.RegisteredClaims{}
	if t.secret != nil {
		_, err := jwt.ParseWithClaims(t.token, claims, func(tok *jwt.Token) (interface{}, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
			}
			return t.secret, nil
		}, jwt.WithTimeFunc(t.now))
		if err != nil {
			return "", fmt.Errorf("failed to parse access token: %w", err)
		}
	} else {
		parser := jwt.NewParser(jwt.WithoutClaimsValidation())
		if _, _, err := parser.ParseUnverified(t.token, claims); err != nil {
			return "", fmt.Errorf("failed to parse access token: %w", err)
		}
		if claims.ExpiresAt != nil && !t.now().Before(claims.ExpiresAt.Time) {
			return "", jwt.ErrTokenExpired
		}
	}
	if claims.Subject == "" {
		return "", errors.New("access token has no subject")
	}
	return claims.Subject, nil
}
