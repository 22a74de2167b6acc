// Package token issues and verifies the HS256 JWTs used by the backend:
// bearer tokens for its own API, and user/server tokens for the hosted
// feed and chat platform.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the iss claim of backend bearer tokens.
const Issuer = "thestream-backend"

// ErrMissingToken is returned when no bearer token was presented.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken wraps parsing/validation errors.
var ErrInvalidToken = errors.New("invalid bearer token")

// Authority signs and verifies backend bearer tokens.
type Authority struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthority returns an Authority signing with secret. A zero ttl issues
// tokens without an expiry.
func NewAuthority(secret string, ttl time.Duration) *Authority {
	return &Authority{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed bearer token for username.
func (a *Authority) Issue(username string) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:  username,
		Issuer:   Issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if a.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(a.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign auth token: %w", err)
	}
	return signed, nil
}

// Verify validates raw and returns the username it was issued for.
func (a *Authority) Verify(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingToken
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// UserToken returns the platform user token for userID, signed with the
// platform API secret.
func UserToken(apiSecret, userID string) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
	}).SignedString([]byte(apiSecret))
	if err != nil {
		return "", fmt.Errorf("sign user token: %w", err)
	}
	return signed, nil
}

// ServerToken returns a server-side platform token, used for privileged
// calls such as registering chat users.
func ServerToken(apiSecret string) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"server": true,
	}).SignedString([]byte(apiSecret))
	if err != nil {
		return "", fmt.Errorf("sign server token: %w", err)
	}
	return signed, nil
}
