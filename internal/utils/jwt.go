package utils // package utils provides helpers for signing cookie values and hashing secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCookie is returned when a session cookie value fails signature
// or claim validation.
var ErrInvalidCookie = errors.New("invalid session cookie")

// cookieClaims is the payload of a signed session cookie.  The subject is
// the session id; aud pins the cookie to the role-derived cookie name so a
// value minted for one role cannot be replayed under another.
type cookieClaims struct {
	jwt.RegisteredClaims
}

// SignSessionID wraps a session id into an HS256 JWT suitable as a cookie
// value.  cookieName becomes the audience and ttl the expiry.
func SignSessionID(secret, sessionID, cookieName string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := cookieClaims{jwt.RegisteredClaims{
		Subject:   sessionID,
		Audience:  jwt.ClaimStrings{cookieName},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

// ParseSessionID validates a cookie value produced by SignSessionID for the
// given cookie name and returns the session id it carries.
func ParseSessionID(secret, value, cookieName string) (string, error) {
	var claims cookieClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(cookieName),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidCookie
	}
	return claims.Subject, nil
}

// HashToken returns the SHA-256 hash of a secret as a hex string.  Only
// this digest is persisted for bearer tokens.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RandomHex returns a hex string built from n bytes of crypto/rand data.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomString returns n characters drawn uniformly from [A-Za-z0-9].
func RandomString(n int) (string, error) {
	out := make([]byte, n)
	buf := make([]byte, 1)
	for i := 0; i < n; {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		// 248 is the largest multiple of 62 below 256; rejecting the tail
		// keeps the distribution uniform.
		if buf[0] >= 248 {
			continue
		}
		out[i] = tokenAlphabet[int(buf[0])%len(tokenAlphabet)]
		i++
	}
	return string(out), nil
}
