package jwtx

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Decode reads the claims of a three-part token WITHOUT verifying its
// signature. Clients use it to look at exp and role; verification is the
// server's job.
func Decode(token string) (Claims, error) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return c, nil
}

// ExpiredAt reports whether token must be treated as expired at now. A token
// is expired once now >= exp - buffer. Tokens that cannot be decoded or carry
// no exp claim are always expired.
func ExpiredAt(token string, now time.Time, buffer time.Duration) bool {
	c, err := Decode(token)
	if err != nil || c.ExpiresAt == nil {
		return true
	}
	return !now.Before(c.ExpiresAt.Add(-buffer))
}

// RoleOf returns the role claim of token, or "" if it cannot be decoded.
func RoleOf(token string) string {
	c, err := Decode(token)
	if err != nil {
		return ""
	}
	return c.Role
}
