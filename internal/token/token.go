// Package token implements the single-use anonymous access credential bound
// to a melding. The token is the only identity proof for melder operations;
// there is no session or cookie.
package token

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

const tokenBytes = 32

// Authority generates and verifies melding tokens. Invalidation is a store
// write (nil token and expiry) performed by the melding service, so replay of
// a submitted melding's link can never mutate the record again.
type Authority struct {
	ttl time.Duration
}

func NewAuthority(ttl time.Duration) *Authority {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Authority{ttl: ttl}
}

func (a *Authority) TTL() time.Duration { return a.ttl }

// Generate returns a fresh URL-safe token. Collisions are cryptographically
// negligible; a caller that still hits a unique conflict just retries.
func (a *Authority) Generate() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token generate: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ExpiryFrom returns the expiry for a token issued at now.
func (a *Authority) ExpiryFrom(now time.Time) time.Time {
	return now.Add(a.ttl)
}

// Verify checks a presented token against the stored credential. Expiry is
// checked against now as passed by the caller, which must read the wall
// clock at verification time, not at request start.
func (a *Authority) Verify(stored *string, expires *time.Time, presented string, now time.Time) error {
	if stored == nil || *stored == "" || presented == "" {
		return ErrTokenInvalid
	}
	if subtle.ConstantTimeCompare([]byte(*stored), []byte(presented)) != 1 {
		return ErrTokenInvalid
	}
	// A non-nil token implies a non-nil expiry; a violated invariant reads
	// as an unusable credential, never as a valid one.
	if expires == nil {
		return ErrTokenInvalid
	}
	if now.After(*expires) {
		return ErrTokenExpired
	}
	return nil
}
