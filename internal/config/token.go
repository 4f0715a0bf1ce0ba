package config

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"strings"
)

var (
	// ErrWritesDisabled means no usable WebToken is configured.
	ErrWritesDisabled = errors.New("web token must be ≥ 32 chars, writes are disabled")

	ErrInvalidToken = errors.New("invalid token")
)

// WritesEnabled returns true if the JSON API accepts mutating requests.
func (c *Config) WritesEnabled() bool {
	return len(c.WebToken) >= 32
}

// CheckAPIToken validates an Authorization header value of the form
// "Bearer TOKEN" against the configured WebToken.
func (c *Config) CheckAPIToken(header string) error {
	if !c.WritesEnabled() {
		return ErrWritesDisabled
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ErrInvalidToken
	}

	// Compare digests so the comparison time does not depend on lengths.
	given, expected := digest(header[len(prefix):]), digest(c.WebToken)
	if subtle.ConstantTimeCompare(given, expected) != 1 {
		return ErrInvalidToken
	}

	return nil
}

func digest(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}
