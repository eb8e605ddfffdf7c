package idgen

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// NewFunc returns a new globally unique identifier as string.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new identifier.
func New() string { return NewFunc() }

// tokenSize is the number of random bytes backing an access token.
const tokenSize = 32

// NewTokenFunc returns an unguessable URL-safe token.
var NewTokenFunc = func() string {
	buf := make([]byte, tokenSize)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to uuid entropy
		return uuid.New().String() + uuid.New().String()
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// NewToken returns a new access token.
func NewToken() string { return NewTokenFunc() }
