// Package grant defines the access grant binding a self-service link to
// one actor record. Only the token digest is ever persisted.
package grant

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Grant is a single-use, time-boxed access token record.
type Grant struct {
	Digest     string     `json:"digest"`
	ActorID    string     `json:"actorId"`
	PolicyID   string     `json:"policyId"`
	IssuedAt   time.Time  `json:"issuedAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
}

// Digest returns the hex blake2b-256 digest of token.
func Digest(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IsLive reports whether the grant was neither consumed nor superseded.
func (g *Grant) IsLive() bool {
	return g.ConsumedAt == nil && g.RevokedAt == nil
}

// IsExpiredAt reports whether now is at or past the expiry.
func (g *Grant) IsExpiredAt(now time.Time) bool {
	return !now.Before(g.ExpiresAt)
}

// Clone returns a deep copy.
func (g *Grant) Clone() *Grant {
	if g == nil {
		return nil
	}
	ret := *g
	if g.ConsumedAt != nil {
		at := *g.ConsumedAt
		ret.ConsumedAt = &at
	}
	if g.RevokedAt != nil {
		at := *g.RevokedAt
		ret.RevokedAt = &at
	}
	return &ret
}
