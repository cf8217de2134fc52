// Package tier classifies memory entries as permanent or time-to-live and
// implements the lazy expiry check consulted on every read path.
package tier

import (
	"fmt"
	"strings"
)

// Tier is the persistence class of an entry.
type Tier int

const (
	// Semantic entries are permanent; they never expire.
	Semantic Tier = iota
	// Episodic entries carry an expiry timestamp and are reported absent
	// once that timestamp has passed.
	Episodic
)

func (t Tier) String() string {
	switch t {
	case Semantic:
		return "semantic"
	case Episodic:
		return "episodic"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// MarshalJSON encodes the tier as its lowercase string name.
func (t Tier) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON decodes a lowercase tier name.
func (t *Tier) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Parse converts a case-insensitive tier name to a Tier.
func Parse(s string) (Tier, error) {
	switch strings.ToLower(s) {
	case "episodic":
		return Episodic, nil
	case "semantic":
		return Semantic, nil
	default:
		return 0, fmt.Errorf("tier: invalid tier %q", s)
	}
}

// Config controls the tiering defaults applied when an ingest call does not
// override them.
type Config struct {
	// DefaultTier is used when an ingest call does not specify a tier.
	DefaultTier Tier `json:"default_tier"`
	// DefaultEpisodicTTLSeconds is the TTL applied to episodic entries that
	// do not specify their own. nil means episodic entries never expire;
	// a present value of 0 means immediate expiry.
	DefaultEpisodicTTLSeconds *int64 `json:"default_episodic_ttl_seconds,omitempty"`
}

// DefaultConfig returns the tiering defaults named in the configuration
// surface: Semantic by default, with a one-hour TTL for episodic entries
// that don't specify their own.
func DefaultConfig() Config {
	ttl := int64(3600)
	return Config{DefaultTier: Semantic, DefaultEpisodicTTLSeconds: &ttl}
}

// ExpiresAt computes the expires_at timestamp for a newly ingested entry of
// the given tier, given the ingest-time wall-clock reading `now` and an
// optional per-call TTL override (nil defers to the config default). It
// returns nil for Semantic entries, and for Episodic entries whose
// effective TTL is nil (never expires).
func (c Config) ExpiresAt(t Tier, now int64, ttlOverride *int64) *int64 {
	if t != Episodic {
		return nil
	}
	ttl := c.DefaultEpisodicTTLSeconds
	if ttlOverride != nil {
		ttl = ttlOverride
	}
	if ttl == nil {
		return nil
	}
	exp := now + *ttl
	return &exp
}

// Expired reports whether expiresAt has passed as of now. A nil expiresAt
// (permanent entry, or episodic with no TTL) is never expired.
func Expired(now int64, expiresAt *int64) bool {
	return expiresAt != nil && now >= *expiresAt
}
