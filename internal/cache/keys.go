// Package cache builds the Redis key names and TTLs used by the audit
// mirror's read-through /state cache: a single-wallet key surface,
// scoped down from a larger multi-trader/leaderboard key surface this
// pattern was adapted from.
package cache

import (
	"time"

	"tradesmart-api/internal/config"
)

// Namespace is the Redis key prefix for the TradeSmart application.
const Namespace = "tradesmart"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 10*time.Second),
		Medium: durationOrDefault(cfg.Medium, time.Minute),
		Long:   durationOrDefault(cfg.Long, 5*time.Minute),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

// StateKey is the cache key for the msgpack-encoded /state snapshot.
func StateKey() string {
	return Namespace + ":state"
}

// StateTTL is the TTL applied to StateKey.
func StateTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLShort)
}
