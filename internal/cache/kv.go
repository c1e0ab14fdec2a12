package cache

import "math"

// Cache defines the key-value contract the protocol layer drives.
// Implementations must be safe for concurrent use by multiple goroutines.
type Cache interface {
	// Put inserts or replaces the entry for key. Expiration is computed from
	// the clock at insertion time, never from a previous entry.
	Put(key, value string, ttl TTL)
	// Get returns the value of a live entry. Expired entries read as absent.
	Get(key string) (string, bool)
	// Remove deletes the entry for key and returns whatever was stored,
	// expired or not.
	Remove(key string) (string, bool)
}

// TTL is an optional time-to-live in whole seconds. The zero value means the
// entry never expires.
type TTL struct {
	seconds uint64
	set     bool
}

// NoTTL keeps an entry until it is overwritten or removed.
var NoTTL TTL

// TTLSeconds expires an entry s seconds after it is written.
func TTLSeconds(s uint64) TTL { return TTL{seconds: s, set: true} }

// Seconds reports the TTL and whether one was given.
func (t TTL) Seconds() (uint64, bool) { return t.seconds, t.set }

// deadline returns the absolute expiry in clock milliseconds, saturating
// instead of wrapping for very large TTLs.
func (t TTL) deadline(now uint64) (uint64, bool) {
	if !t.set {
		return 0, false
	}
	if t.seconds > (math.MaxUint64-now)/1000 {
		return math.MaxUint64, true
	}
	return now + t.seconds*1000, true
}
