package cache

import "sync"

// Store is an in-memory map guarded by a single RWMutex. Any number of Get
// calls may run together; Put and Remove are exclusive.
//
// Expiration is lazy: an expired entry reads as absent but keeps its slot
// until it is overwritten or removed. Nothing sweeps the map in the
// background, so memory held by expired keys is not reclaimed on its own.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   Clock
}

type entry struct {
	value     string
	expiresAt uint64
	expires   bool
}

func (e entry) expired(now uint64) bool {
	return e.expires && now >= e.expiresAt
}

type Options struct {
	// Clock drives expiration. Defaults to a MonotonicClock.
	Clock Clock
}

func (o Options) clock() Clock {
	if o.Clock != nil {
		return o.Clock
	}
	return NewMonotonicClock()
}

// NewStore returns an empty Store.
func NewStore(opts Options) *Store {
	return &Store{entries: make(map[string]entry), clock: opts.clock()}
}

func (s *Store) Put(key, value string, ttl TTL) {
	e := entry{value: value}
	e.expiresAt, e.expires = ttl.deadline(s.clock.NowMillis())

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || e.expired(s.clock.NowMillis()) {
		return "", false
	}
	return e.value, true
}

func (s *Store) Remove(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	delete(s.entries, key)
	return e.value, true
}

// Len reports the number of slots in use, expired entries included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
