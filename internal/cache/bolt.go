package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/leonardcser/kvcache/internal/logger"
)

// BoltStore keeps entries in a Bolt file instead of process memory. The file
// is recreated on Open, so contents never outlive the process that wrote them.
// It is safe for concurrent use by multiple goroutines.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
	clock  Clock
	mu     sync.RWMutex
}

type BoltOptions struct {
	// Bucket is the name of the Bolt bucket to use.
	Bucket string
	// Clock drives expiration. Defaults to a MonotonicClock.
	Clock Clock
}

// Layout: 1 byte has-expiry flag || 8 bytes big endian expiresAt || raw value
const headerLen = 9

// OpenBolt truncates any file at path and opens a fresh Store there.
func OpenBolt(path string, opts BoltOptions) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cache: create bolt dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("cache: remove stale bolt file: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("cache: open bolt: %w", err)
	}
	bucket := []byte("cache")
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: create bucket: %w", err)
	}
	clock := opts.Clock
	if clock == nil {
		clock = NewMonotonicClock()
	}
	return &BoltStore{db: db, bucket: bucket, clock: clock}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) Put(key, value string, ttl TTL) {
	buf := make([]byte, headerLen+len(value))
	if at, ok := ttl.deadline(s.clock.NowMillis()); ok {
		buf[0] = 1
		binary.BigEndian.PutUint64(buf[1:headerLen], at)
	}
	copy(buf[headerLen:], value)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), buf)
	}); err != nil {
		logger.Errorf("bolt put %q: %v", key, err)
	}
}

func (s *BoltStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		out   string
		found bool
	)
	if err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if len(v) < headerLen {
			return nil
		}
		if v[0] == 1 && s.clock.NowMillis() >= binary.BigEndian.Uint64(v[1:headerLen]) {
			return nil
		}
		// string() copies out of the mmap before the tx ends.
		out, found = string(v[headerLen:]), true
		return nil
	}); err != nil {
		logger.Errorf("bolt get %q: %v", key, err)
		return "", false
	}
	return out, found
}

func (s *BoltStore) Remove(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		out   string
		found bool
	)
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		v := b.Get([]byte(key))
		if len(v) < headerLen {
			return nil
		}
		out, found = string(v[headerLen:]), true
		return b.Delete([]byte(key))
	}); err != nil {
		logger.Errorf("bolt remove %q: %v", key, err)
		return "", false
	}
	return out, found
}

// Len reports the number of keys in the bucket, expired entries included.
func (s *BoltStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	_ = s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	return n
}
