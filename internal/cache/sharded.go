package cache

import "hash/fnv"

const DefaultShards = 16

// ShardedStore spreads keys over independent Stores so writers to different
// shards do not contend. Per-key semantics match Store exactly.
type ShardedStore struct {
	shards []*Store
}

// NewShardedStore creates n shards sharing one clock. n < 1 falls back to
// DefaultShards.
func NewShardedStore(n int, opts Options) *ShardedStore {
	if n < 1 {
		n = DefaultShards
	}
	opts.Clock = opts.clock()
	s := &ShardedStore{shards: make([]*Store, n)}
	for i := range s.shards {
		s.shards[i] = NewStore(opts)
	}
	return s
}

func (s *ShardedStore) shard(key string) *Store {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *ShardedStore) Put(key, value string, ttl TTL) { s.shard(key).Put(key, value, ttl) }

func (s *ShardedStore) Get(key string) (string, bool) { return s.shard(key).Get(key) }

func (s *ShardedStore) Remove(key string) (string, bool) { return s.shard(key).Remove(key) }

// Len sums the slots of every shard. Shards are read one after another, so
// the total is not a snapshot under concurrent writes.
func (s *ShardedStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.Len()
	}
	return n
}
