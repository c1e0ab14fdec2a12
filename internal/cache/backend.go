package cache

import (
	"fmt"
	"io"
)

// Backend names a Cache implementation.
type Backend string

const (
	BackendMemory  Backend = "memory"
	BackendSharded Backend = "sharded"
	BackendBolt    Backend = "bolt"
)

// BackendOptions selects and configures the Cache built by New.
type BackendOptions struct {
	Backend  Backend
	Shards   int
	BoltPath string
	Clock    Clock
}

// New builds the configured backend. The result implements io.Closer when it
// holds external resources; callers should close it on shutdown.
func New(o BackendOptions) (Cache, error) {
	switch o.Backend {
	case BackendMemory, "":
		return NewStore(Options{Clock: o.Clock}), nil
	case BackendSharded:
		return NewShardedStore(o.Shards, Options{Clock: o.Clock}), nil
	case BackendBolt:
		if o.BoltPath == "" {
			return nil, fmt.Errorf("cache: bolt backend needs a path")
		}
		s, err := OpenBolt(o.BoltPath, BoltOptions{Bucket: "kvcache", Clock: o.Clock})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("cache: unknown backend %q", o.Backend)
}

// Close releases c if it holds resources.
func Close(c Cache) error {
	if cl, ok := c.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
