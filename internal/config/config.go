package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/leonardcser/kvcache/internal/cache"
	"github.com/leonardcser/kvcache/internal/logger"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 5050

	// BufferSize is the largest single read treated as one request.
	BufferSize = 512
)

// Framing selects how inbound bytes are split into messages.
type Framing string

const (
	// FramingRead treats every Read call as exactly one message.
	FramingRead Framing = "read"
	// FramingLine splits on '\n' and buffers partial lines across reads.
	FramingLine Framing = "line"
)

// Config holds everything the server and its collaborators read from the
// environment.
type Config struct {
	Host     string
	Port     int
	Backend  cache.Backend
	Shards   int
	BoltPath string
	Framing  Framing
	// MaxConns caps concurrently served connections. Zero means unbounded.
	MaxConns int
}

// Default returns the built-in configuration: 127.0.0.1:5050, in-memory
// store, read framing, no connection cap.
func Default() Config {
	return Config{
		Host:     DefaultHost,
		Port:     DefaultPort,
		Backend:  cache.BackendMemory,
		Shards:   cache.DefaultShards,
		BoltPath: defaultBoltPath(),
		Framing:  FramingRead,
	}
}

// Addr joins host and port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// BackendOptions maps the config onto cache.New.
func (c Config) BackendOptions() cache.BackendOptions {
	return cache.BackendOptions{Backend: c.Backend, Shards: c.Shards, BoltPath: c.BoltPath}
}

// FromEnv overlays KVCACHE_* variables on Default. Unparseable values keep
// the default and are logged.
func FromEnv() Config {
	return fromLookup(os.Getenv)
}

func fromLookup(getenv func(string) string) Config {
	c := Default()
	c.Host = defaultString(getenv("KVCACHE_HOST"), c.Host)
	c.Port = defaultInt(getenv, "KVCACHE_PORT", c.Port, 0, 65535)
	c.Shards = defaultInt(getenv, "KVCACHE_SHARDS", c.Shards, 1, 1<<16)
	c.MaxConns = defaultInt(getenv, "KVCACHE_MAX_CONNS", c.MaxConns, 0, 1<<30)
	c.BoltPath = defaultString(getenv("KVCACHE_BOLT_PATH"), c.BoltPath)

	switch b := cache.Backend(strings.ToLower(getenv("KVCACHE_BACKEND"))); b {
	case "":
	case cache.BackendMemory, cache.BackendSharded, cache.BackendBolt:
		c.Backend = b
	default:
		logger.Warnf("Unknown KVCACHE_BACKEND %q, using %s", b, c.Backend)
	}

	switch f := Framing(strings.ToLower(getenv("KVCACHE_FRAMING"))); f {
	case "":
	case FramingRead, FramingLine:
		c.Framing = f
	default:
		logger.Warnf("Unknown KVCACHE_FRAMING %q, using %s", f, c.Framing)
	}
	return c
}

// ClientAddr is the address the interactive client and the MCP server dial.
func ClientAddr() string {
	return defaultString(os.Getenv("KVCACHE_ADDR"), Default().Addr())
}

func defaultInt(getenv func(string) string, key string, d, lo, hi int) int {
	v := getenv(key)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		logger.Warnf("Invalid %s=%q, using %d", key, v, d)
		return d
	}
	return n
}

func defaultBoltPath() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "kvcache", "cache.bbolt")
}

func defaultString(v, d string) string {
	if v == "" {
		return d
	}
	return v
}
