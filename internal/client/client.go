package client

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/leonardcser/kvcache/internal/config"
	"github.com/leonardcser/kvcache/internal/protocol"
)

var (
	// ErrServer wraps "Error: ..." replies from the server.
	ErrServer = errors.New("kvcache: server error")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("kvcache: client closed")
	// ErrInvalidToken rejects keys and values the whitespace protocol cannot carry.
	ErrInvalidToken = errors.New("kvcache: empty or whitespace-containing token")
	// ErrTooLarge rejects requests that do not fit in one server read.
	ErrTooLarge = errors.New("kvcache: request exceeds one read")
)

// Client speaks the text protocol over one TCP connection at a time. A
// connection that fails is dropped and redialed on the next request, so the
// client outlives a server restart. Requests are serialized, so it is safe
// for concurrent use by multiple goroutines.
type Client struct {
	addr    string
	timeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	closed bool
	buf    []byte
}

// Dial connects to addr.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	return &Client{addr: addr, timeout: timeout, conn: conn, buf: make([]byte, config.BufferSize)}, nil
}

// Close closes the connection. Later requests fail with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.drop()
}

// Do sends line followed by '\n' and returns the raw reply of a single read,
// up to 512 bytes. The server treats one read as one request, so a line that
// does not fit in one read is rejected with ErrTooLarge before anything is
// written.
func (c *Client) Do(line string) (string, error) {
	if len(line)+1 > config.BufferSize {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(line)+1, config.BufferSize)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}
	if c.conn == nil {
		conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
		if err != nil {
			return "", fmt.Errorf("redial %s: %w", c.addr, err)
		}
		c.conn = conn
	}
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		_ = c.drop()
		return "", fmt.Errorf("write request: %w", err)
	}
	n, err := c.conn.Read(c.buf)
	if n == 0 && err != nil {
		_ = c.drop()
		return "", fmt.Errorf("read response: %w", err)
	}
	return strings.ToValidUTF8(string(c.buf[:n]), "\uFFFD"), nil
}

// drop closes the current connection, if any. Callers hold c.mu.
func (c *Client) drop() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Get returns the value for key; ok is false when the server replies NULL.
func (c *Client) Get(key string) (value string, ok bool, err error) {
	if err := checkTokens(key); err != nil {
		return "", false, err
	}
	return c.lookup(protocol.Request(protocol.CmdGet, key), protocol.ReplyNullGet)
}

// Put stores value under key. ttl <= 0 stores the entry without expiry; a
// positive ttl is rounded up to whole seconds, so it never becomes the wire
// TTL 0, which expires at once.
func (c *Client) Put(key, value string, ttl time.Duration) error {
	if err := checkTokens(key, value); err != nil {
		return err
	}
	args := []string{key, value}
	if ttl > 0 {
		args = append(args, strconv.FormatInt(int64(wireSeconds(ttl)), 10))
	}
	reply, err := c.Do(protocol.Request(protocol.CmdSet, args...))
	if err != nil {
		return err
	}
	line := strings.TrimRight(reply, "\r\n")
	if err := replyError(line); err != nil {
		return err
	}
	if line != protocol.ReplyOK {
		return fmt.Errorf("%w: unexpected reply %q", ErrServer, line)
	}
	return nil
}

// Remove deletes key and returns the value it held; ok is false when the
// server replies <NULL>.
func (c *Client) Remove(key string) (value string, ok bool, err error) {
	if err := checkTokens(key); err != nil {
		return "", false, err
	}
	return c.lookup(protocol.Request(protocol.CmdDel, key), protocol.ReplyNullDel)
}

func (c *Client) lookup(req, null string) (string, bool, error) {
	reply, err := c.Do(req)
	if err != nil {
		return "", false, err
	}
	line := strings.TrimRight(reply, "\r\n")
	if err := replyError(line); err != nil {
		return "", false, err
	}
	if line == null {
		return "", false, nil
	}
	return line, true, nil
}

func replyError(line string) error {
	if msg, ok := strings.CutPrefix(line, protocol.ErrPrefix); ok {
		return fmt.Errorf("%w: %s", ErrServer, msg)
	}
	return nil
}

func checkTokens(tokens ...string) error {
	for _, t := range tokens {
		if t == "" || strings.ContainsFunc(t, unicode.IsSpace) {
			return fmt.Errorf("%w: %q", ErrInvalidToken, t)
		}
	}
	return nil
}

// wireSeconds rounds a positive ttl up to whole seconds.
func wireSeconds(ttl time.Duration) time.Duration {
	return (ttl + time.Second - 1) / time.Second
}
