package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"

	"github.com/leonardcser/kvcache/internal/cache"
	"github.com/leonardcser/kvcache/internal/config"
	"github.com/leonardcser/kvcache/internal/logger"
)

// Server accepts TCP connections and serves each one on its own goroutine.
// Every handler shares the single Cache given to New.
type Server struct {
	cfg   config.Config
	cache cache.Cache

	mu     sync.Mutex
	ln     net.Listener
	conns  map[net.Conn]struct{}
	cancel context.CancelFunc

	// sem is nil unless cfg.MaxConns > 0.
	sem *semaphore.Weighted
	wg  sync.WaitGroup

	active atomic.Int64
	total  atomic.Int64
}

// New returns a server for cfg backed by c. It does not bind yet.
func New(cfg config.Config, c cache.Cache) *Server {
	s := &Server{cfg: cfg, cache: c, conns: make(map[net.Conn]struct{})}
	if cfg.MaxConns > 0 {
		s.sem = semaphore.NewWeighted(int64(cfg.MaxConns))
	}
	return s
}

// Default returns a server on 127.0.0.1:5050 with the default configuration.
func Default(c cache.Cache) *Server {
	return New(config.Default(), c)
}

// Listen binds the configured address.
func (s *Server) Listen() error {
	addr := s.cfg.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start the server on %s: %w", addr, err)
	}
	s.use(ln)
	return nil
}

// ServeListener serves connections from an already bound ln. The server
// takes ownership and closes ln when Serve returns.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.use(ln)
	return s.Serve(ctx)
}

func (s *Server) use(ln net.Listener) {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	logger.Infof("Server has started on %s", ln.Addr())
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ActiveConns reports connections currently being served.
func (s *Server) ActiveConns() int64 { return s.active.Load() }

// TotalConns reports connections accepted since start.
func (s *Server) TotalConns() int64 { return s.total.Load() }

// ListenAndServe binds and then serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve runs the accept loop until ctx is cancelled or Close is called.
// A failed Accept is logged and the loop keeps listening. On return every
// open connection has been closed and its handler has finished.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	ln := s.ln
	s.cancel = cancel
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server: Serve called before Listen")
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer s.shutdown()

	var backoff time.Duration
	for {
		if s.sem != nil {
			if err := s.sem.Acquire(ctx, 1); err != nil {
				return nil
			}
		}
		conn, err := ln.Accept()
		if err != nil {
			s.release()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				logger.Infof("Server on %s stopped accepting", ln.Addr())
				return nil
			}
			logger.Errorf("Failed to accept a connection: %v", err)
			backoff = nextBackoff(backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		if !s.track(conn) {
			_ = conn.Close()
			s.release()
			return nil
		}
		h := newHandler(conn, s.cache, s.cfg.Framing)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.release()
			defer s.untrack(conn)
			h.serve()
		}()
	}
}

// Close stops the accept loop, including one waiting for a free connection
// slot. Serve then closes open connections and returns.
func (s *Server) Close() error {
	s.mu.Lock()
	ln, cancel := s.ln, s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if ln == nil {
		return nil
	}
	if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	n := s.active.Inc()
	s.total.Inc()
	logger.Debugf("Accepted %s (%d active)", conn.RemoteAddr(), n)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	n := s.active.Dec()
	logger.Debugf("Released %s (%d active)", conn.RemoteAddr(), n)
}

func (s *Server) release() {
	if s.sem != nil {
		s.sem.Release(1)
	}
}

// shutdown closes every tracked connection, which unblocks their reads, and
// waits for the handlers to return.
func (s *Server) shutdown() {
	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.conns = nil
	s.mu.Unlock()
	s.wg.Wait()
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > time.Second {
		d = time.Second
	}
	return d
}
