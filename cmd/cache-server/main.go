package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leonardcser/kvcache/internal/cache"
	"github.com/leonardcser/kvcache/internal/config"
	"github.com/leonardcser/kvcache/internal/logger"
	"github.com/leonardcser/kvcache/internal/server"
)

const statsInterval = time.Minute

func main() {
	if err := logger.InitFromEnv(); err != nil {
		panic(err)
	}
	defer logger.Close()

	cfg := config.FromEnv()
	logger.Infof("Starting kvcache (backend=%s framing=%s max_conns=%d)", cfg.Backend, cfg.Framing, cfg.MaxConns)

	store, err := cache.New(cfg.BackendOptions())
	if err != nil {
		fatalf("Failed to create %s cache: %v", cfg.Backend, err)
	}
	defer func() {
		if err := cache.Close(store); err != nil {
			logger.Errorf("Failed to close cache: %v", err)
		}
	}()

	srv := server.New(cfg, store)
	if err := srv.Listen(); err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx) })
	g.Go(func() error {
		reportStats(ctx, srv)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Errorf("server error: %v", err)
	}
	logger.Infof("Server stopped after %d connections", srv.TotalConns())
}

func reportStats(ctx context.Context, srv *server.Server) {
	t := time.NewTicker(statsInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			logger.Debugf("Connections: %d active, %d total", srv.ActiveConns(), srv.TotalConns())
		}
	}
}

// fatalf logs and exits; deferred cleanups do not run.
func fatalf(format string, args ...any) {
	logger.Errorf(format, args...)
	_ = logger.Close()
	os.Exit(1)
}
