package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/leonardcser/kvcache/internal/client"
	"github.com/leonardcser/kvcache/internal/config"
	"github.com/leonardcser/kvcache/internal/logger"
	"github.com/leonardcser/kvcache/internal/tools"
)

const daemonBinary = "kvcache-server"

func main() {
	if err := logger.InitFromEnv(); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Infof("Starting kvcache MCP server")

	// Connect to the cache server; start it if needed, then connect.
	addr := config.ClientAddr()
	logger.Infof("Attempting to connect to cache server at %s", addr)
	c, err := client.Dial(addr, 200*time.Millisecond)
	if err != nil {
		logger.Warnf("Failed to connect to cache server: %v, attempting to start it", err)
		if startErr := startCacheDaemon(); startErr != nil {
			logger.Errorf("Failed to start cache server: %v", startErr)
		} else {
			logger.Infof("Cache server started successfully")
		}
		// wait for the port to open
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if c2, err2 := client.Dial(addr, 200*time.Millisecond); err2 == nil {
				c = c2
				err = nil
				break
			}
			time.Sleep(200 * time.Millisecond)
		}
		if c == nil {
			logger.Errorf("Failed to connect to cache server after startup attempt: %v", err)
			panic(err)
		}
	}
	defer c.Close()
	logger.Infof("Successfully connected to cache server")

	s := server.NewMCPServer(
		"kvcache MCP",
		"0.1.0",
		server.WithRecovery(),
		server.WithToolCapabilities(false),
	)
	tools.Register(s, c)
	logger.Infof("Registered cache-get, cache-put and cache-delete tools")

	logger.Infof("Starting MCP server on stdio")
	if err := server.ServeStdio(s); err != nil {
		logger.Errorf("server error: %v", err)
	}
}

func startCacheDaemon() error {
	// 1) Try the server binary next to this executable
	if exePath, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exePath), daemonBinary)
		if _, statErr := os.Stat(sibling); statErr == nil {
			return spawn(sibling)
		}
	}

	// 2) Try PATH binary
	if path, err := exec.LookPath(daemonBinary); err == nil {
		return spawn(path)
	}

	return exec.ErrNotFound
}

func spawn(path string) error {
	cmd := exec.Command(path)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Env = os.Environ()
	return cmd.Start()
}
