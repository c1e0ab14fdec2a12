package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Store is the slice of the kvcache client the tools need.
type Store interface {
	Get(key string) (string, bool, error)
	Put(key, value string, ttl time.Duration) error
	Remove(key string) (string, bool, error)
}

type handlerFunc = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Register adds the cache-get, cache-put and cache-delete tools to s.
func Register(s *server.MCPServer, store Store) {
	s.AddTool(mcp.NewTool("cache-get",
		mcp.WithDescription("Reads a key from the kvcache server. Expired or missing keys report as absent."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Key to look up; must not contain whitespace")),
	), CacheGetHandler(store))

	s.AddTool(mcp.NewTool("cache-put",
		mcp.WithDescription("Stores a value under a key, replacing any previous value and expiry."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Key to write; must not contain whitespace")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Value to store; must not contain whitespace")),
		mcp.WithNumber("ttl_seconds", mcp.Description("Optional time-to-live in seconds. Omit it, or pass 0 or less, to keep the entry forever. Fractions round up to the next whole second.")),
	), CachePutHandler(store))

	s.AddTool(mcp.NewTool("cache-delete",
		mcp.WithDescription("Removes a key and returns the value it held, even if it had expired."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Key to remove")),
	), CacheDeleteHandler(store))
}

// CacheGetHandler returns the MCP tool handler for "cache-get".
func CacheGetHandler(store Store) handlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		v, ok, err := store.Get(key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !ok {
			return mcp.NewToolResultText("(absent)"), nil
		}
		return mcp.NewToolResultText(v), nil
	}
}

// CachePutHandler returns the MCP tool handler for "cache-put".
func CachePutHandler(store Store) handlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		value, err := req.RequireString("value")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		// Same convention as the client: <= 0 keeps forever, fractions round up.
		ttl := time.Duration(req.GetFloat("ttl_seconds", 0) * float64(time.Second))
		if err := store.Put(key, value, ttl); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("OK"), nil
	}
}

// CacheDeleteHandler returns the MCP tool handler for "cache-delete".
func CacheDeleteHandler(store Store) handlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		v, ok, err := store.Remove(key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !ok {
			return mcp.NewToolResultText("(absent)"), nil
		}
		return mcp.NewToolResultText(v), nil
	}
}
