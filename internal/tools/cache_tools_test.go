package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

type fakeStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeStore) Put(key, value string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.values[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Remove(key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.values[key]
	delete(f.values, key)
	return v, ok, nil
}

func call(t *testing.T, h handlerFunc, args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatalf("empty result")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text, res.IsError
	case *mcp.TextContent:
		return c.Text, res.IsError
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return "", false
}

func TestPutGetDelete(t *testing.T) {
	s := newFakeStore()

	if text, isErr := call(t, CachePutHandler(s), map[string]any{"key": "k", "value": "v", "ttl_seconds": 30.0}); isErr || text != "OK" {
		t.Fatalf("put: %q %v", text, isErr)
	}
	if s.ttls["k"] != 30*time.Second {
		t.Fatalf("ttl = %v", s.ttls["k"])
	}
	if text, isErr := call(t, CacheGetHandler(s), map[string]any{"key": "k"}); isErr || text != "v" {
		t.Fatalf("get: %q %v", text, isErr)
	}
	if text, isErr := call(t, CacheDeleteHandler(s), map[string]any{"key": "k"}); isErr || text != "v" {
		t.Fatalf("delete: %q %v", text, isErr)
	}
	if text, _ := call(t, CacheGetHandler(s), map[string]any{"key": "k"}); text != "(absent)" {
		t.Fatalf("get after delete: %q", text)
	}
	if text, _ := call(t, CacheDeleteHandler(s), map[string]any{"key": "k"}); text != "(absent)" {
		t.Fatalf("second delete: %q", text)
	}
}

func TestPutTTLConversion(t *testing.T) {
	cases := []struct {
		name string
		args map[string]any
		want time.Duration
	}{
		{"omitted", map[string]any{"key": "k", "value": "v"}, 0},
		{"zero", map[string]any{"key": "k", "value": "v", "ttl_seconds": 0.0}, 0},
		{"fraction", map[string]any{"key": "k", "value": "v", "ttl_seconds": 0.5}, 500 * time.Millisecond},
		{"whole", map[string]any{"key": "k", "value": "v", "ttl_seconds": 10.0}, 10 * time.Second},
	}
	for _, tc := range cases {
		s := newFakeStore()
		if _, isErr := call(t, CachePutHandler(s), tc.args); isErr {
			t.Fatalf("%s: put failed", tc.name)
		}
		if s.ttls["k"] != tc.want {
			t.Errorf("%s: ttl = %v, want %v", tc.name, s.ttls["k"], tc.want)
		}
	}
}

func TestMissingArguments(t *testing.T) {
	s := newFakeStore()
	for name, h := range map[string]handlerFunc{
		"get":    CacheGetHandler(s),
		"put":    CachePutHandler(s),
		"delete": CacheDeleteHandler(s),
	} {
		if _, isErr := call(t, h, map[string]any{}); !isErr {
			t.Errorf("%s: expected tool error for missing key", name)
		}
	}
	if _, isErr := call(t, CachePutHandler(s), map[string]any{"key": "k"}); !isErr {
		t.Errorf("put: expected tool error for missing value")
	}
}

func TestStoreErrorsBecomeToolErrors(t *testing.T) {
	s := newFakeStore()
	s.err = errors.New("connection refused")
	if text, isErr := call(t, CacheGetHandler(s), map[string]any{"key": "k"}); !isErr || text != "connection refused" {
		t.Fatalf("got %q %v", text, isErr)
	}
}
