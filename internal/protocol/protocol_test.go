package protocol

import (
	"io"
	"testing"
	"time"

	"github.com/leonardcser/kvcache/internal/cache"
	"github.com/leonardcser/kvcache/internal/logger"
)

func init() { logger.SetOutput(io.Discard) }

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Command
		ok   bool
	}{
		{"", Command{}, false},
		{"  \r\n\t", Command{}, false},
		{"GET x\n", Command{Name: "GET", Args: []string{"x"}}, true},
		{"  SET   a  b 10 \r\n", Command{Name: "SET", Args: []string{"a", "b", "10"}}, true},
		{"get", Command{Name: "get", Args: []string{}}, true},
	}
	for _, tc := range cases {
		got, ok := Parse(tc.in)
		if ok != tc.ok || got.Name != tc.want.Name || len(got.Args) != len(tc.want.Args) {
			t.Errorf("Parse(%q) = %+v, %v; want %+v, %v", tc.in, got, ok, tc.want, tc.ok)
			continue
		}
		for i := range got.Args {
			if got.Args[i] != tc.want.Args[i] {
				t.Errorf("Parse(%q) arg %d = %q, want %q", tc.in, i, got.Args[i], tc.want.Args[i])
			}
		}
	}
}

// TestScenarios walks the literal exchanges a client sees, in order, on one store.
func TestScenarios(t *testing.T) {
	clk := cache.NewManualClock(0)
	c := cache.NewStore(cache.Options{Clock: clk})

	steps := []struct {
		req     string
		advance time.Duration
		want    string
	}{
		{req: "GET x", want: "NULL\n"},
		{req: "SET x hello", want: "OK\n"},
		{req: "GET x", want: "hello\n"},
		{req: "SET y world 10", want: "OK\n"},
		{req: "GET y", want: "world\n"},
		{req: "GET y", advance: 10 * time.Second, want: "NULL\n"},
		{req: "DEL x", want: "hello\n"},
		{req: "GET x", want: "NULL\n"},
		{req: "DEL z", want: "<NULL>\n"},
		{req: "FOO bar", want: "Error: FOO is unknown\n"},
		{req: "GET", want: "Error: Missing key\n"},
		{req: "SET x", want: "Error: Missing key & value\n"},
		{req: "SET", want: "Error: Missing key & value\n"},
		{req: "DEL", want: "Error: Missing key\n"},
		{req: "RM", want: "Error: Missing key\n"},
		{req: "PUT k v", want: "OK\n"},
		{req: "RM k", want: "v\n"},
		{req: "RM k", want: "<NULL>\n"},
		{req: "get x", want: "Error: get is unknown\n"},
	}
	for i, s := range steps {
		clk.Advance(s.advance)
		got, ok := Handle(c, "test", s.req+"\n")
		if !ok {
			t.Fatalf("step %d %q: no reply", i, s.req)
		}
		if got != s.want {
			t.Fatalf("step %d %q: got %q, want %q", i, s.req, got, s.want)
		}
	}
}

func TestEmptyMessageHasNoReply(t *testing.T) {
	c := cache.NewStore(cache.Options{})
	if got, ok := Handle(c, "test", "\r\n"); ok {
		t.Fatalf("expected no reply, got %q", got)
	}
}

func TestMalformedTTLIsIgnored(t *testing.T) {
	clk := cache.NewManualClock(0)
	c := cache.NewStore(cache.Options{Clock: clk})

	for _, ttl := range []string{"soon", "-5", "1.5", "99999999999999999999999"} {
		if got, _ := Handle(c, "test", "SET k v "+ttl); got != "OK\n" {
			t.Fatalf("ttl %q: got %q", ttl, got)
		}
		clk.Advance(1000 * time.Hour)
		if got, _ := Handle(c, "test", "GET k"); got != "v\n" {
			t.Fatalf("ttl %q should be ignored, got %q", ttl, got)
		}
	}
}

func TestExtraTokensIgnored(t *testing.T) {
	c := cache.NewStore(cache.Options{})
	if got, _ := Handle(c, "test", "SET k v 10 trailing junk"); got != "OK\n" {
		t.Fatalf("got %q", got)
	}
	if got, _ := Handle(c, "test", "GET k other"); got != "v\n" {
		t.Fatalf("got %q", got)
	}
}

func TestRequest(t *testing.T) {
	if got := Request(CmdGet, "k"); got != "GET k" {
		t.Fatalf("got %q", got)
	}
	if got := Request(CmdSet, "k", "v", "3"); got != "SET k v 3" {
		t.Fatalf("got %q", got)
	}
	if got := Request("PING"); got != "PING" {
		t.Fatalf("got %q", got)
	}
}
