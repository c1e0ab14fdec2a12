// Package protocol implements the whitespace-tokenised text protocol spoken
// over a kvcache connection. One message is one request, and every request is
// answered by exactly one '\n'-terminated line.
package protocol

import (
	"strconv"
	"strings"
)

// Command keywords. Matching is case-sensitive.
const (
	CmdGet = "GET"
	CmdPut = "PUT"
	CmdSet = "SET"
	CmdDel = "DEL"
	CmdRm  = "RM"
)

// Literal reply tokens. GET and DEL spell "absent" differently; both are kept
// as-is for client compatibility.
const (
	ReplyOK      = "OK"
	ReplyNullGet = "NULL"
	ReplyNullDel = "<NULL>"
	ErrPrefix    = "Error: "

	MsgMissingKey      = "Missing key"
	MsgMissingKeyValue = "Missing key & value"
)

// Command is one parsed request: the keyword and whatever tokens followed it.
type Command struct {
	Name string
	Args []string
}

// Parse splits message on whitespace. It reports false for a message with no
// tokens, which gets no reply at all.
func Parse(message string) (Command, bool) {
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return Command{}, false
	}
	return Command{Name: fields[0], Args: fields[1:]}, true
}

// arg returns the i-th argument, or "" and false when it is missing.
func (c Command) arg(i int) (string, bool) {
	if i < len(c.Args) {
		return c.Args[i], true
	}
	return "", false
}

// Line terminates s with '\n'.
func Line(s string) string { return s + "\n" }

// ErrorLine formats a protocol error reply.
func ErrorLine(msg string) string { return Line(ErrPrefix + msg) }

// UnknownLine is the reply for a keyword outside the command set.
func UnknownLine(name string) string { return ErrorLine(name + " is unknown") }

// Request renders a command the way clients put it on the wire.
func Request(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// parseTTL reads an optional TTL token. Anything that is not a base-10
// unsigned integer means "no TTL" rather than an error.
func parseTTL(s string) (uint64, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
