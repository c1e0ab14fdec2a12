package protocol

import (
	"github.com/leonardcser/kvcache/internal/cache"
	"github.com/leonardcser/kvcache/internal/logger"
)

// Handle parses message, runs it against c and returns the reply line.
// remote is only used for logging. ok is false when the message held no
// tokens and nothing should be written back.
func Handle(c cache.Cache, remote, message string) (reply string, ok bool) {
	cmd, ok := Parse(message)
	if !ok {
		return "", false
	}
	return Execute(c, remote, cmd), true
}

// Execute dispatches an already parsed command.
func Execute(c cache.Cache, remote string, cmd Command) string {
	switch cmd.Name {
	case CmdGet:
		return get(c, remote, cmd)
	case CmdPut, CmdSet:
		return put(c, remote, cmd)
	case CmdDel, CmdRm:
		return remove(c, remote, cmd)
	default:
		logger.Warnf("Unknown command %s from %s", cmd.Name, remote)
		return UnknownLine(cmd.Name)
	}
}

func get(c cache.Cache, remote string, cmd Command) string {
	key, ok := cmd.arg(0)
	if !ok {
		logger.Warnf("%s command sent from %s without a key", cmd.Name, remote)
		return ErrorLine(MsgMissingKey)
	}
	if v, ok := c.Get(key); ok {
		return Line(v)
	}
	return Line(ReplyNullGet)
}

func put(c cache.Cache, remote string, cmd Command) string {
	key, hasKey := cmd.arg(0)
	value, hasValue := cmd.arg(1)
	if !hasKey || !hasValue {
		logger.Warnf("%s command sent from %s without a key or value", cmd.Name, remote)
		return ErrorLine(MsgMissingKeyValue)
	}
	ttl := cache.NoTTL
	if raw, ok := cmd.arg(2); ok {
		if secs, ok := parseTTL(raw); ok {
			ttl = cache.TTLSeconds(secs)
		} else {
			logger.Debugf("Ignoring malformed ttl %q from %s", raw, remote)
		}
	}
	c.Put(key, value, ttl)
	return Line(ReplyOK)
}

func remove(c cache.Cache, remote string, cmd Command) string {
	key, ok := cmd.arg(0)
	if !ok {
		logger.Warnf("%s command sent from %s without a key", cmd.Name, remote)
		return ErrorLine(MsgMissingKey)
	}
	if v, ok := c.Remove(key); ok {
		return Line(v)
	}
	return Line(ReplyNullDel)
}
