package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/leonardcser/kvcache/internal/cache"
	"github.com/leonardcser/kvcache/internal/config"
	"github.com/leonardcser/kvcache/internal/logger"
	"github.com/leonardcser/kvcache/internal/protocol"
)

// maxLine bounds a single request under line framing. It stays under
// bbolt's 32 KiB key limit, so any key that fits in a line can be stored.
const maxLine = 32 * 1024

// handler serves one client connection. It reads a message, dispatches it
// against the shared cache and writes the reply, until the peer goes away or
// the stream fails.
type handler struct {
	// address of the client (IP:Port), for logging only
	address string
	conn    net.Conn
	cache   cache.Cache
	framing config.Framing
}

func newHandler(conn net.Conn, c cache.Cache, framing config.Framing) *handler {
	address := "Unknown"
	if addr := conn.RemoteAddr(); addr != nil {
		address = addr.String()
	}
	return &handler{address: address, conn: conn, cache: c, framing: framing}
}

func (h *handler) serve() {
	defer h.conn.Close()
	logger.Infof("New client connected from %s...", h.address)

	if h.framing == config.FramingLine {
		h.serveLines()
		return
	}
	h.serveReads()
}

// serveReads treats whatever a single Read returns as one message. A request
// split across reads, or two requests coalesced into one, are not
// reassembled.
func (h *handler) serveReads() {
	buf := make([]byte, config.BufferSize)
	for {
		n, err := h.conn.Read(buf)
		if n > 0 {
			h.handleMessage(decode(buf[:n]))
		}
		if err != nil {
			h.readFailed(err)
			return
		}
		if n == 0 {
			logger.Infof("Connection closed by %s", h.address)
			return
		}
	}
}

// serveLines splits the stream on '\n', buffering partial lines across reads.
func (h *handler) serveLines() {
	sc := bufio.NewScanner(h.conn)
	sc.Buffer(make([]byte, config.BufferSize), maxLine)
	for sc.Scan() {
		h.handleMessage(decode(sc.Bytes()))
	}
	if err := sc.Err(); err != nil {
		h.readFailed(err)
		return
	}
	logger.Infof("Connection closed by %s", h.address)
}

func (h *handler) readFailed(err error) {
	switch {
	case errors.Is(err, io.EOF):
		logger.Infof("Connection closed by %s", h.address)
	case errors.Is(err, net.ErrClosed):
		logger.Infof("Connection to %s closed by server", h.address)
	default:
		logger.Errorf("Error reading from %s: %v", h.address, err)
	}
}

func (h *handler) handleMessage(message string) {
	logger.Debugf("Received message from %s -> %s", h.address, message)
	reply, ok := protocol.Handle(h.cache, h.address, message)
	if !ok {
		return
	}
	h.writeResponse(reply)
}

// writeResponse logs failures instead of returning them; a broken stream
// surfaces as an error on the next read.
func (h *handler) writeResponse(response string) {
	if _, err := io.WriteString(h.conn, response); err != nil {
		logger.Errorf("Failed to send response to %s: %v", h.address, err)
		return
	}
	logger.Debugf("Response sent to %s: %s", h.address, strings.TrimSpace(response))
}

// decode converts raw bytes to text, replacing invalid UTF-8.
func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
