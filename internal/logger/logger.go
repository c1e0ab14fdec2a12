package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Environment variables to configure the log destination and verbosity.
const (
	envLogPath  = "KVCACHE_LOG"
	envLogLevel = "KVCACHE_LOG_LEVEL"
)

// Level orders log severities; messages below the configured level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps a case-insensitive level name to a Level.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelInfo, false
}

var (
	mu            sync.Mutex
	std           *log.Logger
	logFile       *os.File
	level         = LevelInfo
	isInitialized bool
)

// InitFromEnv initializes the logger using KVCACHE_LOG and KVCACHE_LOG_LEVEL.
// An empty path or "-" logs to stderr.
func InitFromEnv() error {
	if lv, ok := ParseLevel(os.Getenv(envLogLevel)); ok {
		SetLevel(lv)
	}
	return Init(os.Getenv(envLogPath))
}

// Init initializes the logger to write to the provided file path.
// It creates parent directories if needed and opens the file in append mode.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if isInitialized {
		return nil
	}
	if path == "" || path == "-" {
		std = newStd(os.Stderr)
		isInitialized = true
		return nil
	}
	if err := ensureParentDir(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	logFile = f
	std = newStd(f)
	isInitialized = true
	return nil
}

// SetOutput redirects log output to w, replacing any previous destination.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std = newStd(w)
	isInitialized = true
}

// SetLevel sets the minimum level that gets written.
func SetLevel(l Level) {
	mu.Lock()
	level = l
	mu.Unlock()
}

// Close closes the underlying log file, if open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		std = nil
		isInitialized = false
		return err
	}
	return nil
}

// Debugf logs verbose per-message traffic.
func Debugf(format string, args ...any) { write(LevelDebug, format, args...) }

// Infof logs informational messages.
func Infof(format string, args ...any) { write(LevelInfo, format, args...) }

// Warnf logs warnings.
func Warnf(format string, args ...any) { write(LevelWarn, format, args...) }

// Errorf logs errors.
func Errorf(format string, args ...any) { write(LevelError, format, args...) }

func write(lv Level, format string, args ...any) {
	mu.Lock()
	if lv < level {
		mu.Unlock()
		return
	}
	if std == nil {
		// Fallback: log to stderr if nobody initialized us.
		std = newStd(os.Stderr)
		isInitialized = true
	}
	l := std
	mu.Unlock()
	l.Printf("[%s] %s", lv, fmt.Sprintf(format, args...))
}

func newStd(w io.Writer) *log.Logger {
	return log.New(w, "", log.Ldate|log.Ltime|log.Lmicroseconds)
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
