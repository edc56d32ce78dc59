// Package diag is the client's diagnostic log.
//
// Nothing is written unless a path is configured (FREAMARKET_DEBUG_LOG); the TUI owns the
// terminal, so diagnostics never go to stdout/stderr.
package diag

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

const EnvLogPath = "FREAMARKET_DEBUG_LOG"

type Logger struct {
	mu     sync.Mutex
	logger *log.Logger
	closer io.Closer
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{logger: log.New(io.Discard, "", 0)}
}

// New wraps w. Useful in tests.
func New(w io.Writer) *Logger {
	return &Logger{logger: log.New(w, "", log.LstdFlags|log.Lmicroseconds)}
}

// Open appends to the file at path. An empty path yields Discard().
func Open(path string) (*Logger, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Discard(), nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}
	l := New(f)
	l.closer = f
	return l, nil
}

// FromEnv opens the log named by FREAMARKET_DEBUG_LOG; failures fall back to Discard.
func FromEnv() *Logger {
	l, err := Open(os.Getenv(EnvLogPath))
	if err != nil {
		return Discard()
	}
	return l
}

func (l *Logger) logf(level, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.SetPrefix(level + ": ")
	l.logger.Printf(format, args...)
}

func (l *Logger) Infof(format string, args ...any)  { l.logf("INFO", format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf("WARN", format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf("ERROR", format, args...) }

func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
