// Package audit provides the append-only line sink that records every
// significant recording/scheduling event. The file is the only record of
// unattended scheduler outcomes, so writes are never buffered.
package audit

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Log appends timestamped lines to a text file.
type Log struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// Open opens (or creates) the audit log file for appending.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return &Log{file: f, now: time.Now}, nil
}

// Logf appends one line: "<ISO timestamp> - <message>".
func (l *Log) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.file, "%s - %s\n", l.now().Format(time.RFC3339), fmt.Sprintf(format, args...))
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Nop is an audit sink that discards everything. Useful in tests.
type Nop struct{}

func (Nop) Logf(format string, args ...any) {}
