package logger

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
)

// TestLogger writes through t.Logf and keeps every entry so tests can assert on them.
type TestLogger struct {
	T      *testing.T
	fields map[string]interface{}
	sink   *entries
}

type entries struct {
	mu    sync.Mutex
	lines []string
}

// NewTestLogger creates a new test logger
func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{T: t, sink: &entries{}}
}

func (l *TestLogger) log(level, msg string) {
	line := fmt.Sprintf("[%s] %s%s", level, msg, l.formatFields())
	l.sink.mu.Lock()
	l.sink.lines = append(l.sink.lines, line)
	l.sink.mu.Unlock()
	if l.T != nil {
		l.T.Log(line)
	}
}

func (l *TestLogger) formatFields() string {
	if len(l.fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, l.fields[k])
	}
	return sb.String()
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg) }

// Fatal records the entry without exiting.
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg) }

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{T: l.T, fields: merged, sink: l.sink}
}

// Entries returns every line logged through this logger and its children.
func (l *TestLogger) Entries() []string {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return append([]string(nil), l.sink.lines...)
}

// Contains reports whether any entry contains substr.
func (l *TestLogger) Contains(substr string) bool {
	for _, line := range l.Entries() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// NewMockLogger creates a simple logger for use in tests
// It can be called with or without a testing.T parameter
func NewMockLogger(t ...*testing.T) Logger {
	if len(t) > 0 {
		return NewTestLogger(t[0])
	}
	return NewTestLogger(nil)
}
