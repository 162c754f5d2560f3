package testutil

import (
	"sync"

	"github.com/trezcool/elimu/core"
)

// RecordingLogger keeps the messages logged at error level.
type RecordingLogger struct {
	mu     sync.Mutex
	errors []string
}

var _ core.Logger = (*RecordingLogger)(nil)

func (l *RecordingLogger) Debug(string, ...interface{}) {}
func (l *RecordingLogger) Info(string, ...interface{})  {}
func (l *RecordingLogger) Warn(string, ...interface{})  {}
func (l *RecordingLogger) Fatal(string, ...interface{}) {}

func (l *RecordingLogger) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *RecordingLogger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}
