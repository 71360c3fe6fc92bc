package testutil

import (
	"sync"

	"github.com/trezcool/gradebook/core"
)

type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger records every entry instead of printing it.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

// Entries returns the recorded entries of the given level, or all of them if level is empty.
func (l *Logger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]LogEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}

func (l *Logger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }
