package logging

import (
	"fmt"
	"sync"
)

// Recorder is a Logger that keeps every entry in memory. Derived loggers
// created through WithField/WithError share the same entry list.
type Recorder struct {
	mu     *sync.Mutex
	store  *[]LogEntry
	err    error
	fields []Field
}

// LogEntry represents a single log entry captured by Recorder.
type LogEntry struct {
	Level   string
	Message string
	Fields  []Field
	Error   error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{mu: &sync.Mutex{}, store: &[]LogEntry{}}
}

func (r *Recorder) record(level, msg string, fields []Field) {
	all := make([]Field, 0, len(r.fields)+len(fields))
	all = append(all, r.fields...)
	all = append(all, fields...)

	r.mu.Lock()
	defer r.mu.Unlock()
	*r.store = append(*r.store, LogEntry{Level: level, Message: msg, Fields: all, Error: r.err})
}

func (r *Recorder) Debug(msg string, fields ...Field) { r.record("DEBUG", msg, fields) }
func (r *Recorder) Info(msg string, fields ...Field)  { r.record("INFO", msg, fields) }
func (r *Recorder) Warn(msg string, fields ...Field)  { r.record("WARN", msg, fields) }
func (r *Recorder) Error(msg string, fields ...Field) { r.record("ERROR", msg, fields) }

// Fatalf records the message at FATAL level without exiting.
func (r *Recorder) Fatalf(msg string, args ...interface{}) {
	r.record("FATAL", fmt.Sprintf(msg, args...), nil)
}

// WithError returns a logger that attaches err to every entry.
func (r *Recorder) WithError(err error) Logger {
	return &Recorder{mu: r.mu, store: r.store, err: err, fields: r.fields}
}

// WithField returns a logger with a single field attached.
func (r *Recorder) WithField(key string, value interface{}) Logger {
	return r.WithFields(Field{Key: key, Value: value})
}

// WithFields returns a logger with the given fields attached.
func (r *Recorder) WithFields(fields ...Field) Logger {
	merged := make([]Field, 0, len(r.fields)+len(fields))
	merged = append(merged, r.fields...)
	merged = append(merged, fields...)
	return &Recorder{mu: r.mu, store: r.store, err: r.err, fields: merged}
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(*r.store))
	copy(out, *r.store)
	return out
}

// EntriesAt returns the recorded entries at the given level.
func (r *Recorder) EntriesAt(level string) []LogEntry {
	var out []LogEntry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// HasField reports whether entry carries key with the given value.
func (e LogEntry) HasField(key string, value interface{}) bool {
	for _, f := range e.Fields {
		if f.Key == key && f.Value == value {
			return true
		}
	}
	return false
}
