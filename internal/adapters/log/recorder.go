// Package log provides logger adapters for tests and embedding.
package log

import (
	"sync"

	"github.com/bft-labs/libero2lerobot/internal/ports"
)

// Entry is one recorded log call.
type Entry struct {
	Level   string
	Message string
	Fields  map[string]any
}

// Recorder implements ports.Logger by keeping every entry in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Debug(msg string, fields ...ports.Field) { r.add("debug", msg, fields) }
func (r *Recorder) Info(msg string, fields ...ports.Field)  { r.add("info", msg, fields) }
func (r *Recorder) Warn(msg string, fields ...ports.Field)  { r.add("warn", msg, fields) }
func (r *Recorder) Error(msg string, fields ...ports.Field) { r.add("error", msg, fields) }

func (r *Recorder) add(level, msg string, fields []ports.Field) {
	e := Entry{Level: level, Message: msg, Fields: make(map[string]any, len(fields))}
	for _, f := range fields {
		e.Fields[f.Key] = f.Value
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Find returns the entries with the given level and message.
func (r *Recorder) Find(level, msg string) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level && e.Message == msg {
			out = append(out, e)
		}
	}
	return out
}
