// Package logging is the structured JSON logger shared by every stratnet
// component. Each entry is one line:
//
//	{"time":"...","level":"INFO","component":"engine","msg":"...","fields":{...}}
package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Field is a key-value pair attached to an entry.
type Field struct {
	Key   string
	Value any
}

// Logger is the interface components depend on.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child carrying fields on every entry. The child starts
	// at the parent's level and changes to either level are independent.
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

// LogEntry is the decoded form of one line.
type LogEntry struct {
	Time      string         `json:"time"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"msg"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// output is shared by a logger and all its children so lines from different
// components never interleave.
type output struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// JSONLogger writes LogEntry lines.
type JSONLogger struct {
	out    *output
	mu     sync.RWMutex
	level  Level
	fields []Field
}

// Option configures a JSONLogger.
type Option func(*output)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *output) { o.now = now }
}

// NewJSONLogger writes entries at or above level to w.
func NewJSONLogger(w io.Writer, level Level, opts ...Option) *JSONLogger {
	out := &output{w: w, now: time.Now}
	for _, opt := range opts {
		opt(out)
	}
	return &JSONLogger{out: out, level: level}
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

func (l *JSONLogger) With(fields ...Field) Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &JSONLogger{
		out:    l.out,
		level:  l.level,
		fields: append(append([]Field(nil), l.fields...), fields...),
	}
}

func (l *JSONLogger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *JSONLogger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *JSONLogger) log(level Level, msg string, fields []Field) {
	l.mu.RLock()
	if level < l.level {
		l.mu.RUnlock()
		return
	}
	preset := l.fields
	l.mu.RUnlock()

	entry := LogEntry{
		Time:    l.out.now().UTC().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	}
	// Later fields win, so a call-site field overrides a With field.
	for _, group := range [][]Field{preset, fields} {
		for _, f := range group {
			if f.Key == componentKey {
				if s, ok := f.Value.(string); ok {
					entry.Component = s
					continue
				}
			}
			if entry.Fields == nil {
				entry.Fields = make(map[string]any, len(preset)+len(fields))
			}
			entry.Fields[f.Key] = f.Value
		}
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(entry); err != nil {
		buf.Reset()
		entry.Fields = map[string]any{"log_error": err.Error()}
		_ = json.NewEncoder(&buf).Encode(entry)
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	_, _ = l.out.w.Write(buf.Bytes())
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (n NopLogger) With(...Field) Logger { return n }
func (NopLogger) SetLevel(Level)         {}
func (NopLogger) GetLevel() Level        { return InfoLevel }

func NewNopLogger() Logger {
	return NopLogger{}
}
