package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

var fixedTime = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestLogger(level Level) (*JSONLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewJSONLogger(&buf, level, WithClock(func() time.Time { return fixedTime })), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("line %q is not JSON: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{" info ", InfoLevel},
		{"warn", WarnLevel},
		{"Warning", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"loud", InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := Level(42).String(); got != "UNKNOWN" {
		t.Errorf("Level(42).String() = %q", got)
	}
}

func TestJSONLogger_EntryShape(t *testing.T) {
	logger, buf := newTestLogger(InfoLevel)
	logger.Info("catalog import", Component("engine"), Count(3), NodeID("gov"))

	want := `{"time":"2025-03-14T15:09:26Z","level":"INFO","component":"engine","msg":"catalog import","fields":{"count":3,"node_id":"gov"}}` + "\n"
	if buf.String() != want {
		t.Errorf("entry =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestJSONLogger_NoFieldsOmitted(t *testing.T) {
	logger, buf := newTestLogger(InfoLevel)
	logger.Info("started")

	if strings.Contains(buf.String(), "fields") || strings.Contains(buf.String(), "component") {
		t.Errorf("empty fields should be omitted: %s", buf.String())
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level Level
		want  []string
	}{
		{DebugLevel, []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{InfoLevel, []string{"INFO", "WARN", "ERROR"}},
		{WarnLevel, []string{"WARN", "ERROR"}},
		{ErrorLevel, []string{"ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			logger, buf := newTestLogger(tt.level)
			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")
			logger.Error("e")

			entries := decodeLines(t, buf)
			if len(entries) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(entries), len(tt.want))
			}
			for i, e := range entries {
				if e.Level != tt.want[i] {
					t.Errorf("entry %d level = %s, want %s", i, e.Level, tt.want[i])
				}
			}
		})
	}
}

func TestJSONLogger_With(t *testing.T) {
	logger, buf := newTestLogger(InfoLevel)
	child := logger.With(Component("feed"), String("listen", "tcp://127.0.0.1:7070"))

	child.Info("publishing", String("listen", "override"))
	logger.Info("parent")

	entries := decodeLines(t, buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Component != "feed" {
		t.Errorf("child component = %q", entries[0].Component)
	}
	if entries[0].Fields["listen"] != "override" {
		t.Errorf("call-site field should win, got %v", entries[0].Fields["listen"])
	}
	if entries[1].Component != "" || entries[1].Fields != nil {
		t.Errorf("parent picked up child fields: %+v", entries[1])
	}
}

func TestJSONLogger_SetLevelIsPerLogger(t *testing.T) {
	logger, buf := newTestLogger(InfoLevel)
	child := logger.With(Component("api"))

	child.SetLevel(ErrorLevel)
	if logger.GetLevel() != InfoLevel {
		t.Errorf("parent level changed to %v", logger.GetLevel())
	}
	child.Warn("dropped")
	logger.Warn("kept")

	entries := decodeLines(t, buf)
	if len(entries) != 1 || entries[0].Message != "kept" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestJSONLogger_UnencodableFieldStillLogs(t *testing.T) {
	logger, buf := newTestLogger(InfoLevel)
	logger.Info("bad value", Any("ch", make(chan int)))

	entries := decodeLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	if _, ok := entries[0].Fields["log_error"]; !ok {
		t.Errorf("expected log_error field, got %v", entries[0].Fields)
	}
	if entries[0].Message != "bad value" {
		t.Errorf("message = %q", entries[0].Message)
	}
}

func TestJSONLogger_ConcurrentChildrenWriteWholeLines(t *testing.T) {
	logger, buf := newTestLogger(InfoLevel)

	var wg sync.WaitGroup
	for i := range 8 {
		child := logger.With(Int("worker", i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				child.Info("tick", String("payload", strings.Repeat("x", 64)))
			}
		}()
	}
	wg.Wait()

	if entries := decodeLines(t, buf); len(entries) != 400 {
		t.Errorf("got %d entries, want 400", len(entries))
	}
}

func TestFieldConstructors(t *testing.T) {
	tests := []struct {
		field Field
		key   string
		value any
	}{
		{String("k", "v"), "k", "v"},
		{Int("k", 1), "k", 1},
		{Int64("k", 2), "k", int64(2)},
		{Uint64("k", 3), "k", uint64(3)},
		{Float64("k", 0.5), "k", 0.5},
		{Bool("k", true), "k", true},
		{Duration("k", 1500 * time.Millisecond), "k", "1.5s"},
		{Error(errors.New("boom")), "error", "boom"},
		{Error(nil), "error", nil},
		{Tier("sector"), "tier", "sector"},
		{LinkType("grant-flow"), "link_type", "grant-flow"},
		{RequestID("r-1"), "request_id", "r-1"},
		{Operation("resize"), "operation", "resize"},
		{Path("/stats"), "path", "/stats"},
		{Latency(time.Second), "latency", "1s"},
	}
	for _, tt := range tests {
		if tt.field.Key != tt.key || tt.field.Value != tt.value {
			t.Errorf("field = %+v, want %s=%v", tt.field, tt.key, tt.value)
		}
	}
}

func TestTimedOperation(t *testing.T) {
	logger, buf := newTestLogger(InfoLevel)

	StartTimer(logger, "reload", Component("server")).End(Count(2))
	StartTimer(logger, "import").EndError(errors.New("dangling link"))

	entries := decodeLines(t, buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	ok, failed := entries[0], entries[1]
	if ok.Level != "INFO" || ok.Component != "server" || ok.Fields["count"] != float64(2) {
		t.Errorf("End entry = %+v", ok)
	}
	if _, has := ok.Fields["latency"]; !has {
		t.Errorf("End entry has no latency: %v", ok.Fields)
	}
	if failed.Level != "ERROR" || failed.Fields["error"] != "dangling link" {
		t.Errorf("EndError entry = %+v", failed)
	}
}

func TestNopLogger(t *testing.T) {
	var l Logger = NewNopLogger()
	l.Error("ignored", String("k", "v"))
	if l.With(Component("x")) == nil {
		t.Error("With should return a logger")
	}
	l.SetLevel(ErrorLevel)
	if l.GetLevel() != InfoLevel {
		t.Errorf("GetLevel() = %v", l.GetLevel())
	}
}
