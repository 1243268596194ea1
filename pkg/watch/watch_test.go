package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/metrics"
)

type fakeImporter struct {
	mu       sync.Mutex
	payloads []*catalog.Payload
	err      error
}

func (f *fakeImporter) ImportData(ctx context.Context, p *catalog.Payload) (*catalog.MergeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.payloads = append(f.payloads, p)
	return &catalog.MergeResult{NodesAdded: len(p.Nodes), LinksAdded: len(p.Links)}, nil
}

func (f *fakeImporter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

const payload = `{"nodes":[{"id":"food-banks","name":"Food Banks","type":"subsector","size":9}],"links":[{"source":"gov","target":"food-banks","type":"structure"}]}`

func startWatcher(t *testing.T, imp Importer) (string, <-chan Result) {
	t.Helper()
	dir := t.TempDir()
	results := make(chan Result, 8)
	w, err := New(dir, imp, Options{
		Debounce: 20 * time.Millisecond,
		Metrics:  metrics.NewRegistry(),
		OnResult: func(r Result) { results <- r },
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	return dir, results
}

func waitResult(t *testing.T, results <-chan Result) Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for import")
	}
	return Result{}
}

func TestNewRequiresDirectory(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing"), &fakeImporter{}, Options{}); err == nil {
		t.Error("New() on a missing directory should fail")
	}

	file := filepath.Join(t.TempDir(), "file.json")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(file, &fakeImporter{}, Options{}); err == nil {
		t.Error("New() on a file should fail")
	}
}

func TestWatcherImportsDroppedFile(t *testing.T) {
	imp := &fakeImporter{}
	dir, results := startWatcher(t, imp)

	path := filepath.Join(dir, "update.json")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	r := waitResult(t, results)
	if r.Err != nil {
		t.Fatalf("import error: %v", r.Err)
	}
	if r.Path != path || r.Merge.NodesAdded != 1 || r.Merge.LinksAdded != 1 {
		t.Errorf("result = %+v", r)
	}
	if imp.payloads[0].Nodes[0].ID != "food-banks" {
		t.Errorf("imported %+v", imp.payloads[0])
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	imp := &fakeImporter{}
	dir, results := startWatcher(t, imp)

	path := filepath.Join(dir, "burst.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, chunk := range []string{payload[:20], payload[20:60], payload[60:]} {
		if _, err := f.WriteString(chunk); err != nil {
			t.Fatal(err)
		}
	}
	f.Close()

	if r := waitResult(t, results); r.Err != nil {
		t.Fatalf("import error: %v", r.Err)
	}
	select {
	case r := <-results:
		t.Errorf("unexpected second import: %+v", r)
	case <-time.After(200 * time.Millisecond):
	}
	if imp.count() != 1 {
		t.Errorf("imports = %d, want 1", imp.count())
	}
}

func TestWatcherReportsFailures(t *testing.T) {
	imp := &fakeImporter{}
	dir, results := startWatcher(t, imp)

	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := waitResult(t, results)
	if !errors.Is(r.Err, catalog.ErrInvalidPayload) {
		t.Errorf("error = %v, want ErrInvalidPayload", r.Err)
	}

	imp.mu.Lock()
	imp.err = errors.New("rejected")
	imp.mu.Unlock()
	if err := os.WriteFile(filepath.Join(dir, "rejected.json"), []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := waitResult(t, results); r.Err == nil {
		t.Error("expected importer error to be reported")
	}
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"create json", fsnotify.Event{Name: "/in/a.json", Op: fsnotify.Create}, true},
		{"write json", fsnotify.Event{Name: "/in/a.json", Op: fsnotify.Write}, true},
		{"upper case ext", fsnotify.Event{Name: "/in/A.JSON", Op: fsnotify.Write}, true},
		{"remove", fsnotify.Event{Name: "/in/a.json", Op: fsnotify.Remove}, false},
		{"chmod", fsnotify.Event{Name: "/in/a.json", Op: fsnotify.Chmod}, false},
		{"other ext", fsnotify.Event{Name: "/in/a.txt", Op: fsnotify.Create}, false},
		{"hidden temp", fsnotify.Event{Name: "/in/.a.json", Op: fsnotify.Create}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relevant(tt.ev); got != tt.want {
				t.Errorf("relevant() = %v, want %v", got, tt.want)
			}
		})
	}
}
