// Package watch imports JSON documents dropped into a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/logging"
	"github.com/dd0wney/stratnet/pkg/metrics"
)

// DefaultDebounce is how long a file must stay quiet before it is imported.
const DefaultDebounce = 250 * time.Millisecond

// Importer merges a payload into the live catalog.
type Importer interface {
	ImportData(ctx context.Context, p *catalog.Payload) (*catalog.MergeResult, error)
}

// Result is reported for every import attempt.
type Result struct {
	Path  string
	Merge *catalog.MergeResult
	Err   error
	Time  time.Time
}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   logging.Logger
	Metrics  *metrics.Registry
	OnResult func(Result) // Called on the watcher goroutine
}

// Watcher imports *.json files created or written in a directory. Editors
// and copies produce bursts of events; each file is imported once the burst
// has been quiet for the debounce window.
type Watcher struct {
	dir      string
	importer Importer
	debounce time.Duration
	logger   logging.Logger
	metrics  *metrics.Registry
	onResult func(Result)

	watcher  *fsnotify.Watcher
	stopOnce sync.Once
}

// New starts watching dir. The directory must exist.
func New(dir string, importer Importer, opts Options) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat import directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("import path %s is not a directory", dir)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:      dir,
		importer: importer,
		debounce: opts.Debounce,
		logger:   opts.Logger.With(logging.Component("watch"), logging.Path(dir)),
		metrics:  opts.Metrics,
		onResult: opts.OnResult,
		watcher:  fw,
	}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run processes events until ctx is cancelled or Close is called. Files
// still waiting out their debounce window are imported before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	w.logger.Info("watching import directory")
	for {
		select {
		case <-ctx.Done():
			w.flush(context.WithoutCancel(ctx), pending, time.Time{})
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if relevant(ev) {
				pending[ev.Name] = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logging.Error(err))
			w.metrics.RecordWatchEvent(err)

		case now := <-ticker.C:
			w.flush(ctx, pending, now.Add(-w.debounce))
		}
	}
}

// flush imports every pending file last touched before cutoff. A zero
// cutoff imports everything.
func (w *Watcher) flush(ctx context.Context, pending map[string]time.Time, cutoff time.Time) {
	for path, seen := range pending {
		if !cutoff.IsZero() && seen.After(cutoff) {
			continue
		}
		delete(pending, path)
		w.importFile(ctx, path)
	}
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	res := Result{Path: path, Time: time.Now()}
	res.Merge, res.Err = w.load(ctx, path)

	w.metrics.RecordWatchEvent(res.Err)
	w.metrics.RecordImport("watch", res.Err)
	if res.Err != nil {
		w.logger.Warn("import failed", logging.String("file", filepath.Base(path)), logging.Error(res.Err))
	} else {
		w.logger.Info("imported file",
			logging.String("file", filepath.Base(path)),
			logging.Int("nodes_added", res.Merge.NodesAdded),
			logging.Int("links_added", res.Merge.LinksAdded),
		)
	}
	if w.onResult != nil {
		w.onResult(res)
	}
}

func (w *Watcher) load(ctx context.Context, path string) (*catalog.MergeResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	p, err := catalog.ParsePayload(data)
	if err != nil {
		return nil, err
	}
	return w.importer.ImportData(ctx, p)
}

// Close stops the underlying watcher; Run returns once it notices.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() { err = w.watcher.Close() })
	return err
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	base := filepath.Base(ev.Name)
	return strings.HasSuffix(strings.ToLower(base), ".json") && !strings.HasPrefix(base, ".")
}
