// Package artifact writes exported snapshots and path documents to a
// directory or an S3 bucket.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/golang/snappy"

	"github.com/dd0wney/stratnet/pkg/metrics"
)

// CompressedExt is appended to names of snappy-framed artifacts.
const CompressedExt = ".sz"

// ErrInvalidName is returned for empty names or names that would escape
// the sink's root.
var ErrInvalidName = errors.New("invalid artifact name")

// Sink stores named artifacts. Put returns the location written, a file
// path or an s3:// URL.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Kind() string
}

// SnapshotName returns "network-graph-<unix ms>.json".
func SnapshotName(now time.Time) string {
	return fmt.Sprintf("network-graph-%d.json", now.UnixMilli())
}

// Encode applies snappy framing when compress is set and returns the
// possibly renamed artifact.
func Encode(name string, data []byte, compress bool) (string, []byte) {
	if !compress {
		return name, data
	}
	return name + CompressedExt, snappy.Encode(nil, data)
}

// Decode reverses Encode for names carrying CompressedExt.
func Decode(name string, data []byte) ([]byte, error) {
	if !strings.HasSuffix(name, CompressedExt) {
		return data, nil
	}
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", name, err)
	}
	return out, nil
}

func cleanName(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, '\\') {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	clean := path.Clean(name)
	if path.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean, nil
}

// Writer compresses and stores artifacts through a sink, recording the
// outcome of each write.
type Writer struct {
	sink     Sink
	compress bool
	metrics  *metrics.Registry
}

// NewWriter wraps sink. m may be nil.
func NewWriter(sink Sink, compress bool, m *metrics.Registry) *Writer {
	return &Writer{sink: sink, compress: compress, metrics: m}
}

// Write stores data under name and returns the location.
func (w *Writer) Write(ctx context.Context, name string, data []byte) (string, error) {
	name, data = Encode(name, data, w.compress)
	loc, err := w.sink.Put(ctx, name, data)
	w.metrics.RecordArtifact(w.sink.Kind(), err)
	return loc, err
}
