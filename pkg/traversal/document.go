package traversal

import (
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/stratnet/pkg/catalog"
)

// DocumentName is the title written into every path document.
const DocumentName = "Strategic Path Analysis"

// ErrEmptyPath is returned when exporting a path with no nodes.
var ErrEmptyPath = errors.New("path is empty")

// Metadata heads a path document.
type Metadata struct {
	Name       string `json:"name"`
	Created    string `json:"created"`
	NodesCount int    `json:"nodes_count"`
	Author     string `json:"author"`
}

// Entry is one stop on the path.
type Entry struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Type  catalog.Tier `json:"type"`
	Order int          `json:"order"`
}

// Segment is a consecutive pair of path entries.
type Segment struct {
	From      string             `json:"from"`
	To        string             `json:"to"`
	Connected bool               `json:"connected"`
	Via       []catalog.LinkType `json:"via,omitempty"`
}

// Analysis summarizes how well the path hangs together over visible links.
type Analysis struct {
	ConnectedSegments    int       `json:"connected_segments"`
	DisconnectedSegments int       `json:"disconnected_segments"`
	Segments             []Segment `json:"segments"`
	Recommendations      []string  `json:"strategic_recommendations"`
}

// Document is the exported form of a path.
type Document struct {
	Metadata Metadata `json:"metadata"`
	Path     []Entry  `json:"path"`
	Analysis Analysis `json:"analysis"`
}

// Filename is the download name for a document created at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("strategic-path-%d.json", now.UnixMilli())
}

// BuildDocument renders the path. A segment is connected when a visible link
// joins its two nodes in either direction. Ids no longer in the catalog are
// kept with empty name and type.
func BuildDocument(path []string, cat *catalog.Catalog, visible []catalog.Link, author string, now time.Time) (*Document, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}

	doc := &Document{
		Metadata: Metadata{
			Name:       DocumentName,
			Created:    now.UTC().Format(time.RFC3339Nano),
			NodesCount: len(path),
			Author:     author,
		},
		Path: make([]Entry, 0, len(path)),
	}
	for i, id := range path {
		e := Entry{ID: id, Order: i + 1}
		if n, ok := cat.Node(id); ok {
			e.Name = n.Name
			e.Type = n.Tier
		}
		doc.Path = append(doc.Path, e)
	}

	adj := make(map[[2]string][]catalog.LinkType)
	for _, l := range visible {
		adj[[2]string{l.Source, l.Target}] = append(adj[[2]string{l.Source, l.Target}], l.Type)
		adj[[2]string{l.Target, l.Source}] = append(adj[[2]string{l.Target, l.Source}], l.Type)
	}

	a := &doc.Analysis
	a.Segments = make([]Segment, 0, len(path))
	for i := 1; i < len(path); i++ {
		seg := Segment{From: path[i-1], To: path[i]}
		seg.Via = adj[[2]string{seg.From, seg.To}]
		seg.Connected = len(seg.Via) > 0
		if seg.Connected {
			a.ConnectedSegments++
		} else {
			a.DisconnectedSegments++
		}
		a.Segments = append(a.Segments, seg)
	}
	a.Recommendations = recommend(doc)
	return doc, nil
}

func recommend(doc *Document) []string {
	var out []string
	for _, s := range doc.Analysis.Segments {
		if !s.Connected {
			out = append(out, fmt.Sprintf("Build a connection between %s and %s", s.From, s.To))
		}
	}

	flowOnly := 0
	for _, s := range doc.Analysis.Segments {
		if s.Connected && !hasStructure(s.Via) {
			flowOnly++
		}
	}
	if flowOnly > 0 {
		out = append(out, fmt.Sprintf("Formalize %d segment(s) that rely on flows alone", flowOnly))
	}

	if len(out) == 0 {
		out = append(out, "Path is fully connected; optimize resource flow along it")
	}
	return out
}

func hasStructure(types []catalog.LinkType) bool {
	for _, lt := range types {
		if lt == catalog.LinkStructure {
			return true
		}
	}
	return false
}
