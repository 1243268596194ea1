package catalog

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func samplePayload() *Payload {
	return &Payload{
		Metadata: &Metadata{Name: "Food security", Version: "1.0"},
		Nodes: []Node{
			{ID: "food-banks", Name: "Food Banks", Tier: TierSubsector, Size: 9},
			{ID: "harvest", Name: "Harvest Collective", Tier: TierOrganization, Size: 7, Grants: []string{"USDA"}},
			{ID: "east-side", Name: "East Side", Tier: TierCommunity, Size: 5, Needs: []string{"produce"}},
		},
		Links: []Link{
			{Source: "gov", Target: "food-banks", Type: LinkStructure},
			{Source: "food-banks", Target: "harvest", Type: LinkStructure},
			{Source: "harvest", Target: "east-side", Type: LinkServiceFlow},
			{Source: "gov", Target: "harvest", Type: LinkGrantFlow},
		},
	}
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: `{"nodes":[],"links":[]}`},
		{name: "with metadata", input: `{"metadata":{"name":"x"},"nodes":[{"id":"a"}],"links":[]}`},
		{name: "empty", input: "   ", wantErr: true},
		{name: "malformed", input: `{"nodes":[`, wantErr: true},
		{name: "missing nodes", input: `{"links":[]}`, wantErr: true},
		{name: "missing links", input: `{"nodes":[]}`, wantErr: true},
		{name: "null nodes", input: `{"nodes":null,"links":[]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePayload([]byte(tt.input))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPayload) {
					t.Fatalf("ParsePayload() error = %v, want ErrInvalidPayload", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePayload() unexpected error: %v", err)
			}
			if p == nil {
				t.Fatal("ParsePayload() returned nil payload")
			}
		})
	}
}

func TestMergeAddsNodesAndLinks(t *testing.T) {
	c := Seed()
	res, err := c.Merge(samplePayload())
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}

	if res.NodesAdded != 3 || res.NodesUpdated != 0 || res.LinksAdded != 4 {
		t.Errorf("Merge() result = %+v", res)
	}
	if c.Len() != 7 {
		t.Errorf("Len() = %d, want 7", c.Len())
	}
	// east-side hangs off a service flow only.
	if len(res.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one unreachable finding", res.Warnings)
	}
	if _, ok := c.Node("harvest"); !ok {
		t.Error("harvest not found after merge")
	}
}

func TestMergeRejectsWithoutMutation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Payload)
		want   error
	}{
		{
			name: "dangling target",
			mutate: func(p *Payload) {
				p.Links = append(p.Links, Link{Source: "harvest", Target: "nowhere", Type: LinkGrantFlow})
			},
			want: ErrDanglingLink,
		},
		{
			name: "dangling source",
			mutate: func(p *Payload) {
				p.Links = append(p.Links, Link{Source: "ghost", Target: "harvest", Type: LinkGrantFlow})
			},
			want: ErrDanglingLink,
		},
		{
			name: "duplicate id",
			mutate: func(p *Payload) {
				p.Nodes = append(p.Nodes, Node{ID: "harvest", Tier: TierOrganization})
			},
			want: ErrDuplicateNode,
		},
		{
			name: "second root",
			mutate: func(p *Payload) {
				p.Nodes = append(p.Nodes, Node{ID: "other-root", Tier: TierRoot})
			},
			want: ErrSecondRoot,
		},
		{
			name: "invalid id",
			mutate: func(p *Payload) {
				p.Nodes[0].ID = "food\tbanks"
				p.Links[0].Target = "food\tbanks"
			},
			want: ErrInvalidPayload,
		},
		{
			name: "negative size",
			mutate: func(p *Payload) {
				p.Nodes[1].Size = -3
			},
			want: ErrInvalidPayload,
		},
		{
			name: "missing links",
			mutate: func(p *Payload) {
				p.Links = nil
			},
			want: ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Seed()
			before := c.Payload()

			p := samplePayload()
			tt.mutate(p)
			_, err := c.Merge(p)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Merge() error = %v, want %v", err, tt.want)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Merge() error %T is not a *ValidationError", err)
			}

			if after := c.Payload(); !reflect.DeepEqual(before, after) {
				t.Error("rejected merge mutated the catalog")
			}
		})
	}
}

func TestMergeDanglingErrorNamesReference(t *testing.T) {
	c := Seed()
	p := samplePayload()
	p.Links = append(p.Links, Link{Source: "harvest", Target: "nowhere", Type: LinkGrantFlow})

	_, err := c.Merge(p)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Merge() error = %v", err)
	}
	if verr.Field != "links[4].target" {
		t.Errorf("Field = %q, want links[4].target", verr.Field)
	}
}

func TestMergeUpsertKeepsPosition(t *testing.T) {
	c := Seed()
	gov, _ := c.Node("gov")
	gov.Pin(400, 150)

	p := &Payload{
		Nodes: []Node{{ID: "gov", Name: "Federal Government", Tier: TierSector, Size: 14}},
		Links: []Link{{Source: "root", Target: "gov", Type: LinkStructure}},
	}
	res, err := c.Merge(p)
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if res.NodesUpdated != 1 || res.NodesAdded != 0 {
		t.Errorf("result = %+v, want one update", res)
	}
	if res.LinksAdded != 0 {
		t.Errorf("LinksAdded = %d, duplicate link should be ignored", res.LinksAdded)
	}

	gov, _ = c.Node("gov")
	if gov.Name != "Federal Government" || gov.Size != 14 {
		t.Errorf("gov not updated: %+v", gov)
	}
	x, y, ok := gov.Position()
	if !ok || x != 400 || y != 150 || !gov.Pinned() {
		t.Errorf("gov position = (%v, %v, %v) pinned=%v, want pinned at (400, 150)", x, y, ok, gov.Pinned())
	}
}

func TestMergeAcceptsFreeFormIDs(t *testing.T) {
	ids := []string{"Department of Health", "école-nord", "_internal"}
	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			c := Seed()
			p := &Payload{
				Nodes: []Node{{ID: id, Name: id, Tier: TierSubsector}},
				Links: []Link{{Source: "gov", Target: id, Type: LinkStructure}},
			}
			res, err := c.Merge(p)
			if err != nil {
				t.Fatalf("Merge() error: %v", err)
			}
			if res.NodesAdded != 1 || res.LinksAdded != 1 {
				t.Errorf("result = %+v", res)
			}
			if _, ok := c.Node(id); !ok {
				t.Errorf("%q not found after merge", id)
			}
		})
	}
}

func TestMergeUpsertPinRules(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name       string
		in         Node
		wantX      float64
		wantPinned bool
	}{
		{
			name:       "sector moved carries its pin",
			in:         Node{ID: "gov", Tier: TierSector, X: f(620), Y: f(90)},
			wantX:      620,
			wantPinned: true,
		},
		{
			name:       "sector demoted is released",
			in:         Node{ID: "gov", Tier: TierSubsector},
			wantX:      400,
			wantPinned: false,
		},
		{
			name:       "explicit pin wins",
			in:         Node{ID: "gov", Tier: TierSector, X: f(10), Y: f(10), Fx: f(50), Fy: f(60)},
			wantX:      10,
			wantPinned: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Seed()
			gov, _ := c.Node("gov")
			gov.Pin(400, 150)

			p := &Payload{Nodes: []Node{tt.in}, Links: []Link{{Source: "root", Target: "gov", Type: LinkStructure}}}
			if _, err := c.Merge(p); err != nil {
				t.Fatalf("Merge() error: %v", err)
			}

			gov, _ = c.Node("gov")
			x, _, ok := gov.Position()
			if !ok || x != tt.wantX {
				t.Errorf("x = %v (placed %v), want %v", x, ok, tt.wantX)
			}
			if gov.Pinned() != tt.wantPinned {
				t.Fatalf("Pinned() = %v, want %v", gov.Pinned(), tt.wantPinned)
			}
			if tt.wantPinned && tt.in.Fx == nil && (*gov.Fx != *gov.X || *gov.Fy != *gov.Y) {
				t.Errorf("pin (%v, %v) does not match position (%v, %v)", *gov.Fx, *gov.Fy, *gov.X, *gov.Y)
			}
		})
	}
}

func TestMergeWarnsOnUnreachable(t *testing.T) {
	c := Seed()
	p := &Payload{
		Nodes: []Node{{ID: "island", Tier: TierCommunity}},
		Links: []Link{{Source: "gov", Target: "island", Type: LinkGrantFlow}},
	}
	res, err := c.Merge(p)
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want one unreachable finding", res.Warnings)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	c := Seed()
	if _, err := c.Merge(samplePayload()); err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	n, _ := c.Node("east-side")
	n.SetPosition(12.5, -3)

	data, err := json.Marshal(c.Payload())
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	p, err := ParsePayload(data)
	if err != nil {
		t.Fatalf("ParsePayload() error: %v", err)
	}
	back, err := FromPayload(p)
	if err != nil {
		t.Fatalf("FromPayload() error: %v", err)
	}

	if !reflect.DeepEqual(c.IDs(), back.IDs()) {
		t.Errorf("ids differ: %v vs %v", c.IDs(), back.IDs())
	}
	if !reflect.DeepEqual(c.Links(), back.Links()) {
		t.Error("links differ after round trip")
	}
	for _, orig := range c.Nodes() {
		got, _ := back.Node(orig.ID)
		if !reflect.DeepEqual(orig, got) {
			t.Errorf("node %s differs: %+v vs %+v", orig.ID, orig, got)
		}
	}
	if back.Metadata.Name != c.Metadata.Name {
		t.Errorf("metadata name = %q, want %q", back.Metadata.Name, c.Metadata.Name)
	}
}
