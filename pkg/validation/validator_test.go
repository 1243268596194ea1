package validation

import (
	"strings"
	"testing"
)

type sampleNode struct {
	ID   string  `json:"id" validate:"required,max=128,ident"`
	Size float64 `json:"size" validate:"gte=0"`
}

type sampleDoc struct {
	Nodes []sampleNode `json:"nodes" validate:"dive"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name      string
		doc       sampleDoc
		wantError string
	}{
		{
			name: "valid",
			doc:  sampleDoc{Nodes: []sampleNode{{ID: "food-banks", Size: 8}}},
		},
		{
			name:      "missing id",
			doc:       sampleDoc{Nodes: []sampleNode{{ID: "gov"}, {Size: 1}}},
			wantError: "nodes[1].id: field is required",
		},
		{
			name:      "negative size",
			doc:       sampleDoc{Nodes: []sampleNode{{ID: "gov", Size: -1}}},
			wantError: "nodes[0].size: must be at least 0",
		},
		{
			name: "spaces and accents in id",
			doc:  sampleDoc{Nodes: []sampleNode{{ID: "Department of Health"}, {ID: "école-nord"}, {ID: "_internal"}}},
		},
		{
			name:      "control character in id",
			doc:       sampleDoc{Nodes: []sampleNode{{ID: "food\nbanks"}}},
			wantError: "nodes[0].id: must not contain control characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.doc)
			if tt.wantError == "" {
				if err != nil {
					t.Fatalf("Struct() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Struct() expected error containing %q", tt.wantError)
			}
			if !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("Struct() error = %q, want it to contain %q", err.Error(), tt.wantError)
			}
		})
	}
}

func TestIdentifier(t *testing.T) {
	valid := []string{"root", "gov", "food-banks", "org_12", "region:west", "two words", " gov", "école-nord", "_internal"}
	for _, id := range valid {
		if err := Identifier(id); err != nil {
			t.Errorf("Identifier(%q) unexpected error: %v", id, err)
		}
	}

	invalid := []string{"", "tab\there", "bell\a", strings.Repeat("a", 129)}
	for _, id := range invalid {
		if err := Identifier(id); err == nil {
			t.Errorf("Identifier(%q) expected error", id)
		}
	}
}
