package validate

import (
	"strings"
	"testing"

	"github.com/dgallion1/clausegest/internal/schema"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	return v
}

func TestValidDocument(t *testing.T) {
	v := newValidator(t)
	caption := "Table 1 Limits"
	doc := &schema.Document{
		DocumentID: "std",
		Statistics: schema.Statistics{TotalClauses: 1, TotalChunks: 1, TotalTables: 1},
		Chunks: []schema.Chunk{{
			ID:           "1",
			DocumentID:   "std",
			Title:        "Scope",
			Content:      []schema.ContentItem{{Type: schema.ContentParagraph, Text: "This document shall apply."}},
			Tables:       []schema.Table{{Caption: &caption}},
			Figures:      []schema.Figure{{Path: "output_images/std/1/figure_1_a.png", Format: "png", SizeBytes: 10}},
			Requirements: []schema.Requirement{{Type: "mandatory", Keyword: "shall", Text: "This document shall apply."}},
			References:   schema.References{Internal: []string{}, External: []string{}},
			ChildrenIDs:  []string{},
		}},
	}
	data, err := schema.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := v.Validate(data); err != nil {
		t.Errorf("expected valid document, got %v", err)
	}
}

func TestInvalidDocuments(t *testing.T) {
	v := newValidator(t)
	tests := []struct {
		name string
		data string
		path string
	}{
		{"missing chunks", `{"document_id":"x","statistics":{"total_images":0,"images_in_clauses":0,"images_in_misc":0,"total_tables":0,"total_clauses":0,"total_chunks":0}}`, "$"},
		{"negative count", `{"document_id":"x","chunks":[],"statistics":{"total_images":-1,"images_in_clauses":0,"images_in_misc":0,"total_tables":0,"total_clauses":0,"total_chunks":0}}`, "$.statistics.total_images"},
		{"bad requirement", `{"document_id":"x","statistics":{"total_images":0,"images_in_clauses":0,"images_in_misc":0,"total_tables":0,"total_clauses":0,"total_chunks":0},
			"chunks":[{"id":"1","document_id":"x","title":"","parent_id":null,"content":[],"tables":[],"figures":[],
			"requirements":[{"type":"must","keyword":"shall","text":"t"}],"references":{"internal":[],"external":[]},"children_ids":[]}]}`,
			"$.chunks.0.requirements.0.type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate([]byte(tt.data))
			if err == nil {
				t.Fatal("expected validation error")
			}
			issues := Issues(err)
			if len(issues) == 0 {
				t.Fatal("expected at least one issue")
			}
			found := false
			for _, is := range issues {
				if is.Path == tt.path {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an issue at %s, got %+v", tt.path, issues)
			}
		})
	}
}

func TestMalformedJSON(t *testing.T) {
	v := newValidator(t)
	err := v.Validate([]byte("{not json"))
	if err == nil || !strings.Contains(err.Error(), "decode document") {
		t.Errorf("expected decode error, got %v", err)
	}
	if issues := Issues(err); len(issues) != 1 || issues[0].Path != "$" {
		t.Errorf("expected single root issue, got %+v", issues)
	}
}
