package scope

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/dgallion1/clausegest/internal/block"
)

type b struct {
	kind string
	html string
	hier map[string]string
}

func tree(t *testing.T, blocks ...b) *block.Document {
	t.Helper()
	children := make([]map[string]any, 0, len(blocks))
	for i, bl := range blocks {
		m := map[string]any{
			"id":         fmt.Sprintf("/page/0/%d", i),
			"block_type": bl.kind,
			"html":       bl.html,
		}
		if bl.hier != nil {
			m["section_hierarchy"] = bl.hier
		}
		children = append(children, m)
	}
	raw, err := json.Marshal(map[string]any{
		"block_type": "Document",
		"children":   []any{map[string]any{"block_type": "Page", "children": children}},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	doc, err := block.Decode(strings.NewReader(string(raw)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return doc
}

func header(html string, hier map[string]string) b { return b{"SectionHeader", html, hier} }
func text(html string) b                           { return b{"Text", html, nil} }

func TestExplicitScope(t *testing.T) {
	h1 := map[string]string{"1": "/page/0/0"}
	h2 := map[string]string{"1": "/page/0/3"}
	doc := tree(t,
		header("<h1>1 Scope</h1>", h1),
		text("<p>This part of IEC 61000 applies to  equipment.</p>"),
		header("<h2>Sub heading</h2>", h1),
		text("<p>Still scope.</p>"),
		header("<h1>2 Normative references</h1>", h2),
		text("<p>Not scope.</p>"),
	)
	got := Statement(doc.PageBlocks())
	want := []string{"This part of IEC 61000 applies to equipment.", "Still scope."}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestClauseOneFallback(t *testing.T) {
	tests := []struct {
		name  string
		first string
		want  []string
	}{
		{"allowlisted phrase", "<p>This document specifies tests.</p>", []string{"This document specifies tests.", "More."}},
		{"other opening", "<p>General remarks.</p>", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tree(t,
				header("<h1>1 General</h1>", nil),
				text(tt.first),
				text("<p>More.</p>"),
				header("<h1>2 Terms</h1>", nil),
				text("<p>Terms text.</p>"),
			)
			got := Statement(doc.PageBlocks())
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDocumentName(t *testing.T) {
	doc := tree(t,
		text("<p>IEC 61076</p>"),
		text("<p>Published as IEC 61076-8-103:2023 edition 1</p>"),
		text("<p>see ISO 9001</p>"),
	)
	if got := DocumentName(doc.PageBlocks()); got != "IEC 61076-8-103:2023" {
		t.Errorf("expected %q, got %q", "IEC 61076-8-103:2023", got)
	}
}

func TestTitle(t *testing.T) {
	doc := tree(t,
		header("<h1>IEC 61076-8-103:2023</h1>", nil),
		header("<h1>Foreword to the edition</h1>", nil),
		header("<h1>Connectors for electrical and electronic equipment</h1>", nil),
		header("<h1>Visit www.iec.ch for the webstore listing</h1>", nil),
		header("<h1>1 Scope of this document here</h1>", nil),
	)
	want := "Connectors for electrical and electronic equipment"
	if got := Title(doc.PageBlocks()); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestTestSections(t *testing.T) {
	doc := tree(t,
		header("<h2>5.2 Vibration test</h2>", nil),
		header("<h2>Testing overview</h2>", nil),
		header("<h2>6 Tests</h2>", nil),
		header("<h2>5.2 Vibration test</h2>", nil),
		header("<h2>7 Contestant rules</h2>", nil),
	)
	got := TestSections(doc.PageBlocks())
	want := []string{"5.2 Vibration test", "6 Tests"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestExtractFallbacks(t *testing.T) {
	doc := tree(t, text("<p>nothing useful</p>"))
	r := Extract(doc, "stem")
	if r.DocumentName != "stem" || r.DocumentTitle != "stem" {
		t.Errorf("expected stem fallbacks, got %q %q", r.DocumentName, r.DocumentTitle)
	}
	if !r.Empty() {
		t.Error("expected empty result")
	}
}

func TestExtractDir(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "scope")

	good := `{"children":[{"block_type":"Page","children":[
		{"block_type":"SectionHeader","html":"<h1>1 Scope</h1>"},
		{"block_type":"Text","html":"<p>This standard covers cables.</p>"}]}]}`
	os.WriteFile(filepath.Join(in, "std1.json"), []byte(good), 0o644)
	os.WriteFile(filepath.Join(in, "empty.json"), []byte(`{"children":[]}`), 0o644)
	os.WriteFile(filepath.Join(in, "broken.json"), []byte(`[1,2]`), 0o644)

	res, err := ExtractDir(in, out, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("extract dir: %v", err)
	}
	if !slices.Equal(res.ProcessedIDs(), []string{"std1"}) {
		t.Errorf("expected std1 processed, got %v", res.ProcessedIDs())
	}
	if !slices.Equal(res.Skipped, []string{"broken", "empty"}) {
		t.Errorf("expected broken and empty skipped, got %v", res.Skipped)
	}

	r, err := Load(filepath.Join(out, "std1"+Suffix))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !slices.Equal(r.Scope, []string{"This standard covers cables."}) {
		t.Errorf("unexpected scope %v", r.Scope)
	}
	if r.Tests == nil {
		t.Error("expected tests to decode as an empty list")
	}
}
