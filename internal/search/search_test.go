package search

import (
	"path/filepath"
	"testing"

	"github.com/dgallion1/clausegest/internal/chunks"
	"github.com/dgallion1/clausegest/internal/schema"
	"github.com/dgallion1/clausegest/internal/scope"
)

func record(docID, clauseID, title, text string) chunks.Record {
	return chunks.Record{
		ChunkID:    chunks.ChunkID(docID, clauseID),
		DocumentID: docID,
		ClauseID:   clauseID,
		Title:      title,
		Content:    []schema.ContentItem{{Type: schema.ContentParagraph, Text: text}},
	}
}

func newIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := NewMemory()
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestSearchClauses(t *testing.T) {
	ix := newIndex(t)
	err := ix.IndexRecords([]chunks.Record{
		record("iec-61000", "6.1", "Electrostatic discharge", "The equipment shall withstand discharge at 8 kV."),
		record("iec-61000", "7", "Radiated immunity", "Field strength of 10 V/m applies."),
		record("en-50174", "4.2", "Cabling", "Electrostatic shielding of cables."),
	})
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	hits, err := ix.Search("discharge", "", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].ChunkID != "iec-61000::6.1" {
		t.Fatalf("expected one hit for 6.1, got %+v", hits)
	}
	if hits[0].ClauseID != "6.1" || hits[0].Title != "Electrostatic discharge" {
		t.Errorf("unexpected stored fields %+v", hits[0])
	}

	hits, err = ix.Search("electrostatic", "en-50174", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].DocumentID != "en-50174" {
		t.Errorf("expected document filter to apply, got %+v", hits)
	}

	hits, err = ix.Search("   ", "", 10)
	if err != nil || len(hits) != 0 {
		t.Errorf("expected no hits for blank query, got %v %v", hits, err)
	}
}

func TestRecommend(t *testing.T) {
	ix := newIndex(t)
	err := ix.IndexScopes([]scope.Result{
		{DocumentID: "cables", DocumentName: "EN 50174-3", Scope: []string{"This standard covers installation of telecommunication cabling outside buildings."}},
		{DocumentID: "emc", DocumentName: "IEC 61000-4-2", Scope: []string{"This part covers electrostatic discharge immunity testing."}},
		{DocumentID: "quality", DocumentName: "ISO 9001", Scope: []string{"This document specifies quality management requirements."}},
	})
	if err != nil {
		t.Fatalf("index scopes: %v", err)
	}
	if err := ix.IndexRecords([]chunks.Record{record("other", "1", "Cabling", "cabling outside")}); err != nil {
		t.Fatalf("index: %v", err)
	}

	recs, err := ix.Recommend("telecommunication cabling", 5)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected only scope documents to match, got %+v", recs)
	}
	if recs[0].DocumentID != "cables" || recs[0].Name != "EN 50174-3" {
		t.Errorf("unexpected recommendation %+v", recs[0])
	}
	if recs[0].Similarity != 1 {
		t.Errorf("expected normalized similarity 1, got %v", recs[0].Similarity)
	}
	if recs[0].Score != 0.1 {
		t.Errorf("expected score 0.1 for full token overlap, got %v", recs[0].Score)
	}
}

func TestDeleteDocument(t *testing.T) {
	ix := newIndex(t)
	ix.IndexRecords([]chunks.Record{
		record("a", "1", "One", "alpha"),
		record("a", "2", "Two", "alpha"),
		record("b", "1", "One", "alpha"),
	})
	ix.IndexScopes([]scope.Result{{DocumentID: "a", Scope: []string{"alpha scope"}}})

	n, err := ix.DeleteDocument("a")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 entries removed, got %d", n)
	}
	count, _ := ix.Count()
	if count != 1 {
		t.Errorf("expected 1 entry left, got %d", count)
	}
}

func TestOpenOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "index")
	ix, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ix.IndexRecords([]chunks.Record{record("d", "1", "Scope", "persisted text")})
	ix.Close()

	ix, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ix.Close()
	hits, err := ix.Search("persisted", "", 5)
	if err != nil || len(hits) != 1 {
		t.Errorf("expected persisted hit, got %v %v", hits, err)
	}
}

func TestSearchTableCells(t *testing.T) {
	ix := newIndex(t)
	r := record("en-55032", "8", "Limits", "See the table below.")
	r.Tables = []schema.Table{{HTML: "<table><tr><th>Band</th><td>Quasi-peak</td></tr></table>"}}
	if err := ix.IndexRecords([]chunks.Record{r}); err != nil {
		t.Fatalf("index: %v", err)
	}
	hits, err := ix.Search("quasi", "", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].ClauseID != "8" {
		t.Errorf("expected table cell text to match clause 8, got %+v", hits)
	}
}
