package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dgallion1/clausegest/internal/chunks"
	"github.com/dgallion1/clausegest/internal/imagestore"
	"github.com/dgallion1/clausegest/internal/schema"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func records(docID string, clauses ...string) []chunks.Record {
	var out []chunks.Record
	for _, c := range clauses {
		out = append(out, chunks.Record{
			ChunkID:    chunks.ChunkID(docID, c),
			DocumentID: docID,
			ClauseID:   c,
			Title:      "Clause " + c,
			Content:    []schema.ContentItem{{Type: schema.ContentParagraph, Text: "text of " + c}},
		})
	}
	return out
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	doc := Document{
		DocumentID:  "std",
		Source:      "std.json",
		ContentHash: ContentHash([]byte("schema bytes")),
		Statistics:  schema.Statistics{TotalClauses: 3, TotalChunks: 3, TotalTables: 1},
	}
	if err := s.PutDocument(ctx, doc, records("std", "1", "2", "A.1")); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.GetDocument(ctx, "std")
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if got.Statistics.TotalTables != 1 || got.Source != "std.json" {
		t.Errorf("unexpected document %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("expected updated_at to be set")
	}

	list, err := s.ListChunks(ctx, "std")
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	if len(list) != 3 || list[2].ClauseID != "A.1" {
		t.Errorf("expected chunks in document order, got %+v", list)
	}

	r, err := s.GetChunk(ctx, "std::2")
	if err != nil {
		t.Fatalf("get chunk: %v", err)
	}
	if r.Content[0].Text != "text of 2" {
		t.Errorf("unexpected content %+v", r.Content)
	}

	id, err := s.FindByHash(ctx, doc.ContentHash)
	if err != nil || id != "std" {
		t.Errorf("expected hash lookup to find std, got %q %v", id, err)
	}
}

func TestPutReplacesChunks(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	s.PutDocument(ctx, Document{DocumentID: "d"}, records("d", "1", "2", "3"))
	if err := s.PutDocument(ctx, Document{DocumentID: "d"}, records("d", "9")); err != nil {
		t.Fatalf("second put: %v", err)
	}
	list, _ := s.ListChunks(ctx, "d")
	if len(list) != 1 || list[0].ClauseID != "9" {
		t.Errorf("expected replaced chunks, got %+v", list)
	}
	docs, _ := s.ListDocuments(ctx)
	if len(docs) != 1 {
		t.Errorf("expected 1 document, got %d", len(docs))
	}
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	if _, err := s.GetDocument(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetChunk(ctx, "missing::1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.FindByHash(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteDocument(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	s.PutDocument(ctx, Document{DocumentID: "a"}, records("a", "1"))
	s.PutDocument(ctx, Document{DocumentID: "b"}, records("b", "1"))
	if err := s.DeleteDocument(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetChunk(ctx, "a::1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected chunk removed, got %v", err)
	}
	docs, _ := s.ListDocuments(ctx)
	if len(docs) != 1 || docs[0].DocumentID != "b" {
		t.Errorf("expected only b left, got %+v", docs)
	}
}

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("x"))
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if a == ContentHash([]byte("y")) {
		t.Error("expected different hashes for different content")
	}
	if d := imagestore.Digest([]byte("x")); a != d {
		t.Errorf("expected content hash to match image digest %q, got %q", d, a)
	}
}
