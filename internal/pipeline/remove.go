package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/clausegest/internal/catalog"
	"github.com/dgallion1/clausegest/internal/schema"
	"github.com/dgallion1/clausegest/internal/scope"
)

// Removal reports what was deleted for a document.
type Removal struct {
	DocumentID   string `json:"document_id"`
	Cataloged    bool   `json:"catalog_deleted"`
	IndexEntries int    `json:"index_entries_deleted"`
	FilesRemoved int    `json:"files_removed"`
}

// Remove deletes a document from the catalog and the index, then removes
// its schema, chunk, scope and image files. A document unknown to every
// store returns catalog.ErrNotFound.
func (d Deps) Remove(ctx context.Context, docID string) (Removal, error) {
	res := Removal{DocumentID: docID}

	if d.Catalog != nil {
		err := d.Catalog.DeleteDocument(ctx, docID)
		switch {
		case err == nil:
			res.Cataloged = true
		case !errors.Is(err, catalog.ErrNotFound):
			return res, err
		}
	}
	if d.Index != nil {
		n, err := d.Index.DeleteDocument(docID)
		if err != nil {
			return res, err
		}
		res.IndexEntries = n
	}

	var paths []string
	if d.Paths.SchemaDir != "" {
		paths = append(paths, filepath.Join(d.Paths.SchemaDir, docID+schema.SchemaSuffix))
	}
	if d.Paths.ChunkDir != "" {
		paths = append(paths, filepath.Join(d.Paths.ChunkDir, docID))
	}
	if d.Paths.ScopeDir != "" {
		paths = append(paths, filepath.Join(d.Paths.ScopeDir, docID+scope.Suffix))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			return res, fmt.Errorf("remove %s: %w", p, err)
		}
		res.FilesRemoved++
	}
	if d.Images != nil {
		if err := d.Images.RemoveDocument(docID); err != nil {
			return res, fmt.Errorf("remove images: %w", err)
		}
	}

	if !res.Cataloged && res.IndexEntries == 0 && res.FilesRemoved == 0 {
		return res, fmt.Errorf("document %s: %w", docID, catalog.ErrNotFound)
	}
	return res, nil
}
