package chunks

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/clausegest/internal/schema"
)

// DocumentRecords groups the records written for one document.
type DocumentRecords struct {
	DocumentID string
	Records    []Record
}

// DirResult summarizes a chunk-stage run over a schema directory.
type DirResult struct {
	Documents []DocumentRecords
	Skipped   []string
	Chunks    int
}

// DocumentIDs lists the documents that were chunked.
func (r DirResult) DocumentIDs() []string {
	ids := make([]string, 0, len(r.Documents))
	for _, d := range r.Documents {
		ids = append(ids, d.DocumentID)
	}
	return ids
}

// SchemaFiles lists the *_final_schema.json files of dir in name order.
func SchemaFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*"+schema.SchemaSuffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// BuildDir chunks every schema file in schemaDir into chunkDir. Invalid
// schemas are skipped; write errors abort the run.
func BuildDir(schemaDir, chunkDir string, log *slog.Logger) (DirResult, error) {
	var res DirResult
	files, err := SchemaFiles(schemaDir)
	if err != nil {
		return res, fmt.Errorf("list schemas: %w", err)
	}
	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), schema.SchemaSuffix)
		doc, err := LoadSchema(path)
		if err != nil {
			log.Warn("skipping unreadable schema", "file", path, "error", err)
			res.Skipped = append(res.Skipped, name)
			continue
		}
		records, err := Build(doc)
		if errors.Is(err, ErrInvalidSchema) {
			log.Warn("skipping invalid schema", "file", path)
			res.Skipped = append(res.Skipped, name)
			continue
		}
		if _, err := WriteAll(chunkDir, records); err != nil {
			return res, err
		}
		res.Documents = append(res.Documents, DocumentRecords{DocumentID: doc.DocumentID, Records: records})
		res.Chunks += len(records)
		log.Info("chunks written", "doc_id", doc.DocumentID, "chunks", len(records))
	}
	return res, nil
}
