package scope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/clausegest/internal/block"
)

// Suffix is appended to the document id to name scope files.
const Suffix = "_scope.json"

// DirResult reports a run over a directory of block trees.
type DirResult struct {
	Processed []Result
	Skipped   []string
	OutputDir string
}

// ProcessedIDs lists the documents a scope file was written for.
func (r DirResult) ProcessedIDs() []string {
	ids := make([]string, 0, len(r.Processed))
	for _, p := range r.Processed {
		ids = append(ids, p.DocumentID)
	}
	return ids
}

// Save writes r to <dir>/<document_id>_scope.json.
func Save(dir string, r Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scope dir: %w", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", fmt.Errorf("encode scope %s: %w", r.DocumentID, err)
	}
	out := filepath.Join(dir, r.DocumentID+Suffix)
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write scope %s: %w", r.DocumentID, err)
	}
	return out, nil
}

// Load reads a scope file written by Save.
func Load(path string) (Result, error) {
	var r Result
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read scope: %w", err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("decode scope %s: %w", filepath.Base(path), err)
	}
	return r, nil
}

// ExtractDir processes every *.json block tree in inputDir. Documents
// that cannot be decoded, or that yield neither scope nor tests, are
// skipped.
func ExtractDir(inputDir, outputDir string, log *slog.Logger) (DirResult, error) {
	res := DirResult{OutputDir: outputDir}
	files, err := filepath.Glob(filepath.Join(inputDir, "*.json"))
	if err != nil {
		return res, fmt.Errorf("list inputs: %w", err)
	}
	sort.Strings(files)
	for _, path := range files {
		docID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		doc, err := block.DecodeFile(path)
		if err != nil {
			log.Warn("skipping undecodable document", "file", path, "error", err)
			res.Skipped = append(res.Skipped, docID)
			continue
		}
		r := Extract(doc, docID)
		if r.Empty() {
			res.Skipped = append(res.Skipped, docID)
			continue
		}
		if _, err := Save(outputDir, r); err != nil {
			return res, err
		}
		res.Processed = append(res.Processed, r)
		log.Info("scope extracted", "doc_id", docID, "scope_paragraphs", len(r.Scope), "tests", len(r.Tests))
	}
	return res, nil
}
