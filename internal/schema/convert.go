package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dgallion1/clausegest/internal/block"
)

// SchemaSuffix is appended to the document id to name its schema file.
const SchemaSuffix = "_final_schema.json"

// Convert builds the clause document for one decoded block tree.
func Convert(doc *block.Document, docID string, images ImageStore, log *slog.Logger) *Document {
	p := NewProcessor(docID, images, log)
	if doc != nil && doc.Root != nil {
		for _, child := range doc.Root.Children {
			p.Walk(child)
		}
	}
	return p.Finish()
}

// Finish builds the hierarchy and returns the flattened document.
func (p *Processor) Finish() *Document {
	roots := BuildHierarchy(p.arena)
	chunks := Flatten(p.arena, roots, p.docID)

	out := &Document{
		DocumentID: p.docID,
		Statistics: Statistics{
			TotalImages:     p.ctx.Counters.TotalImages,
			ImagesInClauses: p.ctx.Counters.ClauseImages,
			ImagesInMisc:    p.ctx.Counters.MiscImages,
			TotalTables:     p.ctx.Counters.TotalTables,
			TotalClauses:    p.arena.Len(),
			TotalChunks:     len(chunks),
		},
		Chunks: chunks,
	}
	if len(p.misc) > 0 {
		out.Chunks = append(out.Chunks, miscChunk(p.docID, p.misc))
		out.Statistics.TotalChunks++
	}
	return out
}

// DocumentID derives a document id from an input file name.
func DocumentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ConvertFile decodes the block tree at path and converts it, using the
// file stem as the document id.
func ConvertFile(path string, images ImageStore, log *slog.Logger) (*Document, error) {
	doc, err := block.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return Convert(doc, DocumentID(path), images, log), nil
}

// Marshal renders a document as indented JSON without HTML escaping.
func Marshal(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDocument writes data as <dir>/<docID>_final_schema.json.
func WriteDocument(dir, docID string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create schema dir: %w", err)
	}
	out := filepath.Join(dir, docID+SchemaSuffix)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write schema: %w", err)
	}
	return out, nil
}

// InputFiles lists the *.json files of dir in name order.
func InputFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// BuildOptions control a batch conversion.
type BuildOptions struct {
	OutputDir string
	Images    ImageStore
	Workers   int
	// Validate, when set, checks the encoded schema before it is written.
	Validate func(data []byte) error
	Log      *slog.Logger
}

// BuildResult is the outcome for one input file.
type BuildResult struct {
	Source     string     `json:"source"`
	DocumentID string     `json:"document_id"`
	Output     string     `json:"output,omitempty"`
	Statistics Statistics `json:"statistics"`
	Err        error      `json:"-"`
	Error      string     `json:"error,omitempty"`
}

// BuildAll converts and writes every input concurrently. Documents share
// no state, so a failure is recorded on that document's result only.
func BuildAll(ctx context.Context, inputs []string, opts BuildOptions) []BuildResult {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	results := make([]BuildResult, len(inputs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, path := range inputs {
		results[i] = BuildResult{Source: path, DocumentID: DocumentID(path)}
		if err := ctx.Err(); err != nil {
			results[i].fail(err)
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(r *BuildResult) {
			defer wg.Done()
			defer func() { <-sem }()
			buildOne(r, opts)
		}(&results[i])
	}
	wg.Wait()
	return results
}

func buildOne(r *BuildResult, opts BuildOptions) {
	log := opts.Log.With("source", r.Source)
	doc, err := ConvertFile(r.Source, opts.Images, opts.Log)
	if err != nil {
		log.Error("convert failed", "error", err)
		r.fail(err)
		return
	}
	r.Statistics = doc.Statistics

	data, err := Marshal(doc)
	if err != nil {
		r.fail(err)
		return
	}
	if opts.Validate != nil {
		if err := opts.Validate(data); err != nil {
			log.Error("schema validation failed", "error", err)
			r.fail(err)
			return
		}
	}
	out, err := WriteDocument(opts.OutputDir, r.DocumentID, data)
	if err != nil {
		r.fail(err)
		return
	}
	r.Output = out
	log.Info("schema written",
		"clauses", doc.Statistics.TotalClauses,
		"chunks", doc.Statistics.TotalChunks,
		"images", doc.Statistics.TotalImages,
		"tables", doc.Statistics.TotalTables,
	)
}

func (r *BuildResult) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}
