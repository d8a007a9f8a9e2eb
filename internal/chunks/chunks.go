// Package chunks turns a document schema into one record per clause with
// raw and resolved cross-references.
package chunks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dgallion1/clausegest/internal/patterns"
	"github.com/dgallion1/clausegest/internal/schema"
)

// ErrInvalidSchema is returned for a schema without a document id or chunks.
var ErrInvalidSchema = errors.New("schema has no document id or no chunks")

type References struct {
	InternalRaw      []string `json:"internal_raw"`
	InternalResolved []string `json:"internal_resolved"`
	Standards        []string `json:"standards"`
}

// Record is the stored form of one clause.
type Record struct {
	ChunkID       string               `json:"chunk_id"`
	DocumentID    string               `json:"document_id"`
	ClauseID      string               `json:"clause_id"`
	Title         string               `json:"title"`
	ParentID      *string              `json:"parent_id"`
	Content       []schema.ContentItem `json:"content"`
	Tables        []schema.Table       `json:"tables"`
	Figures       []schema.Figure      `json:"figures"`
	Requirements  []schema.Requirement `json:"requirements"`
	References    References           `json:"references"`
	ChildrenIDs   []string             `json:"children_ids"`
	TokenEstimate int                  `json:"token_estimate"`
}

// ChunkID qualifies a clause id with its document id.
func ChunkID(docID, clauseID string) string {
	return docID + "::" + clauseID
}

// SplitChunkID is the inverse of ChunkID.
func SplitChunkID(chunkID string) (docID, clauseID string, ok bool) {
	return strings.Cut(chunkID, "::")
}

// ExtractInternal returns the sorted, de-duplicated raw reference
// mentions found in content.
func ExtractInternal(content []schema.ContentItem) []string {
	var refs []string
	for _, item := range content {
		refs = append(refs, patterns.RawReferences(item.Text)...)
	}
	return sortedSet(refs)
}

// ExtractStandards returns the sorted, de-duplicated standard citations
// found in content.
func ExtractStandards(content []schema.ContentItem) []string {
	var refs []string
	for _, item := range content {
		refs = append(refs, patterns.Standards(item.Text)...)
	}
	return sortedSet(refs)
}

// Resolve keeps the raw references whose trailing identifier is exactly
// a known clause id and qualifies them with docID.
func Resolve(raw []string, known map[string]bool, docID string) []string {
	var resolved []string
	for _, ref := range raw {
		id := patterns.TrailingIdentifier(ref)
		if id != "" && known[id] {
			resolved = append(resolved, ChunkID(docID, id))
		}
	}
	return sortedSet(resolved)
}

// Build produces a record for every chunk of doc. All chunk ids must be
// known before any reference is resolved, so the whole document is
// processed at once.
func Build(doc *schema.Document) ([]Record, error) {
	if doc == nil || doc.DocumentID == "" || len(doc.Chunks) == 0 {
		return nil, ErrInvalidSchema
	}
	known := make(map[string]bool, len(doc.Chunks))
	for _, c := range doc.Chunks {
		known[c.ID] = true
	}

	records := make([]Record, 0, len(doc.Chunks))
	for _, c := range doc.Chunks {
		raw := ExtractInternal(c.Content)
		records = append(records, Record{
			ChunkID:      ChunkID(doc.DocumentID, c.ID),
			DocumentID:   doc.DocumentID,
			ClauseID:     c.ID,
			Title:        c.Title,
			ParentID:     c.ParentID,
			Content:      orEmpty(c.Content),
			Tables:       orEmpty(c.Tables),
			Figures:      orEmpty(c.Figures),
			Requirements: orEmpty(c.Requirements),
			References: References{
				InternalRaw:      raw,
				InternalResolved: Resolve(raw, known, doc.DocumentID),
				Standards:        ExtractStandards(c.Content),
			},
			ChildrenIDs:   orEmpty(c.ChildrenIDs),
			TokenEstimate: EstimateTokens(Text(c.Title, c.Content)),
		})
	}
	return records, nil
}

// Text joins a title and its content into one searchable string.
func Text(title string, content []schema.ContentItem) string {
	var sb strings.Builder
	sb.WriteString(title)
	for _, item := range content {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(item.Text)
	}
	return sb.String()
}

// SafeFilename maps a clause id to a file name stem.
func SafeFilename(id string) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(id)
}

// LoadSchema reads a schema file.
func LoadSchema(path string) (*schema.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var doc schema.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", filepath.Base(path), err)
	}
	return &doc, nil
}

// WriteAll writes each record to <dir>/<document_id>/<clause>.json and
// returns the written paths.
func WriteAll(dir string, records []Record) ([]string, error) {
	var written []string
	for _, r := range records {
		docDir := filepath.Join(dir, r.DocumentID)
		if err := os.MkdirAll(docDir, 0o755); err != nil {
			return written, fmt.Errorf("create chunk dir: %w", err)
		}
		data, err := Marshal(r)
		if err != nil {
			return written, err
		}
		out := filepath.Join(docDir, SafeFilename(r.ClauseID)+".json")
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return written, fmt.Errorf("write chunk %s: %w", r.ChunkID, err)
		}
		written = append(written, out)
	}
	return written, nil
}

// Marshal renders a record as indented JSON without HTML escaping.
func Marshal(r Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encode chunk %s: %w", r.ChunkID, err)
	}
	return buf.Bytes(), nil
}

func sortedSet(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		return []string{}
	}
	return out
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
