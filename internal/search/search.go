// Package search maintains a full-text index over clause records and
// document scope summaries.
package search

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/dgallion1/clausegest/internal/chunks"
	"github.com/dgallion1/clausegest/internal/patterns"
	"github.com/dgallion1/clausegest/internal/scope"
)

const (
	kindChunk = "chunk"
	kindScope = "scope"

	batchSize = 100

	// DefaultTopK and overfetch follow the recommendation ranking: more
	// candidates are scored than returned.
	DefaultTopK = 5
	overfetch   = 20
)

var tokenRE = regexp.MustCompile(`[a-z0-9]+`)

// entry is the indexed form of a chunk or a scope summary.
type entry struct {
	Kind       string `json:"kind"`
	DocumentID string `json:"document_id"`
	ChunkID    string `json:"chunk_id,omitempty"`
	ClauseID   string `json:"clause_id,omitempty"`
	Title      string `json:"title"`
	Name       string `json:"name,omitempty"`
	Text       string `json:"text"`
}

// Hit is one clause matching a query.
type Hit struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	ClauseID   string  `json:"clause_id"`
	Title      string  `json:"title"`
	Score      float64 `json:"score"`
}

// Recommendation is a document whose scope matches a query.
type Recommendation struct {
	DocumentID string  `json:"document_id"`
	Name       string  `json:"document_name,omitempty"`
	Title      string  `json:"document_title,omitempty"`
	Similarity float64 `json:"similarity"`
	Score      float64 `json:"score"`
}

// Index wraps a bleve index. It is safe for concurrent use.
type Index struct {
	mu  sync.RWMutex
	idx bleve.Index
}

func newMapping() mapping.IndexMapping {
	keyword := bleve.NewKeywordFieldMapping()
	keyword.IncludeInAll = false
	text := bleve.NewTextFieldMapping()

	doc := bleve.NewDocumentMapping()
	for _, f := range []string{"kind", "document_id", "chunk_id", "clause_id"} {
		doc.AddFieldMappingsAt(f, keyword)
	}
	for _, f := range []string{"title", "name", "text"} {
		doc.AddFieldMappingsAt(f, text)
	}

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Open opens the index at dir, creating it when missing.
func Open(dir string) (*Index, error) {
	idx, err := bleve.Open(dir)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
		idx, err = bleve.New(dir, newMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Index{idx: idx}, nil
}

// NewMemory returns an index that lives only in memory.
func NewMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("create memory index: %w", err)
	}
	return &Index{idx: idx}, nil
}

func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.idx.Close()
}

// Count returns the number of indexed entries.
func (ix *Index) Count() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.idx.DocCount()
}

// IndexRecords adds or replaces the given clause records.
func (ix *Index) IndexRecords(records []chunks.Record) error {
	entries := make(map[string]entry, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ChunkID)
		entries[r.ChunkID] = entry{
			Kind:       kindChunk,
			DocumentID: r.DocumentID,
			ChunkID:    r.ChunkID,
			ClauseID:   r.ClauseID,
			Title:      r.Title,
			Text:       recordText(r),
		}
	}
	return ix.batch(ids, entries)
}

// IndexScopes adds or replaces the given scope summaries.
func (ix *Index) IndexScopes(results []scope.Result) error {
	entries := make(map[string]entry, len(results))
	ids := make([]string, 0, len(results))
	for _, r := range results {
		id := scopeID(r.DocumentID)
		ids = append(ids, id)
		entries[id] = entry{
			Kind:       kindScope,
			DocumentID: r.DocumentID,
			Title:      r.DocumentTitle,
			Name:       r.DocumentName,
			Text:       r.Text(),
		}
	}
	return ix.batch(ids, entries)
}

func (ix *Index) batch(ids []string, entries map[string]entry) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	b := ix.idx.NewBatch()
	for i, id := range ids {
		if err := b.Index(id, entries[id]); err != nil {
			return fmt.Errorf("batch %s: %w", id, err)
		}
		if (i+1)%batchSize == 0 {
			if err := ix.idx.Batch(b); err != nil {
				return fmt.Errorf("index batch: %w", err)
			}
			b = ix.idx.NewBatch()
		}
	}
	if b.Size() > 0 {
		if err := ix.idx.Batch(b); err != nil {
			return fmt.Errorf("index batch: %w", err)
		}
	}
	return nil
}

func scopeID(docID string) string {
	return "scope::" + docID
}

func recordText(r chunks.Record) string {
	var sb strings.Builder
	sb.WriteString(chunks.Text("", r.Content))
	for _, t := range r.Tables {
		if t.Caption != nil {
			sb.WriteString("\n")
			sb.WriteString(*t.Caption)
		}
		for _, row := range patterns.TableCells(t.HTML) {
			sb.WriteString("\n")
			sb.WriteString(strings.Join(row, " "))
		}
	}
	for _, f := range r.Figures {
		if f.Caption != nil {
			sb.WriteString("\n")
			sb.WriteString(*f.Caption)
		}
	}
	return sb.String()
}

func termQuery(field, value string) *query.TermQuery {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

// Search returns clauses matching q, best first. A non-empty docID limits
// results to one document.
func (ix *Index) Search(q, docID string, size int) ([]Hit, error) {
	if strings.TrimSpace(q) == "" {
		return []Hit{}, nil
	}
	if size <= 0 {
		size = 10
	}
	conj := []query.Query{bleve.NewMatchQuery(q), termQuery("kind", kindChunk)}
	if docID != "" {
		conj = append(conj, termQuery("document_id", docID))
	}
	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(conj...), size, 0, false)
	req.Fields = []string{"*"}

	ix.mu.RLock()
	res, err := ix.idx.Search(req)
	ix.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{
			ChunkID:    h.ID,
			DocumentID: field(h.Fields, "document_id"),
			ClauseID:   field(h.Fields, "clause_id"),
			Title:      field(h.Fields, "title"),
			Score:      h.Score,
		})
	}
	return hits, nil
}

// Recommend ranks documents by how well their scope matches q. Candidate
// scores are normalized, turned into z-scores and nudged by the share of
// query tokens the scope contains.
func (ix *Index) Recommend(q string, topK int) ([]Recommendation, error) {
	if strings.TrimSpace(q) == "" {
		return []Recommendation{}, nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	conj := bleve.NewConjunctionQuery(bleve.NewMatchQuery(q), termQuery("kind", kindScope))
	req := bleve.NewSearchRequestOptions(conj, max(overfetch, topK), 0, false)
	req.Fields = []string{"*"}

	ix.mu.RLock()
	res, err := ix.idx.Search(req)
	ix.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}
	if len(res.Hits) == 0 {
		return []Recommendation{}, nil
	}

	sims := make([]float64, len(res.Hits))
	for i, h := range res.Hits {
		if res.MaxScore > 0 {
			sims[i] = h.Score / res.MaxScore
		}
	}
	mean, std := meanStd(sims)
	qTokens := tokens(q)

	recs := make([]Recommendation, 0, len(res.Hits))
	for i, h := range res.Hits {
		z := 0.0
		if std > 0 {
			z = (sims[i] - mean) / std
		}
		lexical := overlap(qTokens, tokens(field(h.Fields, "text")))
		recs = append(recs, Recommendation{
			DocumentID: field(h.Fields, "document_id"),
			Name:       field(h.Fields, "name"),
			Title:      field(h.Fields, "title"),
			Similarity: round4(sims[i]),
			Score:      round4(z + lexical*0.1),
		})
	}
	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(recs) > topK {
		recs = recs[:topK]
	}
	return recs, nil
}

// DeleteDocument removes every clause and the scope summary of docID.
func (ix *Index) DeleteDocument(docID string) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	count, err := ix.idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	if count == 0 {
		return 0, nil
	}
	req := bleve.NewSearchRequestOptions(termQuery("document_id", docID), int(count), 0, false)
	res, err := ix.idx.Search(req)
	if err != nil {
		return 0, fmt.Errorf("find document %s: %w", docID, err)
	}
	b := ix.idx.NewBatch()
	for _, h := range res.Hits {
		b.Delete(h.ID)
	}
	if err := ix.idx.Batch(b); err != nil {
		return 0, fmt.Errorf("delete document %s: %w", docID, err)
	}
	return len(res.Hits), nil
}

func field(fields map[string]any, name string) string {
	s, _ := fields[name].(string)
	return s
}

func tokens(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range tokenRE.FindAllString(strings.ToLower(s), -1) {
		set[t] = true
	}
	return set
}

func overlap(q, text map[string]bool) float64 {
	if len(q) == 0 {
		return 0
	}
	n := 0
	for t := range q {
		if text[t] {
			n++
		}
	}
	return float64(n) / float64(len(q))
}

func meanStd(xs []float64) (mean, std float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		std += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(std / float64(len(xs)))
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
