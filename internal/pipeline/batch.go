package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dgallion1/clausegest/internal/catalog"
	"github.com/dgallion1/clausegest/internal/chunks"
	"github.com/dgallion1/clausegest/internal/config"
	"github.com/dgallion1/clausegest/internal/extractor"
	"github.com/dgallion1/clausegest/internal/schema"
	"github.com/dgallion1/clausegest/internal/scope"
)

// PathsFrom returns the worker output directories named by cfg.
func PathsFrom(cfg config.Config) Paths {
	return Paths{
		InputJSONDir: cfg.InputJSONDir,
		SchemaDir:    cfg.SchemaDir,
		ChunkDir:     cfg.ChunkDir,
		ScopeDir:     cfg.ScopeDir,
	}
}

// Batch runs the directory-oriented stages over the configured data
// layout. Each stage reads the previous stage's output directory.
type Batch struct {
	Cfg  config.Config
	Deps Deps
	Log  *slog.Logger

	// Runner overrides the extractor used by Marker, for tests.
	Runner *extractor.Runner
}

// NewBatch creates a batch runner sharing deps with the ingest workers.
func NewBatch(cfg config.Config, deps Deps, log *slog.Logger) *Batch {
	if deps.Stats == nil {
		deps.Stats = NewStageStats(cfg.StatsAge)
	}
	return &Batch{Cfg: cfg, Deps: deps, Log: log}
}

// ChunkSummary reports a chunk-stage run.
type ChunkSummary struct {
	Documents []string `json:"documents"`
	Skipped   []string `json:"skipped"`
	Chunks    int      `json:"chunks"`
	Indexed   int      `json:"indexed"`
}

// ScopeSummary reports a scope-stage run.
type ScopeSummary struct {
	Documents []string `json:"documents"`
	Skipped   []string `json:"skipped"`
	OutputDir string   `json:"output_dir"`
}

// Marker runs the external PDF extractor over the input PDF directory.
func (b *Batch) Marker(ctx context.Context) (*extractor.Result, error) {
	r := b.Runner
	if r == nil {
		r = &extractor.Runner{
			Binary:       b.Cfg.MarkerBinary,
			Workers:      b.Cfg.MarkerWorkers,
			InputDir:     b.Cfg.InputPDFDir,
			OutputDir:    b.Cfg.MarkerJSONDir,
			CompletedDir: b.Cfg.CompletedDir,
			RejectedDir:  b.Cfg.RejectedDir,
			Log:          b.Log,
		}
	}
	return r.Run(ctx)
}

// Collect gathers extractor JSON files into the input JSON directory.
func (b *Batch) Collect() ([]string, error) {
	return extractor.Collect(b.Cfg.MarkerJSONDir, b.Cfg.InputJSONDir)
}

// Schemas converts every collected block tree into a schema document.
func (b *Batch) Schemas(ctx context.Context) ([]schema.BuildResult, error) {
	inputs, err := schema.InputFiles(b.Cfg.InputJSONDir)
	if err != nil {
		return nil, fmt.Errorf("list inputs: %w", err)
	}
	opts := schema.BuildOptions{
		OutputDir: b.Cfg.SchemaDir,
		Images:    b.Deps.Images,
		Workers:   b.Cfg.MaxConcurrentConvert,
		Log:       b.Log,
	}
	if b.Deps.Validator != nil {
		opts.Validate = b.Deps.Validator.Validate
	}
	var results []schema.BuildResult
	b.Deps.Stats.Time(StageConvert, func() error {
		results = schema.BuildAll(ctx, inputs, opts)
		return nil
	})
	return results, nil
}

// Chunks writes chunk files for every schema, then stores and indexes
// them. Catalog or index failures abort the run.
func (b *Batch) Chunks(ctx context.Context) (ChunkSummary, error) {
	var res chunks.DirResult
	err := b.Deps.Stats.Time(StageChunk, func() error {
		var err error
		res, err = chunks.BuildDir(b.Cfg.SchemaDir, b.Cfg.ChunkDir, b.Log)
		return err
	})
	sum := ChunkSummary{
		Documents: orEmpty(res.DocumentIDs()),
		Skipped:   orEmpty(res.Skipped),
		Chunks:    res.Chunks,
	}
	if err != nil {
		return sum, err
	}

	err = b.Deps.Stats.Time(StageIndex, func() error {
		for _, d := range res.Documents {
			if err := b.store(ctx, d); err != nil {
				return fmt.Errorf("store %s: %w", d.DocumentID, err)
			}
			sum.Indexed += len(d.Records)
		}
		return nil
	})
	return sum, err
}

func (b *Batch) store(ctx context.Context, d chunks.DocumentRecords) error {
	if b.Deps.Catalog != nil {
		entry := catalog.Document{
			DocumentID: d.DocumentID,
			Statistics: schema.Statistics{
				TotalClauses: len(d.Records),
				TotalChunks:  len(d.Records),
			},
		}
		if prev, err := b.Deps.Catalog.GetDocument(ctx, d.DocumentID); err == nil {
			entry.Source, entry.ContentHash, entry.Statistics = prev.Source, prev.ContentHash, prev.Statistics
		}
		if err := b.Deps.Catalog.PutDocument(ctx, entry, d.Records); err != nil {
			return err
		}
	}
	if b.Deps.Index != nil {
		if _, err := b.Deps.Index.DeleteDocument(d.DocumentID); err != nil {
			return err
		}
		return b.Deps.Index.IndexRecords(d.Records)
	}
	return nil
}

// Scopes extracts scope statements from every collected block tree and
// indexes them for recommendation.
func (b *Batch) Scopes() (ScopeSummary, error) {
	var res scope.DirResult
	err := b.Deps.Stats.Time(StageScope, func() error {
		var err error
		res, err = scope.ExtractDir(b.Cfg.InputJSONDir, b.Cfg.ScopeDir, b.Log)
		if err != nil {
			return err
		}
		if b.Deps.Index != nil && len(res.Processed) > 0 {
			return b.Deps.Index.IndexScopes(res.Processed)
		}
		return nil
	})
	return ScopeSummary{
		Documents: orEmpty(res.ProcessedIDs()),
		Skipped:   orEmpty(res.Skipped),
		OutputDir: b.Cfg.ScopeDir,
	}, err
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ReindexSummary reports a rebuilt search index.
type ReindexSummary struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
	Scopes    int `json:"scopes"`
}

// Reindex rebuilds the search index from the catalog and the saved scope
// files.
func (b *Batch) Reindex(ctx context.Context) (ReindexSummary, error) {
	var sum ReindexSummary
	if b.Deps.Catalog == nil || b.Deps.Index == nil {
		return sum, fmt.Errorf("reindex needs both catalog and index")
	}
	err := b.Deps.Stats.Time(StageIndex, func() error {
		docs, err := b.Deps.Catalog.ListDocuments(ctx)
		if err != nil {
			return err
		}
		for _, d := range docs {
			records, err := b.Deps.Catalog.ListChunks(ctx, d.DocumentID)
			if err != nil {
				return err
			}
			if _, err := b.Deps.Index.DeleteDocument(d.DocumentID); err != nil {
				return err
			}
			if err := b.Deps.Index.IndexRecords(records); err != nil {
				return err
			}
			sum.Documents++
			sum.Chunks += len(records)
		}

		files, err := filepath.Glob(filepath.Join(b.Cfg.ScopeDir, "*"+scope.Suffix))
		if err != nil {
			return err
		}
		var results []scope.Result
		for _, f := range files {
			r, err := scope.Load(f)
			if err != nil {
				b.Log.Warn("skipping unreadable scope", "file", f, "error", err)
				continue
			}
			results = append(results, r)
		}
		if len(results) > 0 {
			if err := b.Deps.Index.IndexScopes(results); err != nil {
				return err
			}
		}
		sum.Scopes = len(results)
		return nil
	})
	return sum, err
}
