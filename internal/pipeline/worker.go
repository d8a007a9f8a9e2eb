package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/clausegest/internal/block"
	"github.com/dgallion1/clausegest/internal/catalog"
	"github.com/dgallion1/clausegest/internal/chunks"
	"github.com/dgallion1/clausegest/internal/imagestore"
	"github.com/dgallion1/clausegest/internal/schema"
	"github.com/dgallion1/clausegest/internal/scope"
	"github.com/dgallion1/clausegest/internal/search"
	"github.com/dgallion1/clausegest/internal/validate"
)

// Paths are the output directories a worker writes to.
type Paths struct {
	InputJSONDir string
	SchemaDir    string
	ChunkDir     string
	ScopeDir     string
}

// Deps are the stores shared by all workers. Validator, Catalog and Index
// may be nil, which skips the matching step.
type Deps struct {
	Images    *imagestore.FS
	Validator *validate.Validator
	Catalog   *catalog.Store
	Index     *search.Index
	Stats     *StageStats
	Paths     Paths
}

// Worker processes a single document job.
type Worker struct {
	deps Deps
	log  *slog.Logger
}

func NewWorker(deps Deps, log *slog.Logger) *Worker {
	if deps.Stats == nil {
		deps.Stats = NewStageStats(0)
	}
	return &Worker{deps: deps, log: log}
}

// Process runs convert, chunk, index and scope extraction for a job.
// Failures before chunks are written fail the job; later failures leave
// it partial.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)
	data := job.FileData()
	defer job.releaseData()

	// Phase 1: Decode
	job.SetStatus(StatusConverting, "decoding")
	tree, err := block.Decode(bytes.NewReader(data))
	if err != nil {
		w.fail(log, job, "decoding", fmt.Errorf("decode: %w", err))
		return
	}

	hash := catalog.ContentHash(data)
	job.SetContentHash(hash)

	// Phase 1.5: Dedup check
	if !job.Force && w.deps.Catalog != nil {
		existing, err := w.deps.Catalog.FindByHash(ctx, hash)
		switch {
		case err == nil:
			log.Info("duplicate document, skipping", "existing_doc_id", existing)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		case !errors.Is(err, catalog.ErrNotFound):
			log.Warn("dedup check failed, proceeding", "error", err)
		}
	}
	if err := ctx.Err(); err != nil {
		w.fail(log, job, "decoding", err)
		return
	}

	if dir := w.deps.Paths.InputJSONDir; dir != "" && job.Filename != "" {
		if err := saveInput(dir, job.DocID, data); err != nil {
			log.Warn("keeping input copy failed", "error", err)
		}
	}

	// Phase 2: Convert
	job.SetStatus(StatusConverting, "converting")
	var doc *schema.Document
	err = w.deps.Stats.Time(StageConvert, func() error {
		var err error
		doc, err = w.convert(tree, job.DocID, log)
		return err
	})
	if err != nil {
		w.fail(log, job, "converting", err)
		return
	}
	job.SetStatistics(doc.Statistics)
	log.Info("schema written", "clauses", doc.Statistics.TotalClauses, "images", doc.Statistics.TotalImages)

	// Phase 3: Chunk
	job.SetStatus(StatusChunking, "chunking")
	var records []chunks.Record
	err = w.deps.Stats.Time(StageChunk, func() error {
		if err := os.RemoveAll(filepath.Join(w.deps.Paths.ChunkDir, job.DocID)); err != nil {
			return fmt.Errorf("clear chunks: %w", err)
		}
		if len(doc.Chunks) == 0 {
			log.Warn("no clauses found, cataloging zero statistics")
			return nil
		}
		var err error
		records, err = chunks.Build(doc)
		if err != nil {
			return err
		}
		_, err = chunks.WriteAll(w.deps.Paths.ChunkDir, records)
		return err
	})
	if err != nil {
		w.fail(log, job, "chunking", err)
		return
	}

	// Phase 4: Catalog, index and scope
	job.SetStatus(StatusIndexing, "indexing")
	hadErrors := false
	indexed := 0
	err = w.deps.Stats.Time(StageIndex, func() error {
		return w.store(ctx, job, hash, doc, records)
	})
	if err != nil {
		log.Error("indexing failed", "error", err)
		job.AddError(fmt.Sprintf("index: %s", err))
		hadErrors = true
	} else {
		indexed = len(records)
	}

	found := false
	err = w.deps.Stats.Time(StageScope, func() error {
		res := scope.Extract(tree, job.DocID)
		if res.Empty() {
			return nil
		}
		found = true
		if _, err := scope.Save(w.deps.Paths.ScopeDir, res); err != nil {
			return err
		}
		if w.deps.Index != nil {
			return w.deps.Index.IndexScopes([]scope.Result{res})
		}
		return nil
	})
	if err != nil {
		log.Error("scope extraction failed", "error", err)
		job.AddError(fmt.Sprintf("scope: %s", err))
		hadErrors = true
	}
	job.SetIndexed(indexed, found)

	if hadErrors {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("document processed", "chunks", len(records), "scope", found)
}

func (w *Worker) convert(tree *block.Document, docID string, log *slog.Logger) (*schema.Document, error) {
	if err := w.deps.Images.RemoveDocument(docID); err != nil {
		return nil, fmt.Errorf("clear images: %w", err)
	}
	doc := schema.Convert(tree, docID, w.deps.Images, log)
	data, err := schema.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if w.deps.Validator != nil {
		if err := w.deps.Validator.Validate(data); err != nil {
			return nil, err
		}
	}
	if _, err := schema.WriteDocument(w.deps.Paths.SchemaDir, docID, data); err != nil {
		return nil, err
	}
	return doc, nil
}

func (w *Worker) store(ctx context.Context, job *Job, hash string, doc *schema.Document, records []chunks.Record) error {
	if w.deps.Catalog != nil {
		entry := catalog.Document{
			DocumentID:  job.DocID,
			Source:      job.Filename,
			ContentHash: hash,
			Statistics:  doc.Statistics,
		}
		if err := w.deps.Catalog.PutDocument(ctx, entry, records); err != nil {
			return err
		}
	}
	if w.deps.Index != nil {
		if _, err := w.deps.Index.DeleteDocument(job.DocID); err != nil {
			return err
		}
		if err := w.deps.Index.IndexRecords(records); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase string, err error) {
	log.Error("job failed", "phase", phase, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}

func saveInput(dir, docID string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, docID+".json"), data, 0o644)
}
