package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dgallion1/clausegest/internal/chunks"
	"github.com/dgallion1/clausegest/internal/extractor"
	"github.com/dgallion1/clausegest/internal/schema"
)

func (s *Server) handleMarkerRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.batch.Marker(r.Context())
	if errors.Is(err, extractor.ErrNoInput) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "no_input",
			"message":  "No PDFs found",
			"rejected": rejected(res),
		})
		return
	}
	if err != nil {
		s.log.Error("marker run failed", "error", err)
		jsonError(w, "marker failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"processed_pdfs": len(res.Processed),
		"pages":          res.Pages,
		"rejected":       rejected(res),
		"completed_dir":  res.CompletedDir,
	})
}

func rejected(res *extractor.Result) []string {
	if res == nil || res.Rejected == nil {
		return []string{}
	}
	return res.Rejected
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	files, err := s.batch.Collect()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(files) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"status": "no_files", "count": 0})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"count":      len(files),
		"files":      files,
		"output_dir": s.cfg.InputJSONDir,
	})
}

func (s *Server) handleSchemaBuild(w http.ResponseWriter, r *http.Request) {
	results, err := s.batch.Schemas(r.Context())
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(results) == 0 {
		jsonError(w, "No JSON files found", http.StatusNotFound)
		return
	}

	files := []string{}
	failed := []schema.BuildResult{}
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res)
			continue
		}
		files = append(files, filepath.Base(res.Output))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "success",
		"schemas_created": len(files),
		"files":           files,
		"failed":          failed,
	})
}

func (s *Server) handleChunksBuild(w http.ResponseWriter, r *http.Request) {
	files, err := chunks.SchemaFiles(s.cfg.SchemaDir)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(files) == 0 {
		jsonError(w, "No schema files found in "+s.cfg.SchemaDir, http.StatusNotFound)
		return
	}

	sum, err := s.batch.Chunks(r.Context())
	if err != nil {
		s.log.Error("chunk build failed", "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "success",
		"documents_chunked": len(sum.Documents),
		"documents":         sum.Documents,
		"chunks":            sum.Chunks,
		"chunks_indexed":    sum.Indexed,
		"skipped":           sum.Skipped,
	})
}

func (s *Server) handleScopeExtract(w http.ResponseWriter, r *http.Request) {
	inputs, err := schema.InputFiles(s.cfg.InputJSONDir)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(inputs) == 0 {
		jsonError(w, "No JSON files found in "+s.cfg.InputJSONDir, http.StatusNotFound)
		return
	}

	sum, err := s.batch.Scopes()
	if err != nil {
		s.log.Error("scope extraction failed", "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "success",
		"documents_processed": len(sum.Documents),
		"documents_skipped":   len(sum.Skipped),
		"processed_documents": sum.Documents,
		"skipped_documents":   sum.Skipped,
		"output_dir":          sum.OutputDir,
	})
}
