package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/dgallion1/clausegest/internal/catalog"
	"github.com/dgallion1/clausegest/internal/export"
	"github.com/go-chi/chi/v5"
)

func (s *Server) catalogReady(w http.ResponseWriter) bool {
	if s.deps.Catalog == nil {
		jsonError(w, "catalog unavailable", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// handleListDocuments lists every cataloged document.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if !s.catalogReady(w) {
		return
	}
	docs, err := s.deps.Catalog.ListDocuments(r.Context())
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	if !s.catalogReady(w) {
		return
	}
	docID := chi.URLParam(r, "docID")
	records, err := s.deps.Catalog.ListChunks(r.Context(), docID)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(records) == 0 {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": docID,
		"chunks":      records,
	})
}

func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	if !s.catalogReady(w) {
		return
	}
	rec, err := s.deps.Catalog.GetChunk(r.Context(), chi.URLParam(r, "chunkID"))
	if errors.Is(err, catalog.ErrNotFound) {
		jsonError(w, "chunk not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDeleteDocument removes a document from every store.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	res, err := s.deps.Remove(r.Context(), docID)
	if errors.Is(err, catalog.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("delete failed", "doc_id", docID, "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if !s.catalogReady(w) {
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	docID := chi.URLParam(r, "docID")
	records, err := s.deps.Catalog.ListChunks(r.Context(), docID)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(records) == 0 {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	// Render fully before writing headers so errors still map to a status.
	var buf bytes.Buffer
	if err := export.Write(&buf, format, docID, records); err != nil {
		s.log.Error("export failed", "doc_id", docID, "format", format, "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(docID)))
	w.Write(buf.Bytes())
}
