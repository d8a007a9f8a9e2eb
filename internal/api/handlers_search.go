package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgallion1/clausegest/internal/search"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Index == nil {
		jsonError(w, "search index unavailable", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}
	size := 10
	if v := r.URL.Query().Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			size = n
		}
	}
	hits, err := s.deps.Index.Search(q, r.URL.Query().Get("doc_id"), size)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "hits": hits})
}

type recommendRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if s.deps.Index == nil {
		jsonError(w, "search index unavailable", http.StatusServiceUnavailable)
		return
	}
	var req recommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}
	if req.TopK <= 0 {
		req.TopK = search.DefaultTopK
	}
	recs, err := s.deps.Index.Recommend(req.Query, req.TopK)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
