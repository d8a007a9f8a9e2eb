package api

import "net/http"

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"stages":      s.orchestrator.Stats().Snapshot(),
	}
	if s.deps.Index != nil {
		if n, err := s.deps.Index.Count(); err == nil {
			resp["index_entries"] = n
		}
	}
	if s.deps.Catalog != nil {
		if docs, err := s.deps.Catalog.ListDocuments(r.Context()); err == nil {
			resp["documents"] = len(docs)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
