package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/clausegest/internal/config"
	"github.com/dgallion1/clausegest/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for clausegest.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	batch        *pipeline.Batch
	deps         pipeline.Deps
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. The batch runner
// shares the orchestrator's stores.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	deps := orch.Deps()
	s := &Server{
		orchestrator: orch,
		batch:        pipeline.NewBatch(cfg, deps, log),
		deps:         deps,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/marker/run", s.handleMarkerRun)
		r.Post("/api/collect/json", s.handleCollect)
		r.Post("/api/schema/build", s.handleSchemaBuild)
		r.Post("/api/chunks/build", s.handleChunksBuild)
		r.Post("/api/scope/extract", s.handleScopeExtract)

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}/chunks", s.handleListChunks)
		r.Get("/api/documents/{docID}/export", s.handleExport)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
		r.Get("/api/chunks/{chunkID}", s.handleGetChunk)

		r.Get("/api/search", s.handleSearch)
		r.Post("/api/recommend", s.handleRecommend)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
