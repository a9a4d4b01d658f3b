package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/engramlabs/engram/internal/engine"
	"github.com/engramlabs/engram/internal/executor"
)

// Server is the engram HTTP API server.
type Server struct {
	eng     *engine.Engine
	exec    executor.Executor
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server. exec may be nil, in which case the execute
// routes report the side channel as unavailable.
func New(eng *engine.Engine, exec executor.Executor, version string) *Server {
	s := &Server{
		eng:     eng,
		exec:    exec,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/memories", s.handleRemember)
		r.Get("/memories/{key}", s.handleGet)
		r.Get("/memories/{key}/verify", s.handleVerify)
		r.Get("/memories/{key}/links", s.handleGetLinks)
		r.Post("/memories/{key}/links", s.handleAddLink)

		r.Get("/search", s.handleSearch)
		r.Get("/hotset", s.handleHotSet)
		r.Get("/stats", s.handleStats)
		r.Post("/rebalance", s.handleRebalance)

		r.Post("/execute", s.handleExecute)
		r.Get("/executions", s.handleListExecutions)
		r.Get("/executions/{id}", s.handleGetExecution)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	db := s.eng.DB()
	dbOK := db.Ping() == nil

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": db.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
