package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/engramlabs/engram/internal/engine"
	"github.com/engramlabs/engram/internal/store"
)

func (s *Server) handleRemember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key      string          `json:"key"`
		Value    json.RawMessage `json:"value"`
		Type     string          `json:"type"`
		Metadata json.RawMessage `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Key == "" {
		writeError(w, http.StatusBadRequest, "key required")
		return
	}
	if len(req.Value) == 0 {
		writeError(w, http.StatusBadRequest, "value required")
		return
	}

	rec, err := s.eng.Remember(req.Key, req.Value, req.Type, req.Metadata)
	if err != nil {
		// Write-path failures are real errors, never swallowed.
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	rec := s.eng.Get(key)
	if rec == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	valid, err := s.eng.Verify(key)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"key":   key,
		"valid": valid,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 0)

	results := s.eng.Recall(query, limit)
	if results == nil {
		results = []engine.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
	})
}

func (s *Server) handleHotSet(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)

	records, err := s.eng.HotSet(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.eng.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	changed, err := s.eng.Rebalance()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"changed": changed,
	})
}

func (s *Server) handleAddLink(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "key")

	var req struct {
		Target   string  `json:"target"`
		Rel      string  `json:"rel"`
		Strength float64 `json:"strength"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Target == "" || req.Rel == "" {
		writeError(w, http.StatusBadRequest, "target and rel required")
		return
	}

	if err := s.eng.Link(source, req.Target, req.Rel, req.Strength); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (s *Server) handleGetLinks(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	outgoing, incoming, err := s.eng.Links(key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"key":      key,
		"outgoing": outgoing,
		"incoming": incoming,
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if s.exec == nil {
		writeError(w, http.StatusServiceUnavailable, "executor not configured")
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}

	res, err := s.exec.Execute(r.Context(), req.Code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := store.ExecCompleted
	if res.TimedOut {
		status = store.ExecTimeout
	} else if res.ExitCode != 0 {
		status = store.ExecFailed
	}

	entry := &store.Execution{
		Code:       req.Code,
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		ExitCode:   res.ExitCode,
		DurationMS: res.Duration.Milliseconds(),
		Status:     status,
	}
	if err := s.eng.DB().InsertExecution(entry); err != nil {
		log.Printf("execute: record result: %v", err)
	}

	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)

	execs, err := s.eng.DB().RecentExecutions(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(execs),
		"executions": execs,
	})
}

func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	e, err := s.eng.DB().GetExecution(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if e == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
