package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	tubelens "github.com/tubelens/tubelens"
	"github.com/tubelens/tubelens/providers"
)

// handlers holds the dependencies for all HTTP handlers.
type handlers struct {
	analyzer *tubelens.Analyzer
	registry *providers.Registry
}

// analyze returns a handler for one analysis operation. The operation comes
// from the route, never the body, so /v1/keywords cannot be coerced into a
// different op.
func (h *handlers) analyze(op tubelens.Op) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tubelens.AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
		req.Op = op

		res, err := h.analyzer.Analyze(r.Context(), req)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, tubelens.ErrInvalidRequest) {
				status = http.StatusBadRequest
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// health reports per-cache-tier reachability and session counts. It is
// read-only: no cleanup or other mutation happens here.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	cacheHealth := h.analyzer.Cache().HealthCheck(r.Context())
	stats := h.analyzer.Sessions().GetStats()

	// A down tier degrades the cache but not the service: still 200.
	status := "ok"
	for _, ok := range cacheHealth.Tiers {
		if !ok {
			status = "degraded"
			break
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   status,
		"cache":    cacheHealth,
		"sessions": stats,
	})
}

func (h *handlers) listModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   h.registry.Models(),
	})
}

func (h *handlers) clearCache(w http.ResponseWriter, r *http.Request) {
	h.analyzer.Cache().Clear(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

func (h *handlers) listSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": h.analyzer.Sessions().List(),
	})
}

func (h *handlers) sessionStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.analyzer.Sessions().GetStats())
}

func (h *handlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.analyzer.Sessions().Remove(id) {
		writeError(w, http.StatusNotFound, "session not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": id})
}

func (h *handlers) clearSessions(w http.ResponseWriter, _ *http.Request) {
	n := h.analyzer.Sessions().Clear()
	writeJSON(w, http.StatusOK, map[string]any{"removed": n})
}

func (h *handlers) cleanupSessions(w http.ResponseWriter, _ *http.Request) {
	n := h.analyzer.Sessions().CleanupExpired()
	writeJSON(w, http.StatusOK, map[string]any{"removed": n})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": message},
	})
}
