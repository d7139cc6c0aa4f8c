package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/morezaGeek/Server-Monitor/internal/telemetry"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Sessions int    `json:"sessions"`
}

// HistoryResponse is the body of GET /api/stats/history.
type HistoryResponse struct {
	Interval string             `json:"interval"`
	Samples  []telemetry.Sample `json:"samples"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Sessions: s.gw.Active(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.sampler == nil {
		writeError(w, http.StatusNotFound, "telemetry_disabled", "Telemetry is disabled")
		return
	}
	sample, ok := s.sampler.History().Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no_samples", "No samples collected yet")
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.sampler == nil {
		writeError(w, http.StatusNotFound, "telemetry_disabled", "Telemetry is disabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	samples := s.sampler.History().Last(limit)
	if samples == nil {
		samples = []telemetry.Sample{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{
		Interval: s.cfg.Telemetry.Interval.String(),
		Samples:  samples,
	})
}

func (s *Server) handleInterfaces(w http.ResponseWriter, r *http.Request) {
	if s.sampler == nil {
		writeError(w, http.StatusNotFound, "telemetry_disabled", "Telemetry is disabled")
		return
	}
	list, err := s.sampler.Interfaces()
	if err != nil {
		s.log.Warn("failed to list interfaces: %v", err)
		writeError(w, http.StatusInternalServerError, "interfaces_unavailable", "Failed to list network interfaces")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
