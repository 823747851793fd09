package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pingdash/internal/logging"
	"pingdash/internal/models"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warnf("Failed to encode response: %v", err)
	}
}

// intParam reads a positive integer query parameter, falling back to def.
func intParam(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

// handleLive handles /api/live requests
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	status := s.live.Load()
	if status == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, status)
}

// handleRecent handles /api/recent requests
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	results, err := s.store.GetRecent(intParam(r, "hours", 24))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, results)
}

// handleStats handles /api/stats requests
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(intParam(r, "hours", 24))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

// handleOutages handles /api/outages requests
func (s *Server) handleOutages(w http.ResponseWriter, r *http.Request) {
	outages, err := s.store.GetOutages(intParam(r, "days", 7))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, outages)
}

// handleHourly handles /api/hourly requests. target is required.
func (s *Server) handleHourly(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	if target == "" {
		http.Error(w, "target is required", http.StatusBadRequest)
		return
	}
	hourly, err := s.store.HourlyStats(target)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if hourly == nil {
		hourly = []models.HourlyStat{}
	}
	writeJSON(w, hourly)
}

func (s *Server) handleSpeedTests(w http.ResponseWriter, r *http.Request) {
	tests, err := s.store.GetSpeedTests(intParam(r, "limit", 20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, tests)
}

func (s *Server) handlePortScans(w http.ResponseWriter, r *http.Request) {
	scans, err := s.store.GetPortScans(intParam(r, "limit", 100))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, scans)
}
