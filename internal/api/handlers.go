package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/banshee-data/presence.report/internal/config"
	"github.com/banshee-data/presence.report/internal/db"
	"github.com/banshee-data/presence.report/internal/httputil"
	"github.com/banshee-data/presence.report/internal/scan"
)

func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	summary, err := s.db.Summary()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to compute summary: %v", err))
		return
	}
	httputil.WriteJSONOK(w, summary)
}

func (s *Server) listRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 1000 {
			httputil.BadRequest(w, "limit must be an integer between 1 and 1000")
			return
		}
		limit = v
	}

	detections, err := s.db.RecentDetections(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to query recent detections: %v", err))
		return
	}
	if detections == nil {
		detections = []db.Detection{}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"detections": detections,
		"count":      len(detections),
	})
}

func (s *Server) showTimeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	hours, ok := hoursParam(r, 24)
	if !ok {
		httputil.BadRequest(w, "hours must be a non-negative integer")
		return
	}

	devices, err := s.db.Timeline(hours)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to query timeline: %v", err))
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"devices": devices,
		"hours":   hours,
	})
}

func (s *Server) listLiveDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	devices := s.scanner.Devices()
	if devices == nil {
		devices = []scan.Device{}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"devices":   devices,
		"count":     len(devices),
		"last_pass": s.scanner.LastPass(),
		"scanning":  s.scanner.Running(),
	})
}

func (s *Server) showHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	h := s.db.Health()
	status := http.StatusOK
	if h.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, h)
}

func (s *Server) clearData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	res, err := s.db.ClearAll()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to clear data: %v", err))
		return
	}
	httputil.WriteJSONOK(w, res)
}

func (s *Server) showExportStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	hours, ok := hoursParam(r, 0)
	if !ok {
		httputil.BadRequest(w, "hours must be a non-negative integer")
		return
	}

	stats, err := s.db.ExportStats(hours)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to compute export stats: %v", err))
		return
	}
	httputil.WriteJSONOK(w, stats)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg := s.config.Current()
		httputil.WriteJSONOK(w, cfg)
	case http.MethodPost:
		var update config.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid config payload: %v", err))
			return
		}
		cfg, err := s.config.Update(&update)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, cfg)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) showDeviceStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	address := r.URL.Query().Get("address")
	if address == "" {
		httputil.BadRequest(w, "address is required")
		return
	}
	hours, ok := hoursParam(r, 24)
	if !ok {
		httputil.BadRequest(w, "hours must be a non-negative integer")
		return
	}

	stats, err := s.db.SignalStats(address, hours)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to compute device stats: %v", err))
		return
	}
	if stats.Samples == 0 {
		httputil.NotFound(w, fmt.Sprintf("no detections for %s in the last %dh", address, hours))
		return
	}
	httputil.WriteJSONOK(w, stats)
}
