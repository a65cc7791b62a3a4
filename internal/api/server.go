package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/presence.report/internal/config"
	"github.com/banshee-data/presence.report/internal/db"
	"github.com/banshee-data/presence.report/internal/monitoring"
	"github.com/banshee-data/presence.report/internal/scan"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db      *db.DB
	scanner *scan.Scanner
	config  *config.Manager
}

func NewServer(database *db.DB, scanner *scan.Scanner, cfgMgr *config.Manager) *Server {
	return &Server{
		db:      database,
		scanner: scanner,
		config:  cfgMgr,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/summary", s.showSummary)
	mux.HandleFunc("/api/recent", s.listRecent)
	mux.HandleFunc("/api/timeline", s.showTimeline)
	mux.HandleFunc("/api/devices", s.listLiveDevices)
	mux.HandleFunc("/api/health", s.showHealth)
	mux.HandleFunc("/api/clear-data", s.clearData)
	mux.HandleFunc("/api/export-stats", s.showExportStats)
	mux.HandleFunc("/api/export-csv", s.exportCSV)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/device-stats", s.showDeviceStats)
	mux.HandleFunc("/api/stream", s.streamDevices)
	mux.HandleFunc("/charts/timeline", s.timelineChart)
	return mux
}

// hoursParam parses an optional ?hours= query value. Absent or empty
// yields def; a non-integer or negative value is reported as not ok.
func hoursParam(r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("hours")
	if raw == "" {
		return def, true
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 0 {
		return 0, false
	}
	return hours, true
}
