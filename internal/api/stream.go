package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/banshee-data/presence.report/internal/httputil"
	"github.com/banshee-data/presence.report/internal/monitoring"
)

// streamDevices pushes live device snapshots over server-sent events.
// Each event carries the full current device list; the pace follows the
// scanner's publish interval.
func (s *Server) streamDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.InternalServerError(w, "streaming unsupported")
		return
	}

	id, ch := s.scanner.Subscribe()
	defer s.scanner.Unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// First event is the current state so clients render immediately.
	if err := writeSSE(w, s.scanner.Devices()); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSSE(w, snapshot); err != nil {
				monitoring.Logf("sse write failed, dropping client: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: devices\ndata: %s\n\n", data)
	return err
}
