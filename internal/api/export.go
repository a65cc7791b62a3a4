package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/presence.report/internal/httputil"
	"github.com/banshee-data/presence.report/internal/monitoring"
)

var csvHeader = []string{"id", "address", "name", "rssi", "device_type", "observed_at"}

// exportCSV streams detections as a CSV attachment. ?hours= bounds the
// window; absent or zero exports the whole table.
func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	hours, ok := hoursParam(r, 0)
	if !ok {
		httputil.BadRequest(w, "hours must be a non-negative integer")
		return
	}

	detections, err := s.db.ExportDetections(hours)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to query detections for export: %v", err))
		return
	}

	filename := fmt.Sprintf("detections-%s.csv", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		monitoring.Logf("failed to write csv header: %v", err)
		return
	}
	for _, d := range detections {
		record := []string{
			strconv.FormatInt(d.ID, 10),
			d.Address,
			d.Name,
			strconv.Itoa(d.RSSI),
			d.DeviceType,
			d.ObservedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			monitoring.Logf("failed to write csv record: %v", err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		monitoring.Logf("failed to flush csv export: %v", err)
	}
}
