package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/presence.report/internal/httputil"
)

// timelineChart renders a quick RSSI-over-time line chart (HTML) using
// go-echarts. This is a debugging-only endpoint to eyeball device
// activity without a frontend build.
// Query params:
//   - hours (optional; default 24)
func (s *Server) timelineChart(w http.ResponseWriter, r *http.Request) {
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

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Device Timeline", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Device RSSI Timeline", Subtitle: fmt.Sprintf("window=%dh devices=%d", hours, len(devices))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time", Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "RSSI (dBm)"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	for _, d := range devices {
		data := make([]opts.LineData, 0, len(d.Detections))
		for _, p := range d.Detections {
			data = append(data, opts.LineData{Value: []interface{}{p.ObservedAt.Format(time.RFC3339), p.RSSI}})
		}
		label := d.Name
		if label == "" {
			label = d.Address
		}
		line.AddSeries(label, data)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
