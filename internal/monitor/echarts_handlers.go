package monitor

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handleVelocityChart renders a quick HTML chart of recent gesture peak
// velocities and confidences using go-echarts. Debugging-only endpoint
// (no auth) for eyeballing threshold tuning against live traces.
// Query params:
//   - limit (optional; default 100, max 1000)
func (ws *WebServer) handleVelocityChart(w http.ResponseWriter, r *http.Request) {
	if ws.db == nil {
		http.Error(w, "event log disabled", http.StatusNotFound)
		return
	}

	gestures, err := ws.db.RecentGestures(ws.limit(r))
	if err != nil {
		http.Error(w, "Failed to retrieve gestures: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Oldest first so the x axis reads left to right in time.
	labels := make([]string, 0, len(gestures))
	velocities := make([]opts.LineData, 0, len(gestures))
	confidences := make([]opts.LineData, 0, len(gestures))
	for i := len(gestures) - 1; i >= 0; i-- {
		g := gestures[i]
		labels = append(labels, g.RecordedAt.Format("15:04:05"))
		velocities = append(velocities, opts.LineData{Value: g.PeakVelocity})
		confidences = append(confidences, opts.LineData{Value: g.Confidence * 100})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Gesture Velocity", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Gesture Peak Velocity", Subtitle: fmt.Sprintf("last %d gestures", len(gestures))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "px/s"}),
	)
	line.SetXAxis(labels).
		AddSeries("peak velocity (px/s)", velocities).
		AddSeries("confidence (%)", confidences)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		http.Error(w, "Failed to render chart: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
