// Package metrics exposes Prometheus instruments for the capture pipeline
// and the MJPEG stream.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Skip reasons recorded on FramesSkipped.
const (
	SkipRegionTooSmall = "region_too_small"
)

var (
	FramesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cubeface_frames_processed_total",
		Help: "Frames run through the grid, smoothing and classification stages",
	})

	FramesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cubeface_frames_skipped_total",
		Help: "Frames dropped before publishing, by reason",
	}, []string{"reason"})

	EncodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cubeface_encode_failures_total",
		Help: "Annotated frames that could not be JPEG encoded",
	})

	ProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cubeface_frame_process_duration_seconds",
		Help:    "Time from frame acquisition to snapshot publish and encode",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	CenterCategory = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cubeface_center_category",
		Help: "1 for the category currently assigned to the center sticker, 0 otherwise",
	}, []string{"category"})

	StreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cubeface_stream_clients",
		Help: "Connected MJPEG viewers",
	})

	StreamDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cubeface_stream_frames_dropped_total",
		Help: "Encoded frames overwritten before a viewer consumed them",
	})
)

// SetCenterCategory marks current as the active category among all names.
func SetCenterCategory(current string, all []string) {
	for _, name := range all {
		v := 0.0
		if name == current {
			v = 1
		}
		CenterCategory.WithLabelValues(name).Set(v)
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
