package pointview

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const resultLabel = "result"

const (
	resultOK    = "ok"
	resultError = "error"
)

var (
	frames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pointview_frames",
		Help: "The number of frames rendered, by outcome.",
	}, []string{
		resultLabel,
	})

	frameLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pointview_frame_latency",
		Help:    "The time to render one frame.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)

func instrumentFrame(result string, start time.Time) {
	frames.With(prometheus.Labels{
		resultLabel: result,
	}).Inc()
	frameLatency.Observe(time.Since(start).Seconds())
}
