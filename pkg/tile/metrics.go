package tile

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const resultLabel = "result"

const (
	resultOK        = "ok"
	resultMissing   = "missing"
	resultMalformed = "malformed"
	resultError     = "error"
)

var (
	tileLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tile_loads",
		Help: "The number of tiles loaded, by outcome.",
	}, []string{
		resultLabel,
	})

	tileLoadLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "tile_load_latency",
		Help: "The time to read and decode a tile.",
	})

	tilesIndexed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tiles_indexed",
		Help: "The number of tiles known to tile indexes.",
	})
)

func instrumentTileLoad(result string, start time.Time) {
	tileLoads.With(prometheus.Labels{
		resultLabel: result,
	}).Inc()
	tileLoadLatency.Observe(time.Since(start).Seconds())
}
