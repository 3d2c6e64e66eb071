package raytrace

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const resultLabel = "result"

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

var (
	traces = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "raytrace_traces",
		Help: "The number of rays traced, by outcome.",
	}, []string{
		resultLabel,
	})

	tileCrossings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raytrace_tile_crossings",
		Help: "The number of times a ray left one tile for another.",
	})

	unresolvedLeaves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raytrace_unresolved_leaves",
		Help: "Leaves where the ray exits below every corner without a triangle hit.",
	})
)

func instrumentTrace(hit bool, err error) {
	result := resultMiss
	switch {
	case err != nil:
		result = resultError
	case hit:
		result = resultHit
	}
	traces.With(prometheus.Labels{
		resultLabel: result,
	}).Inc()
}
