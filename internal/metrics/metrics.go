// Package metrics registers the service's Prometheus collectors on the default
// registry, which the metrics router exposes via promhttp.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MikeSquared-Agency/Carpool/internal/matching"
)

var (
	Evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carpool",
		Name:      "evaluations_total",
		Help:      "Engine evaluations by kind and outcome.",
	}, []string{"kind", "outcome"})

	MatchesReturned = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "carpool",
		Name:      "matches_returned",
		Help:      "Number of candidates returned per evaluation.",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	}, []string{"kind"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carpool",
		Name:      "pool_cache_lookups_total",
		Help:      "Directory pool cache lookups by result.",
	}, []string{"result"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carpool",
		Name:      "events_published_total",
		Help:      "Hermes publishes by event type and outcome.",
	}, []string{"event", "outcome"})
)

// ObserveEvaluation records the result of one engine call.
func ObserveEvaluation(kind string, matches int, err error) {
	switch {
	case err == nil:
		Evaluations.WithLabelValues(kind, "ok").Inc()
		MatchesReturned.WithLabelValues(kind).Observe(float64(matches))
	case errors.Is(err, matching.ErrValidation):
		Evaluations.WithLabelValues(kind, "invalid").Inc()
	default:
		Evaluations.WithLabelValues(kind, "error").Inc()
	}
}
