package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

type Metrics struct {
	FetchAttemptsTotal  *prometheus.CounterVec
	MapLinkSourceTotal  *prometheus.CounterVec
	PhotoSourceTotal    *prometheus.CounterVec
	PlanRetrievalsTotal *prometheus.CounterVec
	RelayRequestsTotal  *prometheus.CounterVec
	RelayCacheHitsTotal prometheus.Counter
	EnrichmentDuration  prometheus.Histogram
	ActivitiesEnriched  prometheus.Counter
}

// Get returns the process-wide metrics, registering them on first use.
//
// Metrics:
//   - travelplan_fetch_attempts_total{target,outcome}
//   - travelplan_map_link_source_total{source}
//   - travelplan_photo_source_total{source}
//   - travelplan_plan_retrievals_total{outcome}
//   - travelplan_places_relay_requests_total{operation,outcome}
//   - travelplan_places_relay_cache_hits_total
//   - travelplan_enrichment_duration_seconds
//   - travelplan_activities_enriched_total
func Get() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			FetchAttemptsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "travelplan_fetch_attempts_total",
					Help: "HTTP fetch attempts made by the retrying fetcher",
				},
				[]string{"target", "outcome"}, // outcome: "success" or "failure"
			),
			MapLinkSourceTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "travelplan_map_link_source_total",
					Help: "Where each enriched activity's map link came from",
				},
				[]string{"source"}, // "existing", "directory", "synthesized"
			),
			PhotoSourceTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "travelplan_photo_source_total",
					Help: "Where each enriched activity's photo came from",
				},
				[]string{"source"}, // "directory", "reference", "stock"
			),
			PlanRetrievalsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "travelplan_plan_retrievals_total",
					Help: "Finished plan retrievals by outcome",
				},
				[]string{"outcome"}, // "ready", "failed", "superseded"
			),
			RelayRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "travelplan_places_relay_requests_total",
					Help: "Requests handled by the places relay",
				},
				[]string{"operation", "outcome"},
			),
			RelayCacheHitsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "travelplan_places_relay_cache_hits_total",
					Help: "Places relay responses served from cache",
				},
			),
			EnrichmentDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "travelplan_enrichment_duration_seconds",
					Help:    "Wall time to enrich one itinerary",
					Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
				},
			),
			ActivitiesEnriched: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "travelplan_activities_enriched_total",
					Help: "Activities passed through the enrichment pipeline",
				},
			),
		}
	})
	return globalMetrics
}
