// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors. Constructed once at
// startup and injected; no package-level registry state.
type Metrics struct {
	IngestTotal      *prometheus.CounterVec
	FetchDegraded    prometheus.Counter
	AnalysisBySource *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	RepliesTotal     *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer
// in production; tests use a throwaway registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		IngestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linksaver",
			Name:      "ingest_total",
			Help:      "Article save attempts by outcome (created, duplicate, error).",
		}, []string{"outcome"}),

		FetchDegraded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "linksaver",
			Name:      "fetch_degraded_total",
			Help:      "Fetches that fell back to a degraded URL-derived record.",
		}),

		AnalysisBySource: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linksaver",
			Name:      "analysis_total",
			Help:      "Analyses by source (llm, fallback).",
		}, []string{"source"}),

		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "linksaver",
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end duration of one URL's ingestion.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),

		RepliesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linksaver",
			Name:      "replies_total",
			Help:      "Chat replies by kind (created, duplicate, error, help).",
		}, []string{"kind"}),
	}
}
