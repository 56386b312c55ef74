// Package metrics holds the Prometheus collectors exported by the matcher process.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CollectorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbmatch_collector_requests_total",
		Help: "Upstream listing requests by venue and HTTP outcome",
	}, []string{"venue", "outcome"})

	CollectorWalks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbmatch_collector_walks_total",
		Help: "Completed or failed pagination walks by venue, path and result",
	}, []string{"venue", "path", "result"})

	CollectorMarkets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbmatch_collector_markets_total",
		Help: "Markets or ids returned by successful walks",
	}, []string{"venue", "path"})

	EmbedBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbmatch_embed_batches_total",
		Help: "Batch embedding calls by result",
	}, []string{"result"})

	EmbedCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbmatch_embed_cache_hits_total",
		Help: "Descriptors served from the embedding cache",
	})

	StoreMarkets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arbmatch_store_markets",
		Help: "Markets currently held by the embedding store",
	})

	StoreAwaitingEmbedding = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arbmatch_store_awaiting_embedding",
		Help: "Markets with metadata but no vector yet",
	})

	StoreSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbmatch_store_saves_total",
		Help: "Snapshot writes by result",
	}, []string{"result"})

	ClassifierCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbmatch_classifier_calls_total",
		Help: "Same-event classifier calls by tier and outcome",
	}, []string{"tier", "outcome"})

	LLMLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arbmatch_llm_latency_seconds",
		Help:    "Chat completion latency by model",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"model"})

	Matches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbmatch_matches_total",
		Help: "Confirmed matches by verification tier",
	}, []string{"tier"})

	ProcessedMarkets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arbmatch_processed_markets",
		Help: "Size of the processed set",
	})

	CycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arbmatch_cycle_duration_seconds",
		Help:    "Duration of bootstrap and steady-state cycles",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"phase"})

	SinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbmatch_sink_errors_total",
		Help: "Match publish failures by sink",
	}, []string{"sink"})
)
