package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractguard_ai_calls_total",
		Help: "AI service calls by purpose and outcome.",
	}, []string{"purpose", "outcome"})

	aiCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "contractguard_ai_call_duration_seconds",
		Help:    "Latency of AI service calls.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
	}, []string{"purpose"})

	ingestFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractguard_ingest_failures_total",
		Help: "AI responses that could not be parsed, by response kind.",
	}, []string{"kind"})

	storeCorruptTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractguard_store_corrupt_total",
		Help: "Stored collections that failed to decode and were reset.",
	}, []string{"key"})

	companyCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contractguard_company_cache_hits_total",
		Help: "Company lookups served from the in-memory cache.",
	})
	companyCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contractguard_company_cache_misses_total",
		Help: "Company lookups that missed the in-memory cache.",
	})

	reviewVerdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractguard_review_verdicts_total",
		Help: "Moderation gate outcomes: approved, rejected, error.",
	}, []string{"verdict"})

	liveSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "contractguard_live_sessions_active",
		Help: "Open voice negotiation sessions.",
	})
)
