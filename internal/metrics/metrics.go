package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bot metrics.
var (
	TriggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clockblocker_triggers_total",
		Help: "Trigger presses by platform and outcome",
	}, []string{"platform", "outcome"})

	SequenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clockblocker_sequence_duration_seconds",
		Help:    "Time to deliver a full time reveal sequence",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"platform"})

	MessagesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clockblocker_messages_sent_total",
		Help: "Outbound messages by platform and result",
	}, []string{"platform", "result"})
)

// Cache metrics.
var (
	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clockblocker_cache_lookups_total",
		Help: "Response cache lookups by key and result",
	}, []string{"key", "result"})
)

// LLM metrics.
var (
	LLMCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clockblocker_llm_calls_total",
		Help: "LLM completion attempts by model and result",
	}, []string{"model", "result"})

	LLMDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clockblocker_llm_duration_seconds",
		Help:    "LLM completion attempt duration in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"model"})

	LLMFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clockblocker_llm_fallback_text_total",
		Help: "Generations that exhausted every model and returned the fixed fallback text",
	})
)
