// Package metrics exposes Prometheus collectors on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "repaso"

// Metrics holds the application collectors. A nil *Metrics records
// nothing, so callers need no guards.
type Metrics struct {
	registry *prometheus.Registry

	gradingTotal       *prometheus.CounterVec
	gradingDuration    prometheus.Histogram
	ingestChunks       prometheus.Counter
	ingestDuration     prometheus.Histogram
	questionsGenerated *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	llmRequests        *prometheus.CounterVec
	llmTokens          *prometheus.CounterVec
	llmLatency         *prometheus.HistogramVec
}

// New registers all collectors, plus Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		gradingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grading_total",
			Help:      "Graded answers by category.",
		}, []string{"category"}),
		gradingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grading_duration_seconds",
			Help:      "Time to grade one answer.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		ingestChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_chunks_total",
			Help:      "Chunks stored by ingestion.",
		}),
		ingestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Time to ingest one document.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		}),
		questionsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_generated_total",
			Help:      "Generated questions by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "LLM calls by provider, purpose and result.",
		}, []string{"provider", "purpose", "result"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "LLM tokens by provider and direction.",
		}, []string{"provider", "direction"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Latency of one LLM call.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"provider"}),
	}
	m.registry.MustRegister(
		m.gradingTotal,
		m.gradingDuration,
		m.ingestChunks,
		m.ingestDuration,
		m.questionsGenerated,
		m.httpRequests,
		m.llmRequests,
		m.llmTokens,
		m.llmLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Question generation outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeRejected  = "rejected"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// ObserveGrading records one graded answer.
func (m *Metrics) ObserveGrading(category string, d time.Duration) {
	if m == nil {
		return
	}
	m.gradingTotal.WithLabelValues(category).Inc()
	m.gradingDuration.Observe(d.Seconds())
}

// ObserveIngest records one ingested document.
func (m *Metrics) ObserveIngest(chunks int, d time.Duration) {
	if m == nil {
		return
	}
	m.ingestChunks.Add(float64(chunks))
	m.ingestDuration.Observe(d.Seconds())
}

// AddQuestions counts n questions with the given outcome.
func (m *Metrics) AddQuestions(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.questionsGenerated.WithLabelValues(outcome).Add(float64(n))
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// ObserveLLM records one LLM call.
func (m *Metrics) ObserveLLM(provider, purpose string, ok bool, inputTokens, outputTokens int, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.llmRequests.WithLabelValues(provider, purpose, result).Inc()
	m.llmTokens.WithLabelValues(provider, "input").Add(float64(inputTokens))
	m.llmTokens.WithLabelValues(provider, "output").Add(float64(outputTokens))
	m.llmLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
