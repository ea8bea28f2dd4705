package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus instruments for the scouting pipeline.
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	scoutRequests   *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	generations     *prometheus.CounterVec
	generationTime  prometheus.Histogram
	embeddingCalls  *prometheus.CounterVec
	ledgerEntries   *prometheus.CounterVec
	creditsDeclined prometheus.Counter
}

// New registers and returns the application metrics.
func New(reg prometheus.Registerer) *Metrics {
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scoutbase_http_requests_total",
		Help: "HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scoutbase_http_duration_seconds",
		Help:    "HTTP request latency per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	scoutRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scoutbase_scout_requests_total",
		Help: "Scout requests by outcome.",
	}, []string{"outcome"})

	cacheHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scoutbase_report_cache_hits_total",
		Help: "Report lookups served from the store without generation.",
	}, []string{"kind"})

	generations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scoutbase_generations_total",
		Help: "Report generations by status.",
	}, []string{"status"})

	generationTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scoutbase_generation_duration_seconds",
		Help:    "Report generation roundtrip latency.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	embeddingCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scoutbase_embedding_calls_total",
		Help: "Embedding computations by source.",
	}, []string{"source"})

	ledgerEntries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scoutbase_ledger_entries_total",
		Help: "Credit ledger entries by source type and reason.",
	}, []string{"source_type", "reason"})

	creditsDeclined := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scoutbase_credits_declined_total",
		Help: "Requests declined for insufficient credits.",
	})

	reg.MustRegister(
		httpRequests,
		httpDuration,
		scoutRequests,
		cacheHits,
		generations,
		generationTime,
		embeddingCalls,
		ledgerEntries,
		creditsDeclined,
	)

	return &Metrics{
		httpRequests:    httpRequests,
		httpDuration:    httpDuration,
		scoutRequests:   scoutRequests,
		cacheHits:       cacheHits,
		generations:     generations,
		generationTime:  generationTime,
		embeddingCalls:  embeddingCalls,
		ledgerEntries:   ledgerEntries,
		creditsDeclined: creditsDeclined,
	}
}

// ObserveHTTPRequest records one HTTP request and its latency.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	routeLabel := sanitizeLabel(route)
	m.httpRequests.WithLabelValues(method, routeLabel, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, routeLabel).Observe(duration.Seconds())
}

// RecordScoutRequest counts a scout request by its outcome
// (cached, generated, suggested, declined, failed).
func (m *Metrics) RecordScoutRequest(outcome string) {
	if m == nil {
		return
	}
	m.scoutRequests.WithLabelValues(sanitizeLabel(outcome)).Inc()
}

// RecordCacheHit counts a report served without a new generation.
// kind distinguishes exact fingerprint hits from alias hits.
func (m *Metrics) RecordCacheHit(kind string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(sanitizeLabel(kind)).Inc()
}

// RecordGeneration records one generation attempt and its latency.
func (m *Metrics) RecordGeneration(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(sanitizeLabel(status)).Inc()
	m.generationTime.Observe(duration.Seconds())
}

// RecordEmbeddingCall counts an embedding computation. source is
// "cache" when the vector came from the hash cache, "api" otherwise.
func (m *Metrics) RecordEmbeddingCall(source string) {
	if m == nil {
		return
	}
	m.embeddingCalls.WithLabelValues(sanitizeLabel(source)).Inc()
}

// RecordLedgerEntry counts an accepted ledger write.
func (m *Metrics) RecordLedgerEntry(sourceType, reason string) {
	if m == nil {
		return
	}
	m.ledgerEntries.WithLabelValues(sanitizeLabel(sourceType), sanitizeLabel(reason)).Inc()
}

// RecordCreditsDeclined counts a request rejected for insufficient balance.
func (m *Metrics) RecordCreditsDeclined() {
	if m == nil {
		return
	}
	m.creditsDeclined.Inc()
}

func sanitizeLabel(val string) string {
	if val == "" {
		return "unknown"
	}
	return val
}
