package observability

import (
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the collections service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	decisionsTotal  *prometheus.CounterVec
	escalations     *prometheus.CounterVec
	triggeredCalls  *prometheus.CounterVec
	messagesSent    *prometheus.CounterVec
	interactions    *prometheus.CounterVec
	riskScore       prometheus.Histogram
	requestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emi_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emi_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emi_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emi_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		decisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emi_decisions_total",
				Help: "Total decisions produced, by next action.",
			},
			[]string{"action"},
		),
		escalations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emi_escalations_total",
				Help: "Total escalations to human agents, by reason.",
			},
			[]string{"reason"},
		),
		triggeredCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emi_triggered_calls_total",
				Help: "Total calls triggered by the due-EMI sweep.",
			},
			[]string{"status"},
		),
		messagesSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emi_messages_sent_total",
				Help: "Total outbound messages, by channel.",
			},
			[]string{"channel"},
		),
		interactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emi_interactions_total",
				Help: "Total interactions logged, by outcome.",
			},
			[]string{"outcome"},
		),
		riskScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "emi_risk_score",
				Help:    "Distribution of computed customer risk scores.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emi_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrDecision counts one produced decision by its next action.
func (m *Metrics) IncrDecision(action string) {
	m.decisionsTotal.WithLabelValues(action).Inc()
}

// IncrEscalation counts one escalation by reason.
func (m *Metrics) IncrEscalation(reason string) {
	m.escalations.WithLabelValues(reason).Inc()
}

// IncrTriggeredCall counts one triggered call with a status label.
func (m *Metrics) IncrTriggeredCall(status string) {
	m.triggeredCalls.WithLabelValues(status).Inc()
}

// IncrMessageSent counts one outbound message by channel.
func (m *Metrics) IncrMessageSent(channel string) {
	m.messagesSent.WithLabelValues(channel).Inc()
}

// IncrInteraction counts one logged interaction by outcome.
func (m *Metrics) IncrInteraction(outcome string) {
	m.interactions.WithLabelValues(outcome).Inc()
}

// ObserveRiskScore records a computed risk score.
func (m *Metrics) ObserveRiskScore(score float64) {
	m.riskScore.Observe(score)
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetCollectorSnapshot returns a snapshot of collection metrics suitable for
// the GET /v1/metrics/collector endpoint.
func (m *Metrics) GetCollectorSnapshot() *domain.CollectorMetrics {
	// Prometheus counters expose cumulative values.
	var totalDecisions, totalEscalations float64
	for _, action := range []string{
		domain.ActionSendPaymentLink,
		domain.ActionScheduleFollowUp,
		domain.ActionScheduleCallback,
		domain.ActionRetryCall,
		domain.ActionEscalateToHuman,
	} {
		totalDecisions += getCounterValue(m.decisionsTotal, action)
	}
	for _, reason := range []string{
		domain.EscalationHighRisk,
		domain.EscalationNegativeSentiment,
		domain.EscalationFailedAttempts,
		domain.EscalationPaymentRefusal,
		domain.EscalationVIP,
	} {
		totalEscalations += getCounterValue(m.escalations, reason)
	}

	totalRequests := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	errorCount := getCounterValue(m.requestsTotal, "error")
	cacheHits := getCounterValue(m.cacheHits, "context")
	cacheMisses := getCounterValue(m.cacheMisses, "context")

	escalationRate := float64(0)
	errorRate := float64(0)
	cacheHitRate := float64(0)

	if totalDecisions > 0 {
		escalationRate = totalEscalations / totalDecisions
	}
	if totalRequests > 0 {
		errorRate = errorCount / totalRequests
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.CollectorMetrics{
		TotalDecisions: int64(totalDecisions),
		EscalationRate: escalationRate,
		TriggeredCalls: int64(getCounterValue(m.triggeredCalls, "completed")),
		LinksSent:      int64(getCounterValue(m.messagesSent, "sms") + getCounterValue(m.messagesSent, "whatsapp")),
		ErrorRate:      errorRate,
		CacheHitRate:   cacheHitRate,
		Period:         "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
