package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the Prometheus collectors for issuance traffic.
// All methods are safe on a nil receiver.
type Metrics struct {
	IssuanceRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	TokenCache       *prometheus.CounterVec
	TokenFetches     *prometheus.CounterVec
	Callbacks        *prometheus.CounterVec
	CallbacksDropped prometheus.Counter
	ActiveUserSwaps  prometheus.Counter
}

// New registers all collectors on reg. A nil reg creates unregistered
// collectors, which tests use to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		IssuanceRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medcred_issuance_requests_total",
			Help: "Issuance requests by credential type and outcome",
		}, []string{"type", "outcome", "code"}),
		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medcred_upstream_request_duration_seconds",
			Help:    "Latency of calls to the identity endpoint and the issuance API",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"upstream", "outcome"}),
		TokenCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medcred_token_cache_total",
			Help: "Access token cache lookups by result (hit, miss)",
		}, []string{"result"}),
		TokenFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medcred_token_fetch_attempts_total",
			Help: "Attempts against the identity endpoint by outcome",
		}, []string{"outcome"}),
		Callbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medcred_issuance_callbacks_total",
			Help: "Callback notifications received by request status",
		}, []string{"status"}),
		CallbacksDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "medcred_issuance_callbacks_dropped_total",
			Help: "Callback notifications dropped because the api-key did not match",
		}),
		ActiveUserSwaps: factory.NewCounter(prometheus.CounterOpts{
			Name: "medcred_active_user_changes_total",
			Help: "Number of times the demo active user was switched",
		}),
	}
}

func (m *Metrics) RecordIssuance(credentialType, outcome, code string) {
	if m == nil {
		return
	}
	m.IssuanceRequests.WithLabelValues(credentialType, outcome, code).Inc()
}

func (m *Metrics) ObserveUpstream(upstream, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamLatency.WithLabelValues(upstream, outcome).Observe(d.Seconds())
}

func (m *Metrics) RecordTokenCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.TokenCache.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordTokenFetch(outcome string) {
	if m == nil {
		return
	}
	m.TokenFetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCallback(status string) {
	if m == nil {
		return
	}
	m.Callbacks.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordCallbackDropped() {
	if m == nil {
		return
	}
	m.CallbacksDropped.Inc()
}

func (m *Metrics) RecordActiveUserChange() {
	if m == nil {
		return
	}
	m.ActiveUserSwaps.Inc()
}
