package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordIssuance("AMACredential", OutcomeSuccess, "")
	m.RecordIssuance("AMACredential", OutcomeSuccess, "")
	m.RecordIssuance("AMACredential", OutcomeFailure, "upstream_issuance_error")
	m.RecordTokenCache(true)
	m.RecordTokenCache(false)
	m.ObserveUpstream("identity", OutcomeSuccess, 20*time.Millisecond)
	m.RecordCallback("issuance_successful")
	m.RecordCallbackDropped()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.IssuanceRequests.WithLabelValues("AMACredential", OutcomeSuccess, "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallbacksDropped))
	assert.Equal(t, 1, testutil.CollectAndCount(m.UpstreamLatency))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordIssuance("t", OutcomeSuccess, "")
		m.ObserveUpstream("identity", OutcomeFailure, time.Second)
		m.RecordTokenCache(false)
		m.RecordTokenFetch(OutcomeFailure)
		m.RecordCallback("pending")
		m.RecordCallbackDropped()
		m.RecordActiveUserChange()
	})
}
