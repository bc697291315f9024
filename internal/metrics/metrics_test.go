package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Observe(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("BUY_PRODUCT", "SUCCESS", 10*time.Millisecond)
	m.ObserveRequest("BUY_PRODUCT", "SUCCESS", 20*time.Millisecond)
	m.ObserveRequest("LOGIN", "FAILED", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("BUY_PRODUCT", "SUCCESS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("LOGIN", "FAILED")))

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveConnections))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConnectionsTotal))

	m.ObservePurchase(PurchaseSuccess, 3)
	m.ObservePurchase(PurchaseRejected, 5)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.UnitsSoldTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PurchasesTotal.WithLabelValues(PurchaseRejected)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("LOGIN", "SUCCESS", time.Second)
		m.ConnectionOpened()
		m.ConnectionClosed()
		m.ObservePurchase(PurchaseSuccess, 1)
	})
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
