package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records pricing/checkout outcomes.
type CheckoutMetrics struct {
	quotes   *prometheus.HistogramVec
	orders   *prometheus.CounterVec
	rollback prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	quotes := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_quote_duration_seconds",
		Help:    "Duration of pricing quote computations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	rollback := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_reservation_rollbacks_total",
		Help: "Reservations released by compensating rollback.",
	})
	reg.MustRegister(quotes, orders, rollback)
	return &CheckoutMetrics{
		quotes:   quotes,
		orders:   orders,
		rollback: rollback,
	}
}

// ObserveQuote records a quote computation with its outcome label.
func (c *CheckoutMetrics) ObserveQuote(outcome string, duration time.Duration) {
	if c == nil || c.quotes == nil {
		return
	}
	c.quotes.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncOrder increments the checkout counter for the given outcome.
func (c *CheckoutMetrics) IncOrder(outcome string) {
	if c == nil || c.orders == nil {
		return
	}
	c.orders.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncRollback increments the compensating-release counter.
func (c *CheckoutMetrics) IncRollback() {
	if c == nil || c.rollback == nil {
		return
	}
	c.rollback.Inc()
}
