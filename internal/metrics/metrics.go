// Package metrics holds the Prometheus collectors of the booking
// service.  Collectors are registered on the default registry at init
// time and exposed by the /metrics route.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Booking outcome labels.
const (
	ResultCreated      = "created"
	ResultSoldOut      = "sold_out"
	ResultInvalid      = "invalid"
	ResultNotFound     = "not_found"
	ResultConflict     = "conflict"
	ResultError        = "error"
	NotifySent         = "sent"
	NotifyFailed       = "failed"
	LedgerIncrement    = "increment"
	LedgerDecrement    = "decrement"
	LedgerIncrementNop = "increment_skipped"
)

var (
	bookings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventify_bookings_total",
			Help: "Booking attempts by result",
		},
		[]string{"result"},
	)

	transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventify_booking_transitions_total",
			Help: "Committed booking status transitions",
		},
		[]string{"from", "to"},
	)

	ledgerMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventify_ledger_mutations_total",
			Help: "Inventory ledger writes by operation",
		},
		[]string{"op"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventify_notifications_total",
			Help: "Best-effort notifications by kind and result",
		},
		[]string{"kind", "result"},
	)

	txRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventify_tx_retries_total",
			Help: "Transactions re-run after a deadlock or lock wait timeout",
		},
	)

	bookingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventify_booking_duration_seconds",
			Help:    "Latency of the booking transaction",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
	)

	goroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventify_active_goroutines",
			Help: "Current number of goroutines",
		},
	)
)

// ObserveBooking records the outcome and latency of one booking attempt.
func ObserveBooking(result string, started time.Time) {
	bookings.WithLabelValues(result).Inc()
	bookingDuration.Observe(time.Since(started).Seconds())
}

// ObserveTransition counts a committed booking status change.
func ObserveTransition(from, to string) {
	transitions.WithLabelValues(from, to).Inc()
}

// ObserveLedger counts a ledger write.
func ObserveLedger(op string) {
	ledgerMutations.WithLabelValues(op).Inc()
}

// ObserveNotification counts a notification attempt.
func ObserveNotification(kind string, ok bool) {
	result := NotifySent
	if !ok {
		result = NotifyFailed
	}
	notifications.WithLabelValues(kind, result).Inc()
}

// ObserveTxRetry counts a transaction retry.
func ObserveTxRetry() { txRetries.Inc() }

// CollectRuntime refreshes runtime gauges every interval until ctx is
// cancelled.
func CollectRuntime(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		goroutineCount.Set(float64(runtime.NumGoroutine()))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
