package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Gauge != nil {
		return out.GetGauge().GetValue()
	}
	return out.GetCounter().GetValue()
}

func TestObserveBooking(t *testing.T) {
	before := value(t, bookings.WithLabelValues(ResultSoldOut))
	ObserveBooking(ResultSoldOut, time.Now())
	assert.Equal(t, before+1, value(t, bookings.WithLabelValues(ResultSoldOut)))
}

func TestObserveNotification(t *testing.T) {
	sent := value(t, notifications.WithLabelValues("booking_created", NotifySent))
	failed := value(t, notifications.WithLabelValues("booking_created", NotifyFailed))
	ObserveNotification("booking_created", true)
	ObserveNotification("booking_created", false)
	ObserveNotification("booking_created", false)
	assert.Equal(t, sent+1, value(t, notifications.WithLabelValues("booking_created", NotifySent)))
	assert.Equal(t, failed+2, value(t, notifications.WithLabelValues("booking_created", NotifyFailed)))
}

func TestObserveTransitionAndRetry(t *testing.T) {
	tr := value(t, transitions.WithLabelValues("PENDING", "CONFIRMED"))
	rt := value(t, txRetries)
	ObserveTransition("PENDING", "CONFIRMED")
	ObserveTxRetry()
	assert.Equal(t, tr+1, value(t, transitions.WithLabelValues("PENDING", "CONFIRMED")))
	assert.Equal(t, rt+1, value(t, txRetries))
}

func TestCollectRuntimeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		CollectRuntime(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("CollectRuntime did not return after cancel")
	}
	assert.Greater(t, value(t, goroutineCount), 0.0)
}
