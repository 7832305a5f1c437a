package booking

import (
	"time"

	"github.com/qdclab/booking-api/internal/obs"
)

// Metric collectors are registered once at startup; every hook tolerates the
// unregistered state so handler tests run without a registry.

func recordSessionStarted(active int) {
	if obs.SessionsStartedTotal != nil {
		obs.SessionsStartedTotal.Inc()
	}
	recordSessionsActive(active)
}

func recordSessionsActive(active int) {
	if obs.SessionsActive != nil {
		obs.SessionsActive.Set(float64(active))
	}
}

func recordCartMutation(kind string, err error) {
	if obs.CartMutationsTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.CartMutationsTotal.WithLabelValues(kind, result).Inc()
}

func recordSubmit(start time.Time, err error) {
	if obs.OrderSubmitTotal != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		obs.OrderSubmitTotal.WithLabelValues(result).Inc()
	}
	if obs.OrderSubmitLatency != nil {
		obs.OrderSubmitLatency.Observe(obs.DurationMillis(time.Since(start)))
	}
}
