package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	purchasesInitiated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_initiated_total",
			Help: "Payment intents created per venue",
		},
		[]string{"venue_id"},
	)

	passesFulfilled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passes_fulfilled_total",
			Help: "Passes minted by successful fulfillment",
		},
		[]string{"venue_id"},
	)

	duplicateConfirms = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duplicate_confirms_total",
			Help: "Confirm calls that returned an already-minted pass",
		},
	)

	purchaseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_failures_total",
			Help: "Failed purchase operations by stage",
		},
		[]string{"stage"},
	)

	refunds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refunds_total",
			Help: "Completed refunds by initiator",
		},
		[]string{"initiator"},
	)

	payouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payouts_total",
			Help: "Bulk payout transfers by outcome",
		},
		[]string{"status"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Gateway webhook events by type and outcome",
		},
		[]string{"type", "status"},
	)

	notificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Best-effort notification sends that failed",
		},
	)
)

// Monitor is the handle services use to record business metrics.
type Monitor struct{}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) TrackPurchaseInitiated(venueID string) {
	if m == nil {
		return
	}
	purchasesInitiated.WithLabelValues(venueID).Inc()
}

func (m *Monitor) TrackFulfillment(venueID string) {
	if m == nil {
		return
	}
	passesFulfilled.WithLabelValues(venueID).Inc()
}

func (m *Monitor) TrackDuplicateConfirm() {
	if m == nil {
		return
	}
	duplicateConfirms.Inc()
}

func (m *Monitor) TrackPurchaseFailure(stage string) {
	if m == nil {
		return
	}
	purchaseFailures.WithLabelValues(stage).Inc()
}

func (m *Monitor) TrackRefund(initiator string) {
	if m == nil {
		return
	}
	refunds.WithLabelValues(initiator).Inc()
}

func (m *Monitor) TrackPayout(status string) {
	if m == nil {
		return
	}
	payouts.WithLabelValues(status).Inc()
}

func (m *Monitor) TrackWebhookEvent(eventType, status string) {
	if m == nil {
		return
	}
	webhookEvents.WithLabelValues(eventType, status).Inc()
}

func (m *Monitor) TrackNotificationFailure() {
	if m == nil {
		return
	}
	notificationFailures.Inc()
}
