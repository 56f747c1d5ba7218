// Package metrics exposes order lifecycle counters and the Prometheus handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "orders_placed_total",
		Help:      "Orders created from carts.",
	})
	OrderTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "order_status_transitions_total",
		Help:      "Order status changes by source and target status.",
	}, []string{"from", "to"})
	PaymentIntents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "payment_intents_total",
		Help:      "Payment intents by resulting status.",
	}, []string{"status"})
	ShipmentUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "shipment_updates_total",
		Help:      "Shipment creations and status updates by status.",
	}, []string{"status"})
	SagaFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "saga_failures_total",
		Help:      "Multi-collection writes that stopped part way.",
	}, []string{"saga", "step"})
	StoreLoadFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "store_load_failures_total",
		Help:      "Collection reads that failed and were served as empty.",
	}, []string{"collection"})
)

func init() {
	prometheus.MustRegister(OrdersPlaced, OrderTransitions, PaymentIntents, ShipmentUpdates, SagaFailures, StoreLoadFailures)
}

// Transition counts a status change; unchanged statuses are counted too.
func Transition(from, to string) {
	OrderTransitions.WithLabelValues(from, to).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
