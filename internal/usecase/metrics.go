package usecase

import (
	"github.com/prometheus/client_golang/prometheus"

	"marketplace/internal/domain/model"
)

var orderTransitions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "marketplace_order_transitions_total",
		Help: "Count of committed order status transitions",
	},
	[]string{"to"},
)

func init() { prometheus.MustRegister(orderTransitions) }

func countTransition(to model.OrderStatus, n int) {
	orderTransitions.WithLabelValues(string(to)).Add(float64(n))
}
