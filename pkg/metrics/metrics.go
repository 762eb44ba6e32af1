package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values
const (
	ResultOK      = "ok"
	ResultFailed  = "failed"
	ResultNoop    = "noop"
	ResultInvalid = "invalid"
)

var (
	// Cart metrics
	CartOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_operations_total",
			Help: "Total number of cart operations by operation, mode and result",
		},
		[]string{"op", "mode", "result"},
	)

	CartBackendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_cart_backend_duration_seconds",
			Help:    "Duration of cart backend calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "mode"},
	)

	CartLines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_cart_lines",
			Help: "Number of lines in the in-memory cart",
		},
	)

	CartValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_cart_value",
			Help: "Current cart total",
		},
	)

	// Session metrics
	SessionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_session_transitions_total",
			Help: "Total number of identity transitions by direction",
		},
		[]string{"direction"},
	)

	// Checkout metrics
	CheckoutTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_transitions_total",
			Help: "Total number of checkout step transitions",
		},
		[]string{"from", "to"},
	)

	CheckoutRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_rejections_total",
			Help: "Total number of rejected checkout actions by reason",
		},
		[]string{"reason"},
	)

	OrdersPlacedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Total number of completed checkouts by cart mode",
		},
		[]string{"mode"},
	)

	// Notification metrics
	NotificationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_notifications_total",
			Help: "Total number of notifications issued",
		},
	)
)

func init() {
	prometheus.MustRegister(CartOperationsTotal)
	prometheus.MustRegister(CartBackendDuration)
	prometheus.MustRegister(CartLines)
	prometheus.MustRegister(CartValue)
	prometheus.MustRegister(SessionTransitionsTotal)
	prometheus.MustRegister(CheckoutTransitionsTotal)
	prometheus.MustRegister(CheckoutRejectionsTotal)
	prometheus.MustRegister(OrdersPlacedTotal)
	prometheus.MustRegister(NotificationsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
