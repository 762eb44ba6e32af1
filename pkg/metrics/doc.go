/*
Package metrics provides Prometheus metrics and health reporting for the storefront engine.

All metrics are registered with the default Prometheus registry at package init and
exposed through Handler. The cart store, session handler, checkout coordinator and
notification channel update them directly; Collector samples the cart gauges on an
interval for long-running processes.

# Metrics

Cart:
  - storefront_cart_operations_total{op,mode,result}: add, update, remove, clear, reload
  - storefront_cart_backend_duration_seconds{op,mode}: latency of backend calls
  - storefront_cart_lines: lines in the in-memory cart
  - storefront_cart_value: current cart total

Session:
  - storefront_session_transitions_total{direction}: sign_in, sign_out, switch

Checkout:
  - storefront_checkout_transitions_total{from,to}
  - storefront_checkout_rejections_total{reason}
  - storefront_orders_placed_total{mode}

Notifications:
  - storefront_notifications_total

# Health

Components report their state with RegisterComponent, UpdateComponent or
ReportBackend. The cart store reports ComponentLocalStore and
ComponentRemoteBackend after every backend call. HealthHandler, ReadyHandler and
LivenessHandler serve JSON for /health, /ready and /live; readiness requires the
local store to be registered and healthy.

Example PromQL:

	# Remote failure ratio over 5 minutes
	sum(rate(storefront_cart_operations_total{mode="authenticated",result="failed"}[5m]))
	  / sum(rate(storefront_cart_operations_total{mode="authenticated"}[5m]))
*/
package metrics
