// Package middleware provides the storefront's observability middleware.
//
// # Prometheus Metrics
//
// Metrics collects HTTP request counts and latencies and, because it
// implements live.Metrics, the notification events of every live session:
//
//	reg := prometheus.NewRegistry()
//	metrics := middleware.NewMetrics(middleware.WithRegistry(reg))
//
//	r := chi.NewRouter()
//	r.Use(metrics.Handler)
//	mgr := live.NewManager(dispatcher, live.WithMetrics(metrics))
//
// Metrics collected (namespace "storefront" by default):
//   - http_requests_total: requests by route, method and status
//   - http_request_duration_seconds: request latency by route and method
//   - toasts_shown_total: toasts shown by kind
//   - toasts_hidden_total: toasts hidden by their timer
//   - flash_transitions_total: flash item transitions by state
//   - live_sessions: open live sessions
//   - live_frames_total: live frames by direction and type
//
// # OpenTelemetry
//
// Tracing starts a server span per request, named after the matched chi
// route so span names stay low-cardinality:
//
//	r.Use(middleware.Tracing(middleware.WithTracerName("storefront")))
//
// The tracer comes from the global provider unless WithTracerProvider is
// given. Configure the provider in main() before serving.
package middleware
