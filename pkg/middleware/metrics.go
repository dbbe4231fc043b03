package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/medihome/storefront/pkg/flash"
	"github.com/medihome/storefront/pkg/live"
	"github.com/medihome/storefront/pkg/protocol"
	"github.com/medihome/storefront/pkg/toast"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "storefront").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "storefront",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the storefront's Prometheus collectors.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	toastsShown      *prometheus.CounterVec
	toastsHidden     prometheus.Counter
	flashTransitions *prometheus.CounterVec
	liveSessions     prometheus.Gauge
	liveFrames       *prometheus.CounterVec
}

var _ live.Metrics = (*Metrics)(nil)

// NewMetrics creates and registers the collectors. Registering twice on
// the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route", "method"}),

		toastsShown: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "toasts_shown_total",
			Help:        "Total number of toasts shown by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		toastsHidden: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "toasts_hidden_total",
			Help:        "Total number of toasts hidden by their timer",
			ConstLabels: config.ConstLabels,
		}),

		flashTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flash_transitions_total",
			Help:        "Total number of flash item transitions by state",
			ConstLabels: config.ConstLabels,
		}, []string{"state"}),

		liveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_sessions",
			Help:        "Number of open live sessions",
			ConstLabels: config.ConstLabels,
		}),

		liveFrames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_frames_total",
			Help:        "Total live frames by direction and type",
			ConstLabels: config.ConstLabels,
		}, []string{"direction", "type"}),
	}
}

// Handler records request count and latency for next. The route label is
// the matched chi pattern, or "unmatched".
func (m *Metrics) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := routePattern(r)
		status := ww.Status()
		if status == 0 {
			// Hijacked connections and handlers that never wrote.
			status = http.StatusOK
		}

		m.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}

// routePattern returns the chi route pattern that served r.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// ToastShown implements toast.Observer.
func (m *Metrics) ToastShown(kind toast.Kind) {
	m.toastsShown.WithLabelValues(string(kind)).Inc()
}

// ToastHidden implements toast.Observer.
func (m *Metrics) ToastHidden() {
	m.toastsHidden.Inc()
}

// FlashTransition implements flash.Observer.
func (m *Metrics) FlashTransition(_ int, state flash.State) {
	m.flashTransitions.WithLabelValues(state.String()).Inc()
}

// SessionOpened implements live.Metrics.
func (m *Metrics) SessionOpened() {
	m.liveSessions.Inc()
}

// SessionClosed implements live.Metrics.
func (m *Metrics) SessionClosed() {
	m.liveSessions.Dec()
}

// FrameSent implements live.Metrics.
func (m *Metrics) FrameSent(t protocol.FrameType) {
	m.liveFrames.WithLabelValues("out", string(t)).Inc()
}

// FrameReceived implements live.Metrics.
func (m *Metrics) FrameReceived(t protocol.FrameType) {
	m.liveFrames.WithLabelValues("in", string(t)).Inc()
}
