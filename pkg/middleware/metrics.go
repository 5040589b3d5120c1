package middleware

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/atomic"

	"github.com/tnhu/wpm/internal/errors"
	"github.com/tnhu/wpm/pkg/transition"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "wpm").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for stage and transition duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
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
		Namespace: "wpm",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

type metrics struct {
	stagesTotal        *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	stageErrors        *prometheus.CounterVec
	transitionsTotal   *prometheus.CounterVec
	transitionDuration *prometheus.HistogramVec
	actionsTotal       *prometheus.CounterVec
	framesSent         prometheus.Counter
	activeSessions     prometheus.Gauge
	wsErrors           *prometheus.CounterVec
}

// globalMetrics is created on the first call to Prometheus. The mutex
// serializes creation; Record* functions only load the pointer.
var (
	globalMetrics   atomic.Pointer[metrics]
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		stagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stages_total",
			Help:        "Total number of transition stages run",
			ConstLabels: config.ConstLabels,
		}, []string{"stage", "status"}),

		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stage_duration_seconds",
			Help:        "Transition stage duration in seconds, hooks included",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"stage"}),

		stageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stage_errors_total",
			Help:        "Total number of failed transition stages",
			ConstLabels: config.ConstLabels,
		}, []string{"stage", "error_type"}),

		transitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transitions_total",
			Help:        "Total number of settled transitions",
			ConstLabels: config.ConstLabels,
		}, []string{"mode", "outcome"}),

		transitionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transition_duration_seconds",
			Help:        "Time from transition start to settle in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"outcome"}),

		actionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "actions_total",
			Help:        "Total number of dispatched actions",
			ConstLabels: config.ConstLabels,
		}, []string{"handled"}),

		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_sent_total",
			Help:        "Total number of frames sent to browser sessions",
			ConstLabels: config.ConstLabels,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of connected browser sessions",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Metrics is the transition middleware returned by Prometheus.
type Metrics struct {
	m *metrics
}

var (
	_ transition.Middleware = (*Metrics)(nil)
	_ transition.Settler    = (*Metrics)(nil)
)

// Prometheus creates middleware that collects metrics for transition
// stages and settled transitions.
//
// Metrics collected:
//   - wpm_stages_total: Counter of stages by name and status
//   - wpm_stage_duration_seconds: Histogram of stage duration
//   - wpm_stage_errors_total: Counter of failed stages by error type
//   - wpm_transitions_total: Counter of transitions by mode and outcome
//   - wpm_transition_duration_seconds: Histogram of transition duration
//   - wpm_actions_total: Counter of dispatched actions (RecordAction)
//   - wpm_frames_sent_total: Counter of frames sent (RecordFrames)
//   - wpm_active_sessions: Gauge of connected sessions
//   - wpm_websocket_errors_total: Counter of WebSocket errors
//
// Example:
//
//	engine := transition.New(reg,
//	    transition.WithMiddleware(middleware.Prometheus(middleware.WithNamespace("myapp"))),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	m := globalMetrics.Load()
	if m == nil {
		m = initMetrics(config)
		globalMetrics.Store(m)
	}
	globalMetricsMu.Unlock()

	return &Metrics{m: m}
}

// Handle implements transition.Middleware.
func (mw *Metrics) Handle(ctx context.Context, st *transition.Stage, next func() error) error {
	start := time.Now()
	err := next()
	mw.m.stageDuration.WithLabelValues(st.Name).Observe(time.Since(start).Seconds())

	status := "success"
	switch {
	case err == nil:
	case stderrors.Is(err, transition.ErrSkipped):
		status = "skipped"
	case stderrors.Is(err, transition.ErrSuperseded):
		status = "superseded"
	default:
		status = "error"
		mw.m.stageErrors.WithLabelValues(st.Name, categorizeError(err)).Inc()
	}
	mw.m.stagesTotal.WithLabelValues(st.Name, status).Inc()
	return err
}

// Settled implements transition.Settler.
func (mw *Metrics) Settled(t *transition.Transition) {
	outcome := t.Outcome().String()
	mw.m.transitionsTotal.WithLabelValues(t.Mode.String(), outcome).Inc()
	mw.m.transitionDuration.WithLabelValues(outcome).Observe(t.Duration().Seconds())
}

// categorizeError returns the error code of wpm errors and "hook" for
// errors returned by route code, keeping label cardinality low.
func categorizeError(err error) string {
	var we *errors.WpmError
	if stderrors.As(err, &we) && we.Code != "" {
		return we.Code
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "hook"
}

// =============================================================================
// Metrics Recording Functions
// =============================================================================

// RecordAction records a dispatched action.
func RecordAction(handled bool) {
	if m := globalMetrics.Load(); m != nil {
		label := "false"
		if handled {
			label = "true"
		}
		m.actionsTotal.WithLabelValues(label).Inc()
	}
}

// RecordFrames records frames sent to a session.
func RecordFrames(count int) {
	if m := globalMetrics.Load(); m != nil {
		m.framesSent.Add(float64(count))
	}
}

// RecordSessionCreate records a connected session.
func RecordSessionCreate() {
	if m := globalMetrics.Load(); m != nil {
		m.activeSessions.Inc()
	}
}

// RecordSessionDestroy records a disconnected session.
func RecordSessionDestroy() {
	if m := globalMetrics.Load(); m != nil {
		m.activeSessions.Dec()
	}
}

// RecordWebSocketError records a WebSocket error.
func RecordWebSocketError(errorType string) {
	if m := globalMetrics.Load(); m != nil {
		m.wsErrors.WithLabelValues(errorType).Inc()
	}
}
