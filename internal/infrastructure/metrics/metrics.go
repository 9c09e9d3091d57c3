package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the hitrank API. Collectors
// exist from package init so the engine can record without a registry; they
// are only exposed once Register is called.
var Metrics = struct {
	TxAttempts       *prometheus.CounterVec
	TxConflicts      *prometheus.CounterVec
	TxContention     *prometheus.CounterVec
	Operations       *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	SweptChallenges  *prometheus.CounterVec
	WSConnections    prometheus.Gauge
}{
	TxAttempts: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hitrank_tx_attempts_total",
			Help: "Store transaction attempts, by operation.",
		},
		[]string{"operation"},
	),
	TxConflicts: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hitrank_tx_conflicts_total",
			Help: "Store transaction attempts that lost an optimistic conflict.",
		},
		[]string{"operation"},
	),
	TxContention: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hitrank_tx_contention_total",
			Help: "Operations that exhausted their retry budget.",
		},
		[]string{"operation"},
	),
	Operations: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hitrank_operations_total",
			Help: "Engine operations, by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	),
	RequestDuration: prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hitrank_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by route and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	),
	RequestsInFlight: prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hitrank_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	),
	CacheHits: prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hitrank_cache_hits_total",
			Help: "Total pin view cache hits.",
		},
	),
	CacheMisses: prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hitrank_cache_misses_total",
			Help: "Total pin view cache misses.",
		},
	),
	SweptChallenges: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hitrank_swept_challenges_total",
			Help: "Expired challenges processed by the finalize sweeper, by result.",
		},
		[]string{"result"},
	),
	WSConnections: prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hitrank_websocket_connections",
			Help: "Open notification websocket connections.",
		},
	),
}

// Register exposes all collectors on reg. Call once at startup.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		Metrics.TxAttempts,
		Metrics.TxConflicts,
		Metrics.TxContention,
		Metrics.Operations,
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
		Metrics.CacheHits,
		Metrics.CacheMisses,
		Metrics.SweptChallenges,
		Metrics.WSConnections,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Middleware records request duration and in-flight count. Routes are
// labelled by their registered path so ids do not explode cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}

			Metrics.RequestsInFlight.Inc()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			Metrics.RequestDuration.
				WithLabelValues(c.Path(), c.Request().Method, strconv.Itoa(c.Response().Status)).
				Observe(time.Since(start).Seconds())
			Metrics.RequestsInFlight.Dec()

			return nil
		}
	}
}
