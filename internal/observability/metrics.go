// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	PoolEventsReceived    *prometheus.CounterVec
	PoolEventsStored      prometheus.Counter
	EventProcessingErrors *prometheus.CounterVec

	// Buffer metrics
	EventBufferSize  prometheus.Gauge
	HighestBlockSeen prometheus.Gauge

	// Backtest metrics
	BacktestRunsTotal  *prometheus.CounterVec
	BacktestDuration   *prometheus.HistogramVec
	EventsReplayed     prometheus.Counter
	RebalanceActions   *prometheus.CounterVec
	SnapshotsPersisted prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngestion prometheus.Gauge
	LastSuccessfulBacktest  prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "mellow_strategy_sdk"
	}

	return &Metrics{
		// Ingestion metrics
		PoolEventsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "pool_events_received_total",
			Help:      "Total number of pool events received by kind",
		}, []string{"kind"}),
		PoolEventsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "pool_events_stored_total",
			Help:      "Total number of pool events stored to database",
		}),
		EventProcessingErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "event_processing_errors_total",
			Help:      "Total number of event processing errors by type",
		}, []string{"error_type"}),

		// Buffer metrics
		EventBufferSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "event_buffer_size",
			Help:      "Current number of blocks in the event buffer",
		}),
		HighestBlockSeen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "highest_block_seen",
			Help:      "Highest block number seen on the feed",
		}),

		// Backtest metrics
		BacktestRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by strategy and status",
		}, []string{"strategy", "status"}),
		BacktestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"strategy"}),
		EventsReplayed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "events_replayed_total",
			Help:      "Total number of pool events replayed through strategies",
		}),
		RebalanceActions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "rebalance_actions_total",
			Help:      "Total number of rebalance actions by action name",
		}, []string{"action"}),
		SnapshotsPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "snapshots_persisted_total",
			Help:      "Total number of portfolio snapshots persisted",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulIngestion: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of last successful ingestion flush",
		}),
		LastSuccessfulBacktest: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_backtest_timestamp",
			Help:      "Unix timestamp of last successful backtest run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEventReceived increments the received counter for an event kind.
func RecordEventReceived(kind string) {
	DefaultMetrics.PoolEventsReceived.WithLabelValues(kind).Inc()
}

// RecordEventsStored adds n to the stored events counter.
func RecordEventsStored(n int) {
	DefaultMetrics.PoolEventsStored.Add(float64(n))
}

// RecordEventError records an event processing error.
func RecordEventError(errorType string) {
	DefaultMetrics.EventProcessingErrors.WithLabelValues(errorType).Inc()
}

// UpdateBufferSize updates the event buffer size gauge.
func UpdateBufferSize(blocks int) {
	DefaultMetrics.EventBufferSize.Set(float64(blocks))
}

// UpdateHighestBlock updates the highest block seen gauge.
func UpdateHighestBlock(block int64) {
	DefaultMetrics.HighestBlockSeen.Set(float64(block))
}

// RecordBacktestRun records a completed backtest run.
func RecordBacktestRun(strategy, status string, durationSeconds float64) {
	DefaultMetrics.BacktestRunsTotal.WithLabelValues(strategy, status).Inc()
	DefaultMetrics.BacktestDuration.WithLabelValues(strategy).Observe(durationSeconds)
}

// RecordEventsReplayed adds n to the replayed events counter.
func RecordEventsReplayed(n int) {
	DefaultMetrics.EventsReplayed.Add(float64(n))
}

// RecordRebalanceAction increments the rebalance actions counter.
func RecordRebalanceAction(action string) {
	DefaultMetrics.RebalanceActions.WithLabelValues(action).Inc()
}

// RecordSnapshotsPersisted adds n to the persisted snapshots counter.
func RecordSnapshotsPersisted(n int) {
	DefaultMetrics.SnapshotsPersisted.Add(float64(n))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
