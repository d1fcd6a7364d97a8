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
	// Fetch metrics
	FetchLatency *prometheus.HistogramVec
	FetchErrors  *prometheus.CounterVec
	FetchRetries *prometheus.CounterVec

	// Parse metrics
	ParseRows   *prometheus.CounterVec
	ParseStatus *prometheus.CounterVec

	// Day assembly metrics
	DayBuildsTotal     *prometheus.CounterVec
	DayBuildDuration   prometheus.Histogram
	LiveAugmentedHours prometheus.Gauge
	CurrentCushionPct  prometheus.Gauge

	// Push metrics
	WSClients      prometheus.Gauge
	WSMessagesSent prometheus.Counter

	// Database metrics
	DBQueryDuration     *prometheus.HistogramVec
	DBQueryErrors       *prometheus.CounterVec
	ReferenceRowsLoaded prometheus.Counter

	// Health metrics
	LastSuccessfulBuild prometheus.Gauge
	UptimeSeconds       prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "power_market_lab"
	}

	return &Metrics{
		// Fetch metrics
		FetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "latency_seconds",
			Help:      "Report fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "errors_total",
			Help:      "Total number of failed report fetches by kind",
		}, []string{"host", "kind"}),
		FetchRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "retries_total",
			Help:      "Total number of fetch retry attempts",
		}, []string{"host"}),

		// Parse metrics
		ParseRows: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parse",
			Name:      "rows_total",
			Help:      "Total number of report rows by outcome",
		}, []string{"report", "outcome"}),
		ParseStatus: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parse",
			Name:      "results_total",
			Help:      "Total number of report parses by final status",
		}, []string{"report", "status"}),

		// Day assembly metrics
		DayBuildsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "day_builds_total",
			Help:      "Total number of day assemblies by status",
		}, []string{"status"}),
		DayBuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "day_build_duration_seconds",
			Help:      "Day assembly duration in seconds, fetches included",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		LiveAugmentedHours: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "live_augmented_hours",
			Help:      "Hours of the latest day view carrying live values",
		}),
		CurrentCushionPct: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "current_cushion_ratio",
			Help:      "Supply cushion over actual load for the current hour",
		}),

		// Push metrics
		WSClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "ws_clients",
			Help:      "Connected websocket clients",
		}),
		WSMessagesSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "ws_messages_sent_total",
			Help:      "Total number of day views pushed to websocket clients",
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
		ReferenceRowsLoaded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "reference_rows_loaded_total",
			Help:      "Total number of reference hours inserted",
		}),

		// Health metrics
		LastSuccessfulBuild: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_build_timestamp",
			Help:      "Unix timestamp of last successful day assembly",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordFetch records a fetch outcome. kind is empty on success.
func RecordFetch(host string, seconds float64, kind string) {
	DefaultMetrics.FetchLatency.WithLabelValues(host).Observe(seconds)
	if kind != "" {
		DefaultMetrics.FetchErrors.WithLabelValues(host, kind).Inc()
	}
}

// RecordFetchRetry increments the retry counter.
func RecordFetchRetry(host string) {
	DefaultMetrics.FetchRetries.WithLabelValues(host).Inc()
}

// RecordParse records a parser's row counters and final status.
func RecordParse(report, status string, parsed, skipped int) {
	DefaultMetrics.ParseRows.WithLabelValues(report, "parsed").Add(float64(parsed))
	DefaultMetrics.ParseRows.WithLabelValues(report, "skipped").Add(float64(skipped))
	DefaultMetrics.ParseStatus.WithLabelValues(report, status).Inc()
}

// RecordDayBuild records a day assembly.
func RecordDayBuild(status string, durationSeconds float64, liveHours int, finishedUnix int64) {
	DefaultMetrics.DayBuildsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.DayBuildDuration.Observe(durationSeconds)
	if status == "ok" {
		DefaultMetrics.LiveAugmentedHours.Set(float64(liveHours))
		DefaultMetrics.LastSuccessfulBuild.Set(float64(finishedUnix))
	}
}

// SetCurrentCushion updates the current-hour cushion gauge.
func SetCurrentCushion(ratio float64) {
	DefaultMetrics.CurrentCushionPct.Set(ratio)
}

// SetWSClients updates the websocket client gauge.
func SetWSClients(n int) {
	DefaultMetrics.WSClients.Set(float64(n))
}

// RecordWSMessage increments the websocket push counter.
func RecordWSMessage() {
	DefaultMetrics.WSMessagesSent.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordReferenceRows increments the reference rows loaded counter.
func RecordReferenceRows(n int) {
	DefaultMetrics.ReferenceRowsLoaded.Add(float64(n))
}

// RecordUptime adds elapsed seconds to the uptime counter.
func RecordUptime(seconds float64) {
	DefaultMetrics.UptimeSeconds.Add(seconds)
}
