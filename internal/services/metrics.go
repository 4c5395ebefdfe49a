package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the service layer
type Metrics struct {
	// Local history cache metrics
	CacheAppends *prometheus.CounterVec
	CacheReads   *prometheus.CounterVec

	// Diet sync metrics
	SyncBatches  prometheus.Counter
	SyncedItems  prometheus.Counter
	SyncFailures prometheus.Counter

	// Weather metrics
	WeatherLookups *prometheus.CounterVec
	WeatherLatency prometheus.Histogram

	// Crash reporter metrics
	CrashReportsSent    prometheus.Counter
	CrashReportsDropped prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		CacheAppends: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitalog_cache_appends_total",
			Help: "Total number of readings appended to a local history cache",
		}, []string{"store"}),

		CacheReads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitalog_cache_reads_total",
			Help: "Total number of local history cache reads",
		}, []string{"store"}),

		SyncBatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vitalog_sync_batches_total",
			Help: "Total number of diet sync batches attempted",
		}),

		SyncedItems: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vitalog_synced_items_total",
			Help: "Total number of diet entries acknowledged by the backend",
		}),

		SyncFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vitalog_sync_failures_total",
			Help: "Total number of failed diet sync batches",
		}),

		WeatherLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitalog_weather_lookups_total",
			Help: "Total number of weather lookups by outcome",
		}, []string{"outcome"}), // outcome: "cache_hit", "fetched", "failed"

		WeatherLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vitalog_weather_request_duration_seconds",
			Help:    "Weather API request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),

		CrashReportsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vitalog_crash_reports_sent_total",
			Help: "Total number of crash reports delivered",
		}),

		CrashReportsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vitalog_crash_reports_dropped_total",
			Help: "Total number of crash reports dropped (queue full or delivery failed)",
		}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordCacheAppend records an append to the named history cache
func (m *Metrics) RecordCacheAppend(store string) {
	if m == nil {
		return
	}
	m.CacheAppends.WithLabelValues(store).Inc()
}

// RecordCacheRead records a read of the named history cache
func (m *Metrics) RecordCacheRead(store string) {
	if m == nil {
		return
	}
	m.CacheReads.WithLabelValues(store).Inc()
}

// RecordSyncBatch records an attempted diet sync batch
func (m *Metrics) RecordSyncBatch() {
	if m == nil {
		return
	}
	m.SyncBatches.Inc()
}

// RecordSynced records n entries acknowledged by the backend
func (m *Metrics) RecordSynced(n int) {
	if m == nil {
		return
	}
	m.SyncedItems.Add(float64(n))
}

// RecordSyncFailure records a failed diet sync batch
func (m *Metrics) RecordSyncFailure() {
	if m == nil {
		return
	}
	m.SyncFailures.Inc()
}

// RecordWeatherLookup records a weather lookup outcome
func (m *Metrics) RecordWeatherLookup(outcome string) {
	if m == nil {
		return
	}
	m.WeatherLookups.WithLabelValues(outcome).Inc()
}
