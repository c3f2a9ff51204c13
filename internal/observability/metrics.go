// Package observability holds the Prometheus instruments for scan runs
// and the handler that exposes them for scraping.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "treegrep"

	labelLanguage = "language"
	labelRule     = "rule"
)

// parseBucketBoundaries covers 100µs to 5s: small config files parse in
// well under a millisecond, generated multi-megabyte sources take seconds.
var parseBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// scanBucketBoundaries covers one file end to end, parse plus rule
// evaluation, so the upper buckets stretch further than the parse ones.
var scanBucketBoundaries = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}

// ScanMetrics holds the Prometheus instruments for a scan run. A nil
// *ScanMetrics is valid and records nothing, so callers never need to
// branch on whether metrics are enabled.
type ScanMetrics struct {
	registry *prometheus.Registry

	filesScanned *prometheus.CounterVec
	filesSkipped prometheus.Counter
	matchesTotal *prometheus.CounterVec
	scanErrors   *prometheus.CounterVec

	parseDuration *prometheus.HistogramVec
	scanDuration  *prometheus.HistogramVec
}

// NewScanMetrics creates and registers the scan instruments on a fresh
// registry. Each call gets an independent registry to avoid collector
// conflicts when called multiple times.
func NewScanMetrics() *ScanMetrics {
	registry := prometheus.NewRegistry()

	sm := &ScanMetrics{
		registry: registry,
		filesScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_scanned_total",
			Help:      "Number of files parsed and matched against the rule set.",
		}, []string{labelLanguage}),
		filesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Number of files skipped because no language claimed them.",
		}),
		matchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Number of rule matches reported.",
		}, []string{labelRule}),
		scanErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_errors_total",
			Help:      "Number of files that failed to read or parse.",
		}, []string{labelLanguage}),
		parseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing one file into a tree.",
			Buckets:   parseBucketBoundaries,
		}, []string{labelLanguage}),
		scanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_scan_duration_seconds",
			Help:      "Time spent scanning one file, parse included.",
			Buckets:   scanBucketBoundaries,
		}, []string{labelLanguage}),
	}

	registry.MustRegister(
		sm.filesScanned,
		sm.filesSkipped,
		sm.matchesTotal,
		sm.scanErrors,
		sm.parseDuration,
		sm.scanDuration,
	)

	return sm
}

// RecordFile records one completed file scan.
func (sm *ScanMetrics) RecordFile(lang string, parse, total time.Duration) {
	if sm == nil {
		return
	}

	sm.filesScanned.WithLabelValues(lang).Inc()
	sm.parseDuration.WithLabelValues(lang).Observe(parse.Seconds())
	sm.scanDuration.WithLabelValues(lang).Observe(total.Seconds())
}

// RecordSkip records a file no language claimed.
func (sm *ScanMetrics) RecordSkip() {
	if sm == nil {
		return
	}

	sm.filesSkipped.Inc()
}

// RecordMatches records matches reported by one rule.
func (sm *ScanMetrics) RecordMatches(ruleID string, count int) {
	if sm == nil || count == 0 {
		return
	}

	sm.matchesTotal.WithLabelValues(ruleID).Add(float64(count))
}

// RecordError records a file that failed to read or parse.
func (sm *ScanMetrics) RecordError(lang string) {
	if sm == nil {
		return
	}

	sm.scanErrors.WithLabelValues(lang).Inc()
}

// Handler returns the /metrics scrape endpoint for this registry.
func (sm *ScanMetrics) Handler() http.Handler {
	if sm == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(sm.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests and embedding.
func (sm *ScanMetrics) Gatherer() prometheus.Gatherer {
	if sm == nil {
		return prometheus.NewRegistry()
	}

	return sm.registry
}
