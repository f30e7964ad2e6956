// Package metrics holds the Prometheus collectors shared by the binaries.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fieldlog"

var (
	recordMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "records",
		Name:      "mutations_total",
		Help:      "Record mutations applied, by company and action.",
	}, []string{"company", "action"})

	exports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exports_total",
		Help:      "CSV exports written, by sink and result.",
	}, []string{"sink", "result"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "code"})

	lastExport = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_export_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful export per company.",
	}, []string{"company"})

	dashboardCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dashboard",
		Name:      "cache_total",
		Help:      "Dashboard cache lookups by result.",
	}, []string{"result"})

	securityEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "security_events_total",
		Help:      "Requests flagged as suspicious or rejected by the rate limiter.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(recordMutations, exports, httpDuration, lastExport, dashboardCache, securityEvents)
}

// DashboardCache counts one cache lookup.
func DashboardCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	dashboardCache.WithLabelValues(result).Inc()
}

// SecurityEvent counts a suspicious request or a rate limit rejection.
func SecurityEvent(kind string) {
	securityEvents.WithLabelValues(kind).Inc()
}

// RecordMutation counts one applied upsert, remove or clear.
func RecordMutation(company, action string) {
	recordMutations.WithLabelValues(company, action).Inc()
}

// RecordExport counts one sink write.
func RecordExport(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	exports.WithLabelValues(sink, result).Inc()
}

// RecordExportCompleted moves the export watermark for company.
func RecordExportCompleted(company string, ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastExport.WithLabelValues(company).Set(float64(ts.Unix()))
}

// ObserveHTTP records one request latency.
func ObserveHTTP(method, route, code string, d time.Duration) {
	httpDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
}
