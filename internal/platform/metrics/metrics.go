package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RecordsLogged    *prometheus.CounterVec
	RecordsExcluded  prometheus.Counter
	RecordsSkipped   prometheus.Counter
	InsertFailures   prometheus.Counter
	AlertsMatched    *prometheus.CounterVec
	AlertSendFailed  *prometheus.CounterVec
	AlertSendSeconds prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RecordsLogged: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streamlog_records_logged_total",
			Help: "Total records persisted, by connector.",
		}, []string{"connector"}),
		RecordsExcluded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streamlog_records_excluded_total",
			Help: "Total records marked private by exclusion rules.",
		}),
		RecordsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streamlog_records_skipped_total",
			Help: "Total events skipped before persistence (e.g. cron tracking disabled).",
		}),
		InsertFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streamlog_record_insert_failures_total",
			Help: "Total record store insert failures.",
		}),
		AlertsMatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streamlog_alerts_matched_total",
			Help: "Total alert matches, by alert type.",
		}, []string{"alert_type"}),
		AlertSendFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streamlog_alert_send_failures_total",
			Help: "Total notifier failures, by alert type.",
		}, []string{"alert_type"}),
		AlertSendSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "streamlog_alert_send_duration_seconds",
			Help:    "Notifier send duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
