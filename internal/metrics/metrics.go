package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stoik/mailshield/internal/domain"
)

const namespace = "mailshield"

// Metrics holds all the Prometheus metrics of the scanner
type Metrics struct {
	EmailScansTotal        *prometheus.CounterVec
	URLScansTotal          *prometheus.CounterVec
	DuplicatesSkippedTotal prometheus.Counter
	DetectorFailuresTotal  *prometheus.CounterVec
	ScanErrorsTotal        *prometheus.CounterVec
	NotificationsTotal     prometheus.Counter
	MailboxScanDuration    prometheus.Histogram
}

// NewMetrics registers every metric on reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EmailScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_scans_total",
			Help:      "Total number of unique messages scored, by risk level",
		}, []string{"level"}),
		URLScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "url_scans_total",
			Help:      "Total number of URLs scored, by risk level",
		}, []string{"level"}),
		DuplicatesSkippedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_skipped_total",
			Help:      "Total number of messages skipped because they were already scanned",
		}),
		DetectorFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detector_failures_total",
			Help:      "Total number of detection strategy panics, by strategy",
		}, []string{"strategy"}),
		ScanErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_errors_total",
			Help:      "Total number of mailbox scan errors, by stage",
		}, []string{"stage"}),
		NotificationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of threat alerts delivered",
		}),
		MailboxScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mailbox_scan_duration_seconds",
			Help:      "Duration of one mailbox scan",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}

// ObserveEmailScan counts one newly scored message
func (m *Metrics) ObserveEmailScan(level domain.RiskLevel) {
	m.EmailScansTotal.WithLabelValues(string(level)).Inc()
}

// ObserveURLScan counts one scored URL
func (m *Metrics) ObserveURLScan(level domain.RiskLevel) {
	m.URLScansTotal.WithLabelValues(string(level)).Inc()
}

// IncrementDuplicatesSkipped increments the duplicates_skipped_total counter
func (m *Metrics) IncrementDuplicatesSkipped() {
	m.DuplicatesSkippedTotal.Inc()
}

// IncrementDetectorFailures counts one recovered strategy panic
func (m *Metrics) IncrementDetectorFailures(strategy string) {
	m.DetectorFailuresTotal.WithLabelValues(strategy).Inc()
}

// IncrementScanErrors counts one failure at stage (list, fetch, score, record, notify)
func (m *Metrics) IncrementScanErrors(stage string) {
	m.ScanErrorsTotal.WithLabelValues(stage).Inc()
}

// IncrementNotifications increments the notifications_total counter
func (m *Metrics) IncrementNotifications() {
	m.NotificationsTotal.Inc()
}
