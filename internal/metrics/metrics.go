package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's collectors. A nil *Metrics, or one built with a
// nil registerer, records nothing.
type Metrics struct {
	scanOutcomes      *prometheus.CounterVec
	ignoredTriggers   *prometheus.CounterVec
	liveSubscriptions prometheus.Gauge
	reportDuration    *prometheus.HistogramVec
	jobDuration       *prometheus.HistogramVec
	jobSuccess        *prometheus.CounterVec
	jobFailure        *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		scanOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scan_outcomes_total",
			Help: "Processed QR scans by outcome.",
		}, []string{"outcome"}),
		ignoredTriggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scan_ignored_triggers_total",
			Help: "Scan triggers dropped because the session was not idle.",
		}, []string{"state"}),
		liveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "live_subscriptions",
			Help: "Open change-feed subscriptions.",
		}),
		reportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "report_duration_seconds",
			Help:    "Time spent building reports.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Duration of scheduled jobs in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		jobSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_success",
			Help: "Successful scheduled job executions.",
		}, []string{"job"}),
		jobFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_failure",
			Help: "Failed scheduled job executions.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.scanOutcomes, m.ignoredTriggers, m.liveSubscriptions, m.reportDuration,
		m.jobDuration, m.jobSuccess, m.jobFailure)
	return m
}

func (m *Metrics) ScanOutcome(outcome string) {
	if m == nil || m.scanOutcomes == nil {
		return
	}
	m.scanOutcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) IgnoredTrigger(state string) {
	if m == nil || m.ignoredTriggers == nil {
		return
	}
	m.ignoredTriggers.WithLabelValues(normalizeLabel(state)).Inc()
}

// SubscriptionOpened and SubscriptionClosed track live change-feed listeners.
func (m *Metrics) SubscriptionOpened() {
	if m == nil || m.liveSubscriptions == nil {
		return
	}
	m.liveSubscriptions.Inc()
}

func (m *Metrics) SubscriptionClosed() {
	if m == nil || m.liveSubscriptions == nil {
		return
	}
	m.liveSubscriptions.Dec()
}

func (m *Metrics) ObserveReport(kind string, d time.Duration) {
	if m == nil || m.reportDuration == nil {
		return
	}
	m.reportDuration.WithLabelValues(normalizeLabel(kind)).Observe(d.Seconds())
}

// ObserveJob records one run of a scheduled job.
func (m *Metrics) ObserveJob(job string, d time.Duration, err error) {
	if m == nil || m.jobDuration == nil {
		return
	}
	job = normalizeLabel(job)
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
	if err != nil {
		m.jobFailure.WithLabelValues(job).Inc()
		return
	}
	m.jobSuccess.WithLabelValues(job).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
