package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds every metric the service exports. A nil *Collector is
// valid and records nothing.
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpDuration prometheus.Histogram

	payrollRuns   *prometheus.CounterVec
	batchDuration prometheus.Histogram
	batchEntries  *prometheus.CounterVec
	settlements   *prometheus.CounterVec
	compliance    *prometheus.CounterVec
	jobRuns       *prometheus.CounterVec
}

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// New registers the metrics on reg. A nil reg builds unregistered metrics.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrpayroll_http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "status"}),
		httpDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hrpayroll_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: durationBuckets,
		}),
		payrollRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrpayroll_payroll_runs_total",
			Help: "Payroll computations by outcome",
		}, []string{"outcome"}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hrpayroll_payroll_batch_duration_seconds",
			Help:    "Duration of payroll batch runs",
			Buckets: durationBuckets,
		}),
		batchEntries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrpayroll_payroll_batch_entries_total",
			Help: "Employees processed in payroll batches by result",
		}, []string{"result"}),
		settlements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrpayroll_severance_settlements_total",
			Help: "Severance settlements by outcome",
		}, []string{"outcome"}),
		compliance: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrpayroll_compliance_checks_total",
			Help: "Compliance checks by check name and result",
		}, []string{"check", "result"}),
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrpayroll_job_runs_total",
			Help: "Background jobs by type and final status",
		}, []string{"job", "status"}),
	}
}

func (c *Collector) Record(method string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.httpDuration.Observe(duration.Seconds())
}

// PayrollRun counts one computation. outcome is "calculated" or a failure kind.
func (c *Collector) PayrollRun(outcome string) {
	if c == nil {
		return
	}
	c.payrollRuns.WithLabelValues(outcome).Inc()
}

func (c *Collector) Batch(start time.Time, succeeded, failed int) {
	if c == nil {
		return
	}
	c.batchDuration.Observe(time.Since(start).Seconds())
	c.batchEntries.WithLabelValues("succeeded").Add(float64(succeeded))
	c.batchEntries.WithLabelValues("failed").Add(float64(failed))
}

func (c *Collector) Settlement(outcome string) {
	if c == nil {
		return
	}
	c.settlements.WithLabelValues(outcome).Inc()
}

func (c *Collector) ComplianceCheck(check string, ok bool) {
	if c == nil {
		return
	}
	result := "violation"
	if ok {
		result = "ok"
	}
	c.compliance.WithLabelValues(check, result).Inc()
}

func (c *Collector) JobRun(job, status string) {
	if c == nil {
		return
	}
	c.jobRuns.WithLabelValues(job, status).Inc()
}
