package utils

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector tracks performance metrics across the system.
// A nil collector is valid and records nothing.
type MetricsCollector struct {
	requests        *prometheus.CounterVec
	errors          *prometheus.CounterVec
	operationTimes  *prometheus.HistogramVec
	partialWrites   *prometheus.CounterVec
	systemStartTime time.Time
}

func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	mc := &MetricsCollector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reviews_operations_total",
			Help: "Total number of review engine operations",
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reviews_operation_errors_total",
			Help: "Total number of failed review engine operations",
		}, []string{"operation", "code"}),
		operationTimes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reviews_operation_duration_seconds",
			Help:    "Latency of review engine operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		partialWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reviews_partial_write_failures_total",
			Help: "Mirror and aggregate writes that failed after the primary write succeeded",
		}, []string{"operation"}),
		systemStartTime: time.Now(),
	}
	if reg != nil {
		reg.MustRegister(mc.requests, mc.errors, mc.operationTimes, mc.partialWrites)
	}
	return mc
}

func (mc *MetricsCollector) IncrementRequests(operation string) {
	if mc == nil {
		return
	}
	mc.requests.WithLabelValues(operation).Inc()
}

func (mc *MetricsCollector) IncrementErrors(operation, code string) {
	if mc == nil {
		return
	}
	mc.errors.WithLabelValues(operation, code).Inc()
}

func (mc *MetricsCollector) AddOperationLatency(operation string, duration time.Duration) {
	if mc == nil {
		return
	}
	mc.operationTimes.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncrementPartialWrites counts a secondary write that was logged and dropped.
func (mc *MetricsCollector) IncrementPartialWrites(operation string) {
	if mc == nil {
		return
	}
	mc.partialWrites.WithLabelValues(operation).Inc()
}

// Observe records one finished operation: count, latency and, on failure, the error code.
func (mc *MetricsCollector) Observe(operation string, start time.Time, err error) {
	if mc == nil {
		return
	}
	mc.IncrementRequests(operation)
	mc.AddOperationLatency(operation, time.Since(start))
	if err != nil {
		code := ErrDatabase
		if appErr := ToAppError(err, ""); appErr != nil {
			code = appErr.Code
		}
		mc.IncrementErrors(operation, code)
	}
}

func (mc *MetricsCollector) Uptime() time.Duration {
	if mc == nil {
		return 0
	}
	return time.Since(mc.systemStartTime)
}

// RequestsCounter exposes the counter behind IncrementRequests for one operation.
func (mc *MetricsCollector) RequestsCounter(operation string) prometheus.Counter {
	return mc.requests.WithLabelValues(operation)
}
