// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 任务指标
	jobsTotal   *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec

	// Provider 指标
	providerRequestsTotal *prometheus.CounterVec
	providerPollAttempts  *prometheus.HistogramVec

	// HTTP 指标
	httpRequestsTotal *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器并注册到 reg
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	factory := func(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
		v := prometheus.NewCounterVec(opts, labels)
		reg.MustRegister(v)
		return v
	}

	c.jobsTotal = factory(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_total",
		Help:      "Total number of generation jobs processed",
	}, []string{"type", "status"})

	c.jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "End-to-end generation job duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"type", "provider"})
	reg.MustRegister(c.jobDuration)

	c.providerRequestsTotal = factory(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_requests_total",
		Help:      "Total number of outbound provider API calls",
	}, []string{"provider", "operation", "status"})

	c.providerPollAttempts = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_poll_attempts",
		Help:      "Number of poll attempts per provider task",
		Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
	}, []string{"provider"})
	reg.MustRegister(c.providerPollAttempts)

	c.httpRequestsTotal = factory(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	return c
}

// RecordJob 记录一次任务处理结果
func (c *Collector) RecordJob(jobType, status string) {
	c.jobsTotal.WithLabelValues(jobType, status).Inc()
}

// RecordJobDuration 记录任务耗时
func (c *Collector) RecordJobDuration(jobType, provider string, d time.Duration) {
	c.jobDuration.WithLabelValues(jobType, provider).Observe(d.Seconds())
}

// RecordProviderRequest 记录一次 provider 调用
func (c *Collector) RecordProviderRequest(provider, operation, status string) {
	c.providerRequestsTotal.WithLabelValues(provider, operation, status).Inc()
}

// RecordPollAttempts 记录轮询次数
func (c *Collector) RecordPollAttempts(provider string, attempts int) {
	c.providerPollAttempts.WithLabelValues(provider).Observe(float64(attempts))
}

// RecordHTTPRequest 记录一次 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path, status string) {
	c.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
}
