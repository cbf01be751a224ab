// Package metrics exposes client operation counters for prometheus scraping
// in daemon mode.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Collector struct {
	logger   *zap.Logger
	registry *prometheus.Registry
	server   *http.Server

	opsTotal      *prometheus.CounterVec
	opDuration    *prometheus.HistogramVec
	fileOutcomes  *prometheus.CounterVec
	bytesSent     prometheus.Counter
	bytesReceived prometheus.Counter
}

func NewCollector(logger *zap.Logger) *Collector {
	c := &Collector{
		logger:   logger,
		registry: prometheus.NewRegistry(),
		opsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backup_client_operations_total",
			Help: "Completed operations by type and result",
		}, []string{"op", "result"}),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backup_client_operation_duration_seconds",
			Help:    "Operation duration by type",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		fileOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backup_client_file_outcomes_total",
			Help: "Per-file outcomes by operation and reason",
		}, []string{"op", "reason"}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backup_client_bytes_sent_total",
			Help: "Payload bytes uploaded to the server",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backup_client_bytes_received_total",
			Help: "Payload bytes downloaded from the server",
		}),
	}
	c.registry.MustRegister(c.opsTotal, c.opDuration, c.fileOutcomes, c.bytesSent, c.bytesReceived)
	return c
}

// ObserveOp records one finished operation.
func (c *Collector) ObserveOp(op string, ok bool, d time.Duration) {
	if c == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	c.opsTotal.WithLabelValues(op, result).Inc()
	c.opDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveFile records one per-file outcome.
func (c *Collector) ObserveFile(op, reason string) {
	if c == nil {
		return
	}
	c.fileOutcomes.WithLabelValues(op, reason).Inc()
}

func (c *Collector) AddBytesSent(n int) {
	if c == nil {
		return
	}
	c.bytesSent.Add(float64(n))
}

func (c *Collector) AddBytesReceived(n int) {
	if c == nil {
		return
	}
	c.bytesReceived.Add(float64(n))
}

// Start serves /metrics on listen until Stop.
func (c *Collector) Start(listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	c.server = &http.Server{Addr: listen, Handler: mux}
	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	c.logger.Info("Metrics server listening", zap.String("addr", listen))
}

func (c *Collector) Stop(ctx context.Context) error {
	if c.server == nil {
		return nil
	}
	return c.server.Shutdown(ctx)
}
