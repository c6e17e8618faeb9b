// Package metrics exposes the pipeline's runtime counters to Prometheus.
// The collector reads domain.Metrics from the outside; the runner itself
// stays decoupled from any reporting system.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ibs-source/batch/runner/golang/internal/domain"
)

// Collector implements prometheus.Collector over a domain.Metrics instance.
type Collector struct {
	m *domain.Metrics

	batchesRead    *prometheus.Desc
	itemsRead      *prometheus.Desc
	batchesApplied *prometheus.Desc
	itemsApplied   *prometheus.Desc
	batchesWritten *prometheus.Desc
	itemsWritten   *prometheus.Desc
	stageErrors    *prometheus.Desc
	activeWorkers  *prometheus.Desc
	queueDepth     *prometheus.Desc
}

// NewCollector creates a collector reading from m.
func NewCollector(m *domain.Metrics) *Collector {
	return &Collector{
		m: m,
		batchesRead: prometheus.NewDesc(
			"batchrunner_batches_read_total",
			"Total number of batches pulled from the source", nil, nil),
		itemsRead: prometheus.NewDesc(
			"batchrunner_items_read_total",
			"Total number of items pulled from the source", nil, nil),
		batchesApplied: prometheus.NewDesc(
			"batchrunner_batches_applied_total",
			"Total number of batches transformed by workers", nil, nil),
		itemsApplied: prometheus.NewDesc(
			"batchrunner_items_applied_total",
			"Total number of items produced by workers", nil, nil),
		batchesWritten: prometheus.NewDesc(
			"batchrunner_batches_written_total",
			"Total number of batches handed to the sink", nil, nil),
		itemsWritten: prometheus.NewDesc(
			"batchrunner_items_written_total",
			"Total number of items handed to the sink", nil, nil),
		stageErrors: prometheus.NewDesc(
			"batchrunner_stage_errors_total",
			"Total number of errors recorded per stage", []string{"stage"}, nil),
		activeWorkers: prometheus.NewDesc(
			"batchrunner_active_workers",
			"Current number of running workers", nil, nil),
		queueDepth: prometheus.NewDesc(
			"batchrunner_queue_depth",
			"Current number of batches buffered per queue", []string{"queue"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.batchesRead
	ch <- c.itemsRead
	ch <- c.batchesApplied
	ch <- c.itemsApplied
	ch <- c.batchesWritten
	ch <- c.itemsWritten
	ch <- c.stageErrors
	ch <- c.activeWorkers
	ch <- c.queueDepth
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	counter := func(d *prometheus.Desc, v uint64, labels ...string) prometheus.Metric {
		return prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	gauge := func(d *prometheus.Desc, v float64, labels ...string) prometheus.Metric {
		return prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}

	ch <- counter(c.batchesRead, c.m.BatchesRead.Load())
	ch <- counter(c.itemsRead, c.m.ItemsRead.Load())
	ch <- counter(c.batchesApplied, c.m.BatchesApplied.Load())
	ch <- counter(c.itemsApplied, c.m.ItemsApplied.Load())
	ch <- counter(c.batchesWritten, c.m.BatchesWritten.Load())
	ch <- counter(c.itemsWritten, c.m.ItemsWritten.Load())
	ch <- counter(c.stageErrors, c.m.ReadErrors.Load(), "read")
	ch <- counter(c.stageErrors, c.m.ApplyErrors.Load(), "apply")
	ch <- counter(c.stageErrors, c.m.WriteErrors.Load(), "write")
	ch <- gauge(c.activeWorkers, float64(c.m.ActiveWorkers.Load()))
	ch <- gauge(c.queueDepth, float64(c.m.ReadQueueDepth.Load()), "read")
	ch <- gauge(c.queueDepth, float64(c.m.WriteQueueDepth.Load()), "write")
}

// NewRegistry returns a registry with the pipeline collector registered.
func NewRegistry(m *domain.Metrics) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(m))
	return reg
}

// NewServer builds the /metrics HTTP server for the given port.
func NewServer(m *domain.Metrics, port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(NewRegistry(m), promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
