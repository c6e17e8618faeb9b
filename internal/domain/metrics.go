package domain

import (
	"sync/atomic"
	"time"
)

// Metrics holds atomic runtime metrics for a pipeline. All counters are safe
// for concurrent use from every stage.
type Metrics struct {
	// Throughput
	BatchesRead    atomic.Uint64
	ItemsRead      atomic.Uint64
	BatchesApplied atomic.Uint64
	ItemsApplied   atomic.Uint64
	BatchesWritten atomic.Uint64
	ItemsWritten   atomic.Uint64

	// Errors per stage
	ReadErrors  atomic.Uint64
	ApplyErrors atomic.Uint64
	WriteErrors atomic.Uint64

	// Saturation
	ActiveWorkers   atomic.Int32
	ReadQueueDepth  atomic.Int32
	WriteQueueDepth atomic.Int32

	// Start time for rate calculations
	StartTime time.Time
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// ReadRate returns items read per second since StartTime.
func (m *Metrics) ReadRate() float64 {
	elapsed := time.Since(m.StartTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.ItemsRead.Load()) / elapsed
}

// WriteRate returns items written per second since StartTime.
func (m *Metrics) WriteRate() float64 {
	elapsed := time.Since(m.StartTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.ItemsWritten.Load()) / elapsed
}

// ErrorTotal returns the total error count across all stages.
func (m *Metrics) ErrorTotal() uint64 {
	return m.ReadErrors.Load() + m.ApplyErrors.Load() + m.WriteErrors.Load()
}

// MetricsSnapshot represents a point-in-time metrics snapshot
type MetricsSnapshot struct {
	Timestamp       time.Time
	BatchesRead     uint64
	ItemsRead       uint64
	BatchesApplied  uint64
	ItemsApplied    uint64
	BatchesWritten  uint64
	ItemsWritten    uint64
	ReadErrors      uint64
	ApplyErrors     uint64
	WriteErrors     uint64
	ReadRate        float64
	WriteRate       float64
	ActiveWorkers   int32
	ReadQueueDepth  int32
	WriteQueueDepth int32
}

// Snapshot creates a point-in-time snapshot of metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Timestamp:       time.Now(),
		BatchesRead:     m.BatchesRead.Load(),
		ItemsRead:       m.ItemsRead.Load(),
		BatchesApplied:  m.BatchesApplied.Load(),
		ItemsApplied:    m.ItemsApplied.Load(),
		BatchesWritten:  m.BatchesWritten.Load(),
		ItemsWritten:    m.ItemsWritten.Load(),
		ReadErrors:      m.ReadErrors.Load(),
		ApplyErrors:     m.ApplyErrors.Load(),
		WriteErrors:     m.WriteErrors.Load(),
		ReadRate:        m.ReadRate(),
		WriteRate:       m.WriteRate(),
		ActiveWorkers:   m.ActiveWorkers.Load(),
		ReadQueueDepth:  m.ReadQueueDepth.Load(),
		WriteQueueDepth: m.WriteQueueDepth.Load(),
	}
}
