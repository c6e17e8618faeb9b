package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_SnapshotReflectsCounters(t *testing.T) {
	m := NewMetrics()
	m.BatchesRead.Add(3)
	m.ItemsRead.Add(30)
	m.BatchesWritten.Add(2)
	m.ItemsWritten.Add(20)
	m.ApplyErrors.Add(1)
	m.ActiveWorkers.Store(4)

	s := m.Snapshot()
	assert.Equal(t, uint64(3), s.BatchesRead)
	assert.Equal(t, uint64(30), s.ItemsRead)
	assert.Equal(t, uint64(2), s.BatchesWritten)
	assert.Equal(t, uint64(20), s.ItemsWritten)
	assert.Equal(t, uint64(1), s.ApplyErrors)
	assert.Equal(t, int32(4), s.ActiveWorkers)
	assert.False(t, s.Timestamp.IsZero())
}

func TestMetrics_Rates(t *testing.T) {
	m := NewMetrics()
	m.StartTime = time.Now().Add(-2 * time.Second)
	m.ItemsRead.Add(100)
	m.ItemsWritten.Add(50)

	assert.InDelta(t, 50, m.ReadRate(), 25)
	assert.InDelta(t, 25, m.WriteRate(), 15)
}

func TestMetrics_ErrorTotal(t *testing.T) {
	m := NewMetrics()
	m.ReadErrors.Add(1)
	m.ApplyErrors.Add(2)
	m.WriteErrors.Add(3)
	assert.Equal(t, uint64(6), m.ErrorTotal())
}

func TestBatch_Len(t *testing.T) {
	b := Batch[int]{Items: []int{1, 2, 3}, Position: 0}
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 0, Batch[string]{}.Len())
}
