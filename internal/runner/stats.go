package runner

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ibs-source/batch/runner/golang/internal/ports"
	"github.com/ibs-source/batch/runner/golang/internal/timeutil"
)

// stats accumulates per-stage wall-clock time for one run. All deltas come
// from the monotonic clock (time.Since) on both ends; values are nanoseconds.
// Reader and writer write their own fields from their own goroutines; worker
// timers are folded in under the finalize lock.
type stats struct {
	reading          atomic.Int64
	blockedPutRead   atomic.Int64
	blockedTakeRead  atomic.Int64
	taskApply        atomic.Int64
	blockedPutWrite  atomic.Int64
	blockedTakeWrite atomic.Int64
	writing          atomic.Int64
	total            atomic.Int64
}

// workerTimers is the per-worker scratch record, owned by one worker
// goroutine until folded into the shared stats.
type workerTimers struct {
	blockedTakeRead time.Duration
	taskApply       time.Duration
	blockedPutWrite time.Duration
}

func (s *stats) foldWorker(w *workerTimers) {
	s.blockedTakeRead.Add(int64(w.blockedTakeRead))
	s.taskApply.Add(int64(w.taskApply))
	s.blockedPutWrite.Add(int64(w.blockedPutWrite))
}

// StatsSnapshot reports the accumulated per-stage times of a run.
type StatsSnapshot struct {
	TimeReading            time.Duration
	TimeBlockedAtPutRead   time.Duration
	TimeBlockedAtTakeRead  time.Duration
	TimeTaskApply          time.Duration
	TimeBlockedAtPutWrite  time.Duration
	TimeBlockedAtTakeWrite time.Duration
	TimeWriting            time.Duration
	Total                  time.Duration
}

func (s *stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		TimeReading:            time.Duration(s.reading.Load()),
		TimeBlockedAtPutRead:   time.Duration(s.blockedPutRead.Load()),
		TimeBlockedAtTakeRead:  time.Duration(s.blockedTakeRead.Load()),
		TimeTaskApply:          time.Duration(s.taskApply.Load()),
		TimeBlockedAtPutWrite:  time.Duration(s.blockedPutWrite.Load()),
		TimeBlockedAtTakeWrite: time.Duration(s.blockedTakeWrite.Load()),
		TimeWriting:            time.Duration(s.writing.Load()),
		Total:                  time.Duration(s.total.Load()),
	}
}

// emit writes one human-readable timing line per stage, in seconds with
// nanosecond resolution.
func (s *stats) emit(log ports.Logger) {
	snap := s.snapshot()
	lines := []struct {
		name string
		d    time.Duration
	}{
		{"timeReading", snap.TimeReading},
		{"timeBlockedAtPutRead", snap.TimeBlockedAtPutRead},
		{"timeBlockedAtTakeRead", snap.TimeBlockedAtTakeRead},
		{"timeTaskApply", snap.TimeTaskApply},
		{"timeBlockedAtPutWrite", snap.TimeBlockedAtPutWrite},
		{"timeBlockedAtTakeWrite", snap.TimeBlockedAtTakeWrite},
		{"timeWriting", snap.TimeWriting},
		{"total", snap.Total},
	}
	for _, l := range lines {
		log.Debug("pipeline timing",
			ports.F("stage", l.name),
			ports.F("seconds", fmt.Sprintf("%.9f", timeutil.Seconds(l.d))),
		)
	}
}
