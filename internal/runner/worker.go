package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ibs-source/batch/runner/golang/internal/domain"
	"github.com/ibs-source/batch/runner/golang/internal/ports"
)

// worker owns one task instance and runs until end of stream, an abort, or
// cancellation. Each worker keeps private timers that are folded into the
// shared stats under the finalize lock; the last worker to finalize closes
// the write queue so the writer sees end of stream only after every drain
// has been flushed.
func (r *Runner[I, O]) worker(ctx context.Context, id int, task Task[I, O], log ports.Logger) {
	defer r.alive.Add(-1)
	defer r.metrics.ActiveWorkers.Add(-1)

	wlog := log.WithFields(ports.F("worker", id))
	timers := &workerTimers{}
	lastPos := int64(-1)
	interrupted := false

	for {
		batch, ok, canceled := r.takeBatch(ctx, timers)
		if canceled {
			interrupted = true
			break
		}
		if !ok {
			// End-of-stream: the read queue close reaches every worker.
			break
		}
		lastPos = batch.Position

		applyStart := time.Now()
		out, err := r.applyBatch(task, batch.Items)
		timers.taskApply += time.Since(applyStart)
		if err != nil {
			r.metrics.ApplyErrors.Add(1)
			r.errs.record(fmt.Errorf("apply batch %d: %w", batch.Position, err))
			out = nil
		} else {
			r.metrics.BatchesApplied.Add(1)
			r.metrics.ItemsApplied.Add(uint64(len(out)))
		}

		// Without a reader the task is a generator; an empty non-nil result
		// is its end-of-stream signal.
		if r.readQ == nil && err == nil && out != nil && len(out) == 0 {
			break
		}
		if r.cfg.AbortOnFail && r.errs.len() > 0 {
			break
		}

		if r.writeQ != nil && out != nil {
			putStart := time.Now()
			perr := r.writeQ.Put(ctx, domain.Batch[O]{Items: out, Position: batch.Position})
			timers.blockedPutWrite += time.Since(putStart)
			r.metrics.WriteQueueDepth.Store(int32(r.writeQ.Len()))
			if perr != nil {
				interrupted = true
				break
			}
		}
	}

	if interrupted {
		wlog.Debug("worker canceled, skipping drain")
		r.mu.Lock()
		r.stats.foldWorker(timers)
		r.mu.Unlock()
		return
	}

	r.finalize(ctx, task, timers, lastPos, wlog)
}

// takeBatch acquires the next batch. Without a read queue it synthesizes an
// empty batch at the next shared position so generator tasks still see
// advancing positions.
func (r *Runner[I, O]) takeBatch(ctx context.Context, timers *workerTimers) (batch domain.Batch[I], ok, canceled bool) {
	if r.readQ == nil {
		if ctx.Err() != nil {
			return batch, false, true
		}
		// Items is non-nil so echo-style tasks return an empty (not nil)
		// result and terminate the generator loop.
		return domain.Batch[I]{Items: []I{}, Position: r.nextPos.Add(1) - 1}, true, false
	}

	takeStart := time.Now()
	b, ok, err := r.readQ.Take(ctx)
	timers.blockedTakeRead += time.Since(takeStart)
	r.metrics.ReadQueueDepth.Store(int32(r.readQ.Len()))
	if err != nil {
		return batch, false, true
	}
	return b, ok, false
}

// finalize drains the task, flushes residual output, folds the worker timers
// and counts this worker as finished. The last worker closes the write queue.
func (r *Runner[I, O]) finalize(ctx context.Context, task Task[I, O], timers *workerTimers, lastPos int64, log ports.Logger) {
	drainStart := time.Now()
	residual, err := r.drainTask(task)
	timers.taskApply += time.Since(drainStart)
	if err != nil {
		r.metrics.ApplyErrors.Add(1)
		r.errs.record(fmt.Errorf("drain: %w", err))
	} else if len(residual) > 0 && r.writeQ != nil {
		putStart := time.Now()
		perr := r.writeQ.Put(ctx, domain.Batch[O]{Items: residual, Position: lastPos + 1})
		timers.blockedPutWrite += time.Since(putStart)
		if perr != nil {
			log.Debug("worker canceled while flushing drain output")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.foldWorker(timers)
	r.finished++
	if r.finished == r.cfg.NumTasks && r.writeQ != nil {
		// Sole close of the write queue: every sibling has already flushed.
		r.writeQ.Close()
	}
	log.Debug("worker finished", ports.F("finished", r.finished))
}

func (r *Runner[I, O]) applyBatch(task Task[I, O], items []I) (out []O, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task apply panicked: %v", rec)
		}
	}()
	return task.Apply(items)
}

func (r *Runner[I, O]) drainTask(task Task[I, O]) (out []O, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task drain panicked: %v", rec)
		}
	}()
	return task.Drain()
}
