package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ibs-source/batch/runner/golang/internal/ports"
)

// writerLoop is the single consumer of the write queue. It runs until the
// queue is closed by the last worker, the context ends, or an abort. It never
// closes the queue itself.
func (r *Runner[I, O]) writerLoop(ctx context.Context, log ports.Logger) {
	wlog := log.WithFields(ports.F("component", "writer"))
	for {
		takeStart := time.Now()
		batch, ok, err := r.writeQ.Take(ctx)
		r.stats.blockedTakeWrite.Add(int64(time.Since(takeStart)))
		r.metrics.WriteQueueDepth.Store(int32(r.writeQ.Len()))
		if err != nil {
			wlog.Debug("writer canceled, discarding queued output")
			return
		}
		if !ok {
			wlog.Debug("writer reached end of stream")
			return
		}

		writeStart := time.Now()
		werr := r.writeBatch(batch.Items)
		r.stats.writing.Add(int64(time.Since(writeStart)))
		if werr != nil {
			r.metrics.WriteErrors.Add(1)
			r.errs.record(fmt.Errorf("write batch %d: %w", batch.Position, werr))
		} else {
			r.metrics.BatchesWritten.Add(1)
			r.metrics.ItemsWritten.Add(uint64(len(batch.Items)))
		}

		if r.cfg.AbortOnFail && r.errs.len() > 0 {
			wlog.Debug("writer stopping after recorded errors")
			return
		}
	}
}

func (r *Runner[I, O]) writeBatch(items []O) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("writer panicked: %v", rec)
		}
	}()
	return r.writer.Write(items)
}
