package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ibs-source/batch/runner/golang/internal/domain"
	"github.com/ibs-source/batch/runner/golang/internal/ports"
)

// readerLoop runs on the caller's goroutine. It pulls batches from the reader
// and puts them on the read queue until end of stream, a read error, an abort
// or a stuck queue. The queue is closed exactly once on every exit path: that
// close is the end-of-stream signal observed by all workers. Returns true
// when the loop stopped because the context ended.
func (r *Runner[I, O]) readerLoop(ctx context.Context, log ports.Logger) bool {
	defer r.readQ.Close()

	// Budget of consecutive failed one-second offers before the queue is
	// declared stuck. A sub-second timeout still allows one attempt.
	budget := int(r.cfg.ReadQueuePutTimeout / offerAttemptTimeout)

	for {
		if ctx.Err() != nil {
			return true
		}

		readStart := time.Now()
		items, err := r.readBatch()
		r.stats.reading.Add(int64(time.Since(readStart)))
		if err != nil {
			r.metrics.ReadErrors.Add(1)
			r.errs.record(fmt.Errorf("read batch %d: %w", r.nextPos.Load(), err))
			return false
		}
		if len(items) == 0 {
			log.Debug("reader reached end of stream",
				ports.F("batches", r.nextPos.Load()))
			return false
		}

		batch := domain.Batch[I]{Items: items, Position: r.nextPos.Add(1) - 1}
		r.metrics.BatchesRead.Add(1)
		r.metrics.ItemsRead.Add(uint64(len(items)))

		interrupted, ok := r.offerLoop(ctx, batch, budget, log)
		if interrupted {
			return true
		}
		if !ok {
			return false
		}

		if r.cfg.AbortOnFail && r.errs.len() > 0 {
			log.Debug("reader stopping after recorded errors")
			return false
		}
	}
}

// offerLoop attempts bounded puts of one batch onto the read queue. After
// every failed attempt it checks worker liveness and the consecutive-failure
// budget; a full queue with no consumers, or an exhausted budget, is fatal
// to the reader.
func (r *Runner[I, O]) offerLoop(ctx context.Context, batch domain.Batch[I], budget int, log ports.Logger) (interrupted, ok bool) {
	failures := 0
	for {
		if ctx.Err() != nil {
			return true, false
		}

		offerStart := time.Now()
		accepted := r.readQ.Offer(batch, offerAttemptTimeout)
		r.stats.blockedPutRead.Add(int64(time.Since(offerStart)))
		r.metrics.ReadQueueDepth.Store(int32(r.readQ.Len()))
		if accepted {
			return false, true
		}

		if r.alive.Load() == 0 && r.readQ.Len() > 0 {
			r.errs.record(fmt.Errorf("%w: %d batches still queued", ErrOrphanedQueue, r.readQ.Len()))
			return false, false
		}

		failures++
		if failures > budget {
			r.errs.record(fmt.Errorf("%w: queue full with %d batches after %d attempts",
				ErrStuckQueue, r.readQ.Len(), failures))
			return false, false
		}
		log.Debug("read queue full, retrying put",
			ports.F("attempt", failures),
			ports.F("queue_depth", r.readQ.Len()),
		)
	}
}

// readBatch invokes the reader with panic containment: a panicking source is
// recorded as a read error rather than unwinding the caller's goroutine.
func (r *Runner[I, O]) readBatch() (items []I, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("reader panicked: %v", rec)
		}
	}()
	return r.reader.Read(r.cfg.BatchSize)
}
