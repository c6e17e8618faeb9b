// Package boundedqueue implements a fixed-capacity FIFO handoff queue for
// pipeline stages. A queue is backed by a buffered channel: Put and Take block
// until space or data is available, Offer gives up after a deadline, and Close
// signals end-of-stream to every consumer.
package boundedqueue

import (
	"context"
	"errors"
	"time"
)

// ErrCanceled is returned by Put and Take when the supplied context ends
// before the operation completes.
var ErrCanceled = errors.New("boundedqueue: operation canceled")

// Queue is a bounded multi-producer multi-consumer FIFO.
// Close must be called exactly once, by the producer side, after the last Put.
type Queue[T any] struct {
	ch chan T
}

// New creates a queue holding at most capacity elements.
// Capacity must be at least 1.
func New[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		panic("boundedqueue: capacity must be at least 1")
	}
	return &Queue[T]{ch: make(chan T, capacity)}
}

// Put blocks until the value is enqueued or ctx ends.
// Calling Put after Close is a protocol violation and panics.
func (q *Queue[T]) Put(ctx context.Context, v T) error {
	select {
	case q.ch <- v:
		return nil
	case <-ctx.Done():
		return ErrCanceled
	}
}

// Offer attempts to enqueue the value, giving up after timeout.
// Returns false if the queue stayed full for the whole interval.
func (q *Queue[T]) Offer(v T, timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case q.ch <- v:
		return true
	case <-t.C:
		return false
	}
}

// Take blocks until a value is available, the queue is closed and drained, or
// ctx ends. The second return is false once the queue is exhausted.
func (q *Queue[T]) Take(ctx context.Context) (T, bool, error) {
	select {
	case v, ok := <-q.ch:
		if !ok {
			var zero T
			return zero, false, nil
		}
		return v, true, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ErrCanceled
	}
}

// Close marks the end of the stream. Values already enqueued remain readable;
// subsequent Takes drain them and then report exhaustion.
func (q *Queue[T]) Close() {
	close(q.ch)
}

// Len returns the number of elements currently buffered.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the fixed capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}
