// Package runner implements a bounded parallel batch pipeline: a single
// reader feeding a bounded queue, a pool of workers applying a task to each
// batch, and an optional single writer consuming the results through a second
// bounded queue. The runner owns the coordination protocol only; sources,
// sinks and task bodies are supplied by the caller.
package runner

// Task transforms batches of input items into batches of output items.
// Pre and Post run exactly once per instance. Apply runs any number of times,
// including zero. Drain runs exactly once after the last Apply on the same
// instance and yields any residual output the task buffered internally.
//
// When a single instance is shared across workers, thread safety of Apply is
// the caller's responsibility.
type Task[I, O any] interface {
	Pre() error
	Apply(items []I) ([]O, error)
	Drain() ([]O, error)
	Post() error
}

// Reader produces the input stream in batches. Open and Pre run once before
// the first Read; Post and Close once after the last. Read returns up to max
// items; an empty or nil result signals end of stream.
type Reader[I any] interface {
	Open() error
	Pre() error
	Read(max int) ([]I, error)
	Post() error
	Close() error
}

// Writer consumes transformed batches. Open and Pre run once before the first
// Write; Post and Close once after the last.
type Writer[O any] interface {
	Open() error
	Pre() error
	Write(items []O) error
	Post() error
	Close() error
}

// TaskFunc adapts a plain batch function to the Task interface with no-op
// Pre, Drain and Post.
type TaskFunc[I, O any] func(items []I) ([]O, error)

// Pre implements Task.
func (f TaskFunc[I, O]) Pre() error { return nil }

// Apply implements Task.
func (f TaskFunc[I, O]) Apply(items []I) ([]O, error) { return f(items) }

// Drain implements Task.
func (f TaskFunc[I, O]) Drain() ([]O, error) { return nil, nil }

// Post implements Task.
func (f TaskFunc[I, O]) Post() error { return nil }
