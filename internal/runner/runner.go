package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ibs-source/batch/runner/golang/internal/config"
	"github.com/ibs-source/batch/runner/golang/internal/domain"
	"github.com/ibs-source/batch/runner/golang/internal/logger"
	"github.com/ibs-source/batch/runner/golang/internal/ports"
	"github.com/ibs-source/batch/runner/golang/pkg/boundedqueue"
)

// ShutdownRetries bounds the termination guard: once the pipeline is winding
// down abnormally, the controller cancels blocked stage operations once per
// second up to this many times before giving up.
const ShutdownRetries = 30

// offerAttemptTimeout is the length of a single bounded put attempt on the
// read queue.
const offerAttemptTimeout = time.Second

// Params carries everything needed to construct a Runner. Exactly one of
// Tasks, Task or Factory must be set. Reader and Writer are both optional,
// though a pipeline without either is only useful for generator tasks.
type Params[I, O any] struct {
	Config config.PipelineConfig

	// Tasks supplies one instance per worker; its length becomes the number
	// of workers. A conflicting non-zero Config.NumTasks is rejected.
	Tasks []Task[I, O]
	// Task supplies a single instance shared by all workers.
	Task Task[I, O]
	// Factory mints one private instance per worker.
	Factory func() Task[I, O]

	Reader  Reader[I]
	Writer  Writer[O]
	Logger  ports.Logger
	Metrics *domain.Metrics
}

// Runner coordinates one reader, a pool of workers and one writer over two
// bounded queues. All mutable state is scoped to a single Run call; an
// instance cannot be reused.
type Runner[I, O any] struct {
	cfg     config.PipelineConfig
	workers []Task[I, O] // one entry per worker, possibly aliasing a shared instance
	tasks   []Task[I, O] // distinct instances, for Pre/Post exactly-once
	reader  Reader[I]
	writer  Writer[O]
	log     ports.Logger
	metrics *domain.Metrics

	readQ  *boundedqueue.Queue[domain.Batch[I]]
	writeQ *boundedqueue.Queue[domain.Batch[O]]

	// finalize lock: guards finished and the folding of worker timers.
	mu       sync.Mutex
	finished int
	preTasks int // how many task instances had Pre run; bounds Post in cleanup

	errs    errorSink
	stats   stats
	nextPos atomic.Int64
	alive   atomic.Int32
	ran     atomic.Bool
}

// New constructs a runner after validating configuration and task
// provisioning. Configuration errors are reported synchronously, before
// anything starts.
func New[I, O any](p Params[I, O]) (*Runner[I, O], error) {
	cfg := p.Config
	if cfg.ReadQueuePutTimeout == 0 {
		cfg.ReadQueuePutTimeout = config.DefaultReadQueuePutTimeout
	}

	var workers, tasks []Task[I, O]
	switch {
	case len(p.Tasks) > 0:
		if p.Task != nil || p.Factory != nil {
			return nil, fmt.Errorf("%w: supply exactly one of Tasks, Task or Factory", ErrNoTasks)
		}
		if cfg.NumTasks != 0 && cfg.NumTasks != len(p.Tasks) {
			return nil, fmt.Errorf("%w: %d tasks vs num_tasks=%d", ErrTaskCount, len(p.Tasks), cfg.NumTasks)
		}
		cfg.NumTasks = len(p.Tasks)
		workers = p.Tasks
		tasks = p.Tasks
	case p.Task != nil:
		if p.Factory != nil {
			return nil, fmt.Errorf("%w: supply exactly one of Tasks, Task or Factory", ErrNoTasks)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		workers = make([]Task[I, O], cfg.NumTasks)
		for i := range workers {
			workers[i] = p.Task
		}
		tasks = []Task[I, O]{p.Task}
	case p.Factory != nil:
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		workers = make([]Task[I, O], cfg.NumTasks)
		for i := range workers {
			workers[i] = p.Factory()
		}
		tasks = workers
	default:
		return nil, ErrNoTasks
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := p.Logger
	if log == nil {
		log = logger.Nop()
	}
	metrics := p.Metrics
	if metrics == nil {
		metrics = domain.NewMetrics()
	}

	return &Runner[I, O]{
		cfg:     cfg,
		workers: workers,
		tasks:   tasks,
		reader:  p.Reader,
		writer:  p.Writer,
		log:     log.WithFields(ports.F("component", "batch-runner")),
		metrics: metrics,
	}, nil
}

// Run executes the pipeline to completion. It returns nil on a clean run, or
// when AbortOnFail is false even if stage errors were recorded (inspect
// Exceptions). With AbortOnFail set and at least one recorded error it
// returns a *RunError wrapping the first cause. A failure during startup
// (reader/writer Open or Pre, task Pre) also returns a *RunError, whatever
// AbortOnFail says, since no worker was started.
func (r *Runner[I, O]) Run(ctx context.Context) error {
	if !r.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}

	log := r.log.WithFields(ports.F("run_id", uuid.NewString()))
	start := time.Now()
	defer func() {
		r.stats.total.Store(int64(time.Since(start)))
		r.stats.emit(log)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if r.reader != nil {
		r.readQ = boundedqueue.New[domain.Batch[I]](r.cfg.Capacity)
	}
	if r.writer != nil {
		r.writeQ = boundedqueue.New[domain.Batch[O]](r.cfg.Capacity)
	}

	log.Info("starting pipeline",
		ports.F("num_tasks", r.cfg.NumTasks),
		ports.F("batch_size", r.cfg.BatchSize),
		ports.F("capacity", r.cfg.Capacity),
		ports.F("abort_on_fail", r.cfg.AbortOnFail),
		ports.F("reader", r.reader != nil),
		ports.F("writer", r.writer != nil),
	)

	openedReader, openedWriter, ok := r.openAll(log)
	if ok {
		var wg sync.WaitGroup
		for i, task := range r.workers {
			wg.Add(1)
			r.alive.Add(1)
			r.metrics.ActiveWorkers.Add(1)
			go func(id int, task Task[I, O]) {
				defer wg.Done()
				r.worker(ctx, id, task, log)
			}(i, task)
		}
		if r.writer != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.writerLoop(ctx, log)
			}()
		}

		interrupted := false
		if r.reader != nil {
			interrupted = r.readerLoop(ctx, log)
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		if !r.awaitTermination(ctx, done, cancel, log) {
			log.Error("pipeline stages did not terminate, giving up",
				ports.F("retries", ShutdownRetries))
		}
		if interrupted || ctx.Err() != nil {
			log.Warn("pipeline run was interrupted")
		}
	}

	r.cleanup(openedReader, openedWriter, log)

	if r.cfg.AbortOnFail {
		if n := r.errs.len(); n > 0 {
			return &RunError{Count: n, First: r.errs.first()}
		}
	}
	if !ok {
		// Startup failed before any worker ran; surface it regardless of
		// AbortOnFail since nothing was processed.
		return &RunError{Count: r.errs.len(), First: r.errs.first()}
	}
	return nil
}

// Exceptions returns a copy of every error recorded during the run.
func (r *Runner[I, O]) Exceptions() []error {
	return r.errs.all()
}

// Stats returns the per-stage timing accumulated so far.
func (r *Runner[I, O]) Stats() StatsSnapshot {
	return r.stats.snapshot()
}

// openAll performs the startup sequence: reader open/pre, writer open/pre,
// then task pre, once per distinct instance. Returns which externals were
// opened and whether startup succeeded as a whole.
func (r *Runner[I, O]) openAll(log ports.Logger) (openedReader, openedWriter, ok bool) {
	if r.reader != nil {
		if err := r.reader.Open(); err != nil {
			r.errs.record(fmt.Errorf("reader open: %w", err))
			return openedReader, openedWriter, false
		}
		openedReader = true
		if err := r.reader.Pre(); err != nil {
			r.errs.record(fmt.Errorf("reader pre: %w", err))
			return openedReader, openedWriter, false
		}
	}
	if r.writer != nil {
		if err := r.writer.Open(); err != nil {
			r.errs.record(fmt.Errorf("writer open: %w", err))
			return openedReader, openedWriter, false
		}
		openedWriter = true
		if err := r.writer.Pre(); err != nil {
			r.errs.record(fmt.Errorf("writer pre: %w", err))
			return openedReader, openedWriter, false
		}
	}
	for i, task := range r.tasks {
		if err := task.Pre(); err != nil {
			r.errs.record(fmt.Errorf("task %d pre: %w", i, err))
			return openedReader, openedWriter, false
		}
		r.preTasks++
	}
	log.Debug("pipeline startup sequence complete")
	return openedReader, openedWriter, true
}

// awaitTermination waits for every stage goroutine to exit. While the
// pipeline is healthy the wait is unbounded: the end-of-stream close
// guarantees workers drain and exit. Once the run is winding down abnormally
// (caller cancellation, or AbortOnFail with recorded errors), blocked queue
// operations are cancelled once per second, up to ShutdownRetries times, in
// case a stage ignores the first cancellation.
func (r *Runner[I, O]) awaitTermination(ctx context.Context, done <-chan struct{}, cancel context.CancelFunc, log ports.Logger) bool {
	attempts := 0
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return true
		case <-ticker.C:
			aborting := ctx.Err() != nil || (r.cfg.AbortOnFail && r.errs.len() > 0)
			if !aborting {
				log.Debug("waiting for pipeline stages to finish",
					ports.F("workers_alive", r.alive.Load()))
				continue
			}
			attempts++
			cancel()
			log.Warn("cancelling blocked pipeline stages",
				ports.F("attempt", attempts),
				ports.F("max_attempts", ShutdownRetries),
				ports.F("workers_alive", r.alive.Load()),
			)
			if attempts >= ShutdownRetries {
				return false
			}
		}
	}
}

// cleanup runs the teardown sequence exactly once per component, after all
// stage goroutines have exited: task post, reader post/close, writer
// post/close. Errors are recorded, never raised here.
func (r *Runner[I, O]) cleanup(openedReader, openedWriter bool, log ports.Logger) {
	for i, task := range r.tasks {
		if i >= r.preTasks {
			break
		}
		if err := r.post(task); err != nil {
			r.errs.record(fmt.Errorf("task %d post: %w", i, err))
		}
	}
	if r.reader != nil && openedReader {
		if err := r.reader.Post(); err != nil {
			r.errs.record(fmt.Errorf("reader post: %w", err))
		}
		if err := r.reader.Close(); err != nil {
			r.errs.record(fmt.Errorf("reader close: %w", err))
		}
	}
	if r.writer != nil && openedWriter {
		if err := r.writer.Post(); err != nil {
			r.errs.record(fmt.Errorf("writer post: %w", err))
		}
		if err := r.writer.Close(); err != nil {
			r.errs.record(fmt.Errorf("writer close: %w", err))
		}
	}
	log.Debug("pipeline cleanup complete", ports.F("errors", r.errs.len()))
}

func (r *Runner[I, O]) post(task Task[I, O]) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task post panicked: %v", rec)
		}
	}()
	return task.Post()
}
