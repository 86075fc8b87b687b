package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
)

// WorkerPool runs a Processor over queued jobs. Results must be drained by the caller;
// the results channel is closed once Shutdown has let every worker finish.
type WorkerPool struct {
	proc    Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch      chan Job
	results chan Result
	wg      sync.WaitGroup
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*WorkerPool)

func WithWorkers(n int) Option {
	return func(q *WorkerPool) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *WorkerPool) {
		if n > 0 {
			q.ch = make(chan Job, n)
			q.results = make(chan Result, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *WorkerPool) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewWorkerPool(proc Processor, logger *slog.Logger, opts ...Option) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	q := &WorkerPool{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
		results: make(chan Result, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *WorkerPool) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("async.worker.started", "worker_id", workerID)

				for job := range q.ch {
					q.results <- q.run(workerID, job)
				}

				q.logger.Debug("async.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
		go func() {
			q.wg.Wait()
			close(q.results)
		}()
	})
}

func (q *WorkerPool) run(workerID int, job Job) (res Result) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(common.WithRequestID(context.Background(), job.TraceID), q.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			res = Result{Job: job, Status: constants.JobStatusFailed, Err: fmt.Errorf("panic: %v", r)}
		}
		res.Job = job
		res.Elapsed = time.Since(start)
		if res.Err != nil {
			q.logger.Error("async.job.failed", "req_id", job.TraceID, "worker_id", workerID, "path", job.Path, "error", res.Err)
		} else {
			q.logger.Info("async.job.done", "req_id", job.TraceID, "worker_id", workerID, "path", job.Path,
				"status", res.Status, "elapsed_ms", res.Elapsed.Milliseconds())
		}
	}()

	return q.proc.Process(ctx, job)
}

// Enqueue blocks while the queue is full, until ctx is done.
func (q *WorkerPool) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("async.enqueue.closed", "path", job.Path)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.logger.Debug("async.enqueue.ok", "req_id", job.TraceID, "path", job.Path)
		return nil
	default:
	}
	q.logger.Debug("async.enqueue.backpressure", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *WorkerPool) Results() <-chan Result { return q.results }

// Shutdown stops accepting jobs and waits for queued ones to finish or ctx to end.
func (q *WorkerPool) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("async.shutdown.interrupted")
	case <-done:
		q.logger.Info("async.shutdown.drained")
	}
}

var _ Queue = (*WorkerPool)(nil)
