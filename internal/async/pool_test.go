package async

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
)

func collect(q *WorkerPool) []Result {
	var out []Result
	for r := range q.Results() {
		out = append(out, r)
	}
	return out
}

func TestWorkerPool_ProcessesEveryJob(t *testing.T) {
	var calls atomic.Int32
	proc := ProcessorFunc(func(ctx context.Context, job Job) Result {
		calls.Add(1)
		assert.Equal(t, job.TraceID, common.RequestIDFromContext(ctx))
		return Result{Status: constants.JobStatusExtracted}
	})
	q := NewWorkerPool(proc, nil, WithWorkers(3), WithQueueSize(2))

	done := make(chan []Result)
	go func() { done <- collect(q) }()

	paths := []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"}
	for _, p := range paths {
		require.NoError(t, q.Enqueue(context.Background(), NewJob(p)))
	}
	q.Shutdown(context.Background())

	results := <-done
	require.Len(t, results, len(paths))
	assert.EqualValues(t, len(paths), calls.Load())

	got := make([]string, 0, len(results))
	for _, r := range results {
		got = append(got, r.Job.Path)
		assert.Equal(t, constants.JobStatusExtracted, r.Status)
	}
	sort.Strings(got)
	assert.Equal(t, paths, got)
}

func TestWorkerPool_RecoversPanics(t *testing.T) {
	proc := ProcessorFunc(func(context.Context, Job) Result { panic("boom") })
	q := NewWorkerPool(proc, nil, WithWorkers(1))

	require.NoError(t, q.Enqueue(context.Background(), NewJob("x.pdf")))
	q.Shutdown(context.Background())

	results := collect(q)
	require.Len(t, results, 1)
	assert.Equal(t, constants.JobStatusFailed, results[0].Status)
	assert.ErrorContains(t, results[0].Err, "boom")
	assert.Equal(t, "x.pdf", results[0].Job.Path)
}

func TestWorkerPool_EnqueueAfterShutdown(t *testing.T) {
	q := NewWorkerPool(ProcessorFunc(func(context.Context, Job) Result { return Result{} }), nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), NewJob("late.pdf"))
	assert.True(t, errors.Is(err, ErrQueueClosed))
	assert.Empty(t, collect(q))
}

func TestWorkerPool_ProcessTimeout(t *testing.T) {
	proc := ProcessorFunc(func(ctx context.Context, _ Job) Result {
		<-ctx.Done()
		return Result{Status: constants.JobStatusFailed, Err: ctx.Err()}
	})
	q := NewWorkerPool(proc, nil, WithWorkers(1), WithProcessTimeout(20*time.Millisecond))

	require.NoError(t, q.Enqueue(context.Background(), NewJob("slow.pdf")))
	q.Shutdown(context.Background())

	results := collect(q)
	require.Len(t, results, 1)
	assert.True(t, errors.Is(results[0].Err, context.DeadlineExceeded))
	assert.GreaterOrEqual(t, results[0].Elapsed, 20*time.Millisecond)
}
