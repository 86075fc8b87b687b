package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one PDF to extract.
type Job struct {
	ID          uuid.UUID
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

func NewJob(path string) Job {
	id := uuid.New()
	return Job{ID: id, Path: path, SubmittedAt: time.Now(), TraceID: id.String()}
}

type Result struct {
	Job        Job
	Status     constants.JobStatus
	Extraction entity.ExtractionResult
	ProjectID  int64
	Err        error
	Elapsed    time.Duration
}

type Processor interface {
	Process(ctx context.Context, job Job) Result
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job Job) Result

func (f ProcessorFunc) Process(ctx context.Context, job Job) Result { return f(ctx, job) }

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Results() <-chan Result
	Shutdown(ctx context.Context)
}
