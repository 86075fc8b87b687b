package budget

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/async"
)

// FileProcessor extracts one PDF from disk per job and optionally saves valid records.
type FileProcessor struct {
	svc      *Service
	backend  string
	save     bool
	maxBytes int64
}

func NewFileProcessor(svc *Service, backend string, save bool, maxBytes int64) *FileProcessor {
	return &FileProcessor{svc: svc, backend: backend, save: save, maxBytes: maxBytes}
}

func (p *FileProcessor) Process(ctx context.Context, job async.Job) async.Result {
	fail := func(err error) async.Result {
		return async.Result{Status: constants.JobStatusFailed, Err: err}
	}

	if p.maxBytes > 0 {
		info, err := os.Stat(job.Path)
		if err != nil {
			return fail(err)
		}
		if info.Size() > p.maxBytes {
			return fail(fmt.Errorf("%s is %d bytes, limit is %d", job.Path, info.Size(), p.maxBytes))
		}
	}
	data, err := os.ReadFile(job.Path)
	if err != nil {
		return fail(err)
	}

	res, err := p.svc.Extract(ctx, filepath.Base(job.Path), data, p.backend)
	if err != nil {
		return fail(err)
	}
	out := async.Result{Extraction: res, Status: constants.JobStatusExtracted}
	if !res.Valid() {
		out.Status = constants.JobStatusInvalid
		return out
	}
	if !p.save {
		return out
	}

	id, _, err := p.svc.Save(ctx, res.Record)
	if err != nil {
		out.Status = constants.JobStatusFailed
		out.Err = err
		return out
	}
	out.ProjectID = id
	out.Status = constants.JobStatusSaved
	return out
}

var _ async.Processor = (*FileProcessor)(nil)
