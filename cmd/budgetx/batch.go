package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/async"
	"github.com/joseph-ayodele/budget-extractor/internal/budget"
	"github.com/joseph-ayodele/budget-extractor/internal/ingest"
)

func newBatchCmd(c *cli) *cobra.Command {
	var (
		save    bool
		workers int
		watch   bool
		hidden  bool
	)
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Extract every PDF under a directory",
		Long: `Extract every PDF under a directory using a pool of workers. With --save, valid
records are stored; invalid ones are reported with their violations. With --watch the
command keeps running and processes PDFs as they appear.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := c.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if workers <= 0 {
				workers = c.cfg.Batch.Workers
			}
			pool := async.NewWorkerPool(
				budget.NewFileProcessor(a.svc, "", save, c.cfg.Server.MaxUploadBytes),
				c.logger,
				async.WithWorkers(workers),
				async.WithQueueSize(c.cfg.Batch.QueueSize),
				async.WithProcessTimeout(c.cfg.Batch.Timeout),
			)

			if watch {
				return c.watchDir(ctx, pool, args[0], hidden)
			}
			return c.scanDir(ctx, pool, args[0], hidden)
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "save valid records")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent extractions (default batch.workers)")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep watching the directory for new PDFs")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "include hidden files and directories")
	return cmd
}

const defaultWatchDebounce = 500 * time.Millisecond

type batchTally map[constants.JobStatus]int

func (c *cli) scanDir(ctx context.Context, pool *async.WorkerPool, root string, hidden bool) error {
	out := c.ui()
	paths, _, err := ingest.Scan(ctx, root, ingest.ScanOptions{SkipHidden: !hidden, MaxBytes: c.cfg.Server.MaxUploadBytes}, c.logger)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		out.Info("no PDF files under %s", root)
		pool.Shutdown(ctx)
		return nil
	}

	go func() {
		defer pool.Shutdown(context.Background())
		for _, p := range paths {
			if err := pool.Enqueue(ctx, async.NewJob(p)); err != nil {
				c.logger.Warn("batch.enqueue_failed", "path", p, "error", err)
				return
			}
		}
	}()

	bar := out.ProgressBar(len(paths), "extracting")
	tally := batchTally{}
	var problems []async.Result
	for res := range pool.Results() {
		_ = bar.Add(1)
		tally[res.Status]++
		if res.Status == constants.JobStatusFailed || res.Status == constants.JobStatusInvalid {
			problems = append(problems, res)
		}
	}
	_ = bar.Finish()

	for _, res := range problems {
		name, _ := filepath.Rel(root, res.Job.Path)
		if res.Err != nil {
			out.Error("%s: %v", name, res.Err)
			continue
		}
		out.Warning("%s:", name)
		out.Violations(res.Extraction.ValidationErrors)
	}
	c.printTally(tally)

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if tally[constants.JobStatusFailed] > 0 {
		return fmt.Errorf("%d of %d files failed", tally[constants.JobStatusFailed], len(paths))
	}
	return nil
}

func (c *cli) watchDir(ctx context.Context, pool *async.WorkerPool, root string, hidden bool) error {
	out := c.ui()
	events, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		Debounce:    defaultWatchDebounce,
		SkipHidden:  !hidden,
	}, c.logger)
	if err != nil {
		return err
	}

	go func() {
		defer pool.Shutdown(context.Background())
		for {
			select {
			case p, ok := <-events:
				if !ok {
					return
				}
				if err := pool.Enqueue(ctx, async.NewJob(p)); err != nil {
					return
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				out.Error("watch: %v", err)
			}
		}
	}()

	out.Info("watching %s, press Ctrl+C to stop", root)
	tally := batchTally{}
	for res := range pool.Results() {
		tally[res.Status]++
		name := filepath.Base(res.Job.Path)
		switch res.Status {
		case constants.JobStatusSaved:
			out.Success("%s: saved as project %d", name, res.ProjectID)
		case constants.JobStatusExtracted:
			out.Success("%s: %d items, valid", name, len(res.Extraction.Record.BudgetItems))
		case constants.JobStatusInvalid:
			out.Warning("%s: %d issue(s)", name, len(res.Extraction.ValidationErrors))
			out.Violations(res.Extraction.ValidationErrors)
		default:
			out.Error("%s: %v", name, res.Err)
		}
	}
	c.printTally(tally)
	return nil
}

func (c *cli) printTally(t batchTally) {
	c.ui().Info("saved %d, valid %d, invalid %d, failed %d",
		t[constants.JobStatusSaved], t[constants.JobStatusExtracted], t[constants.JobStatusInvalid], t[constants.JobStatusFailed])
}
