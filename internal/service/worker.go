package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vanshika/paisatrail/internal/dataset"
)

// TaskError accumulates the failures of a batch run.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple errors:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error { return e.Errors }

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Job is one independent dataset to trace.
type Job struct {
	Name string
	Load func(ctx context.Context) (dataset.Table, error)
}

// Outcome pairs a job with its trace result or failure.
type Outcome struct {
	Name   string
	Result Result
	Err    error
}

// BatchTracer traces many datasets concurrently. Each dataset yields its own
// trace; nothing is shared or merged between jobs.
type BatchTracer struct {
	service *TraceService
	workers int
}

// NewBatchTracer creates a new BatchTracer instance with the provided concurrency.
func NewBatchTracer(service *TraceService, workers int) *BatchTracer {
	if workers <= 0 {
		workers = 4
	}
	return &BatchTracer{
		service: service,
		workers: workers,
	}
}

// RunAll loads and traces every job with at most bt.workers in flight.
// Outcomes are returned in job order. One failing job does not stop the
// others; the error aggregates per-job failures, or is the context error
// when the batch was cancelled.
func (bt *BatchTracer) RunAll(ctx context.Context, jobs []Job) ([]Outcome, error) {
	outcomes := make([]Outcome, len(jobs))
	for i, job := range jobs {
		outcomes[i].Name = job.Name
	}

	var g errgroup.Group
	g.SetLimit(bt.workers)
	for i := range jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcomes[i] = bt.runJob(ctx, jobs[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return outcomes, err
	}

	var taskErr TaskError
	for _, o := range outcomes {
		if o.Err != nil {
			taskErr.append(fmt.Errorf("%s: %w", o.Name, o.Err))
		}
	}
	return outcomes, taskErr.asError()
}

func (bt *BatchTracer) runJob(ctx context.Context, job Job) Outcome {
	out := Outcome{Name: job.Name}
	table, err := job.Load(ctx)
	if err != nil {
		out.Err = err
		return out
	}
	if table.Name == "" {
		table.Name = job.Name
	}
	out.Result, out.Err = bt.service.Run(ctx, table)
	return out
}
