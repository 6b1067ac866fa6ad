// Package worker implements the dispatcher loop: it receives job
// references from the queue, drives a runner to completion, and persists
// the outcome. One job at a time, to completion, per worker process.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/skillsenselab/scribeq/internal/errors"
	"github.com/skillsenselab/scribeq/internal/jobs"
	"github.com/skillsenselab/scribeq/internal/logger"
	"github.com/skillsenselab/scribeq/internal/observability"
	"github.com/skillsenselab/scribeq/internal/queue"
	"github.com/skillsenselab/scribeq/internal/storage"
	"github.com/skillsenselab/scribeq/internal/transcription"
)

// Worker handles dequeued job references. It satisfies queue.Handler.
// A single mutex serializes jobs across all consumed queues: the engine
// binary saturates the compute device, so one job runs at a time even
// when the worker consumes more than one engine queue.
type Worker struct {
	mu       sync.Mutex
	store    jobs.Store
	registry *transcription.Registry
	uploads  *storage.Uploads
	metrics  *observability.JobMetrics
	log      *logger.Logger
}

// New creates a worker.
func New(store jobs.Store, registry *transcription.Registry, uploads *storage.Uploads, metrics *observability.JobMetrics, log *logger.Logger) *Worker {
	return &Worker{
		store:    store,
		registry: registry,
		uploads:  uploads,
		metrics:  metrics,
		log:      log.WithComponent("worker"),
	}
}

// Handle processes one delivery. Runner failures never propagate: they
// are written into the job's error field and the delivery is acked. An
// error is returned only when the job cannot be resolved here and the
// delivery must be requeued: the job store is unreachable, or the run
// was cut short by worker shutdown.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	job, err := w.store.MarkStarted(ctx, msg.JobID)
	if err != nil {
		var transErr *jobs.TransitionError
		if errors.As(err, &transErr) {
			// Redelivered after the terminal write but before the ack;
			// the job is already resolved, so the duplicate is dropped.
			w.log.Warn("job already resolved, dropping delivery", logger.Fields(
				"job_id", msg.JobID, "status", string(transErr.From)))
			return nil
		}
		if apperrors.As(err).Code == apperrors.ErrCodeNotFound {
			// The record expired or was deleted; nothing left to do.
			w.log.Warn("job not found, dropping delivery", logger.Fields("job_id", msg.JobID))
			return nil
		}
		return err
	}

	w.log.Info("job started", logger.Fields("job_id", job.ID, "engine", job.Input.Engine))
	start := time.Now()

	// The upload is scratch data, released once the job is terminal, on
	// the failure path as much as the success path. A requeued delivery
	// keeps it: the next attempt reads the same file.
	resolved := false
	defer func() {
		if !resolved {
			return
		}
		if err := w.uploads.Delete(ctx, job.Input.AudioPath); err != nil {
			w.log.WithError(err).Warn("upload cleanup failed", logger.Fields("job_id", job.ID))
		}
	}()

	result, runErr := w.run(ctx, job)
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			// Shutdown cut the run short. The job stays started and the
			// delivery is requeued so another worker runs it to completion.
			w.log.Warn("run canceled by shutdown, requeueing", logger.Fields("job_id", job.ID))
			return runErr
		}

		jobErr := jobs.NewJobError(runErr)
		if err := w.store.MarkFailed(ctx, job.ID, jobErr); err != nil {
			return err
		}
		resolved = true
		if w.metrics != nil {
			w.metrics.RecordFailed(ctx, job.Input.Engine, jobErr.Code)
		}
		w.log.Error("job failed", logger.Fields(
			"job_id", job.ID, "engine", job.Input.Engine, "code", jobErr.Code, "error", jobErr.Message))
		return nil
	}

	if err := w.store.MarkFinished(ctx, job.ID, result); err != nil {
		return err
	}
	resolved = true
	if w.metrics != nil {
		w.metrics.RecordFinished(ctx, job.Input.Engine, time.Since(start))
	}
	w.log.Info("job finished", logger.Fields(
		"job_id", job.ID, "engine", job.Input.Engine,
		"segments", len(result.Segments), "language", result.Language,
		"duration", time.Since(start).String()))
	return nil
}

// run resolves the runner and executes it.
func (w *Worker) run(ctx context.Context, job *jobs.Job) (*transcription.Result, error) {
	runner, err := w.registry.Create(job.Input.Engine, job.Input.Model)
	if err != nil {
		// Unknown engine should have been rejected at submission; a job
		// carrying one anyway fails with the same taxonomy code.
		return nil, err
	}

	return runner.Run(ctx, transcription.Request{
		AudioPath: job.Input.AudioPath,
		Language:  job.Input.Language,
		Model:     job.Input.Model,
	})
}
