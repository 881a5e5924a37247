package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/company-intel/internal/domain"
)

const eventTimeout = 10 * time.Second

// processJob runs one search and moves the job to a terminal state
func (w *Worker) processJob(ctx context.Context, msg *domain.JobMessage) {
	logger := w.logger.With(
		slog.String("job_id", msg.JobID),
		slog.String("company_name", msg.CompanyName),
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", slog.Any("panic", r))
			w.failJob(context.WithoutCancel(ctx), msg.JobID, msg.CompanyName, fmt.Sprintf("internal error: %v", r))
		}
	}()

	logger.Info("Processing job")
	start := time.Now()

	progress := func(message string) {
		if err := w.jobs.UpdateJobProgress(ctx, msg.JobID, message); err != nil {
			logger.Warn("Failed to update job progress",
				slog.String("progress_message", message),
				slog.Any("error", err),
			)
		}
	}

	outcome, err := w.searcher.Search(ctx, msg.CompanyName, progress)
	if err != nil {
		logger.Error("Job execution failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err),
		)
		w.failJob(context.WithoutCancel(ctx), msg.JobID, msg.CompanyName, err.Error())
		return
	}

	completedAt := w.now()
	if err := w.jobs.CompleteJob(context.WithoutCancel(ctx), msg.JobID, outcome.Record, completedAt); err != nil {
		if errors.Is(err, domain.ErrJobAlreadyFinished) {
			logger.Warn("Job already finished, completion ignored")
			return
		}
		logger.Error("Failed to update job status to completed", slog.Any("error", err))
		w.failJob(context.WithoutCancel(ctx), msg.JobID, msg.CompanyName, fmt.Sprintf("failed to save job result: %v", err))
		return
	}

	logger.Info("Job completed successfully",
		slog.Duration("elapsed", time.Since(start)),
		slog.Bool("generated", outcome.Generated),
		slog.Int64("company_id", outcome.Record.ID),
	)

	w.publish(domain.JobEvent{
		JobID:       msg.JobID,
		CompanyName: msg.CompanyName,
		Status:      domain.JobStatusCompleted,
		CompletedAt: completedAt,
	})
}

// failJob moves a job to failed and publishes the event
func (w *Worker) failJob(ctx context.Context, jobID, companyName, reason string) {
	completedAt := w.now()
	if err := w.jobs.FailJob(ctx, jobID, reason, completedAt); err != nil {
		if errors.Is(err, domain.ErrJobAlreadyFinished) {
			w.logger.Warn("Job already finished, failure ignored", slog.String("job_id", jobID))
			return
		}
		w.logger.Error("Failed to update job status to failed",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
		return
	}

	w.logger.Info("Job failed",
		slog.String("job_id", jobID),
		slog.String("error_message", reason),
	)

	w.publish(domain.JobEvent{
		JobID:        jobID,
		CompanyName:  companyName,
		Status:       domain.JobStatusFailed,
		ErrorMessage: reason,
		CompletedAt:  completedAt,
	})
}

// publish sends a lifecycle event. Failures never affect job state.
func (w *Worker) publish(event domain.JobEvent) {
	if w.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	if err := w.events.Publish(ctx, event); err != nil {
		w.logger.Warn("Failed to publish job event",
			slog.String("job_id", event.JobID),
			slog.String("status", event.Status),
			slog.Any("error", err),
		)
	}
}
