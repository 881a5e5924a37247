// Package worker runs asynchronous company searches on a bounded pool of
// goroutines and records each job's lifecycle.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cuongbtq/company-intel/internal/domain"
	"github.com/cuongbtq/company-intel/internal/search"
	"github.com/cuongbtq/company-intel/internal/storage"
)

const (
	shutdownMessage  = "service shutting down"
	queueFullMessage = "job queue is full"

	defaultListLimit = 10
	maxListLimit     = 100
)

// Searcher runs the resolve, generate, persist sequence for one company
type Searcher interface {
	Search(ctx context.Context, name string, progress search.ProgressFunc) (*search.Outcome, error)
}

// Config holds worker configuration
type Config struct {
	Logger            *slog.Logger
	Jobs              storage.JobRepository
	Searcher          Searcher
	Events            EventPublisher
	Concurrency       int
	QueueSize         int
	EstimatedDuration time.Duration
	Now               func() time.Time
}

// Worker is the job manager. Submissions are persisted, then handed to a
// fixed number of goroutines through a bounded queue.
type Worker struct {
	logger            *slog.Logger
	jobs              storage.JobRepository
	searcher          Searcher
	events            EventPublisher
	concurrency       int
	estimatedDuration time.Duration
	now               func() time.Time
	workerID          string

	jobsChan chan *domain.JobMessage
	stopChan chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	estimated := cfg.EstimatedDuration
	if estimated <= 0 {
		estimated = 60 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Worker{
		logger:            cfg.Logger,
		jobs:              cfg.Jobs,
		searcher:          cfg.Searcher,
		events:            cfg.Events,
		concurrency:       concurrency,
		estimatedDuration: estimated,
		now:               now,
		workerID:          "worker-" + uuid.NewString()[:8],
		jobsChan:          make(chan *domain.JobMessage, queueSize),
		stopChan:          make(chan struct{}),
	}
}

// Start spawns the worker pool. Jobs keep running when ctx is cancelled;
// only Stop ends them.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started || w.stopped {
		return
	}
	w.started = true

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel

	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Int("queue_size", cap(w.jobsChan)),
	)

	w.spawnWorkerPool(jobCtx)
}

// Stop stops accepting jobs, waits for running jobs and fails queued ones.
// Running jobs are cancelled if ctx expires first.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopChan)
	cancel := w.cancel
	w.mu.Unlock()

	w.logger.Info("Stopping worker...", slog.String("worker_id", w.workerID))

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	var stopErr error
	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("Shutdown deadline reached, cancelling running jobs")
		if cancel != nil {
			cancel()
		}
		<-done
		stopErr = ctx.Err()
	}
	if cancel != nil {
		cancel()
	}

	w.drainQueue()

	w.logger.Info("Worker stopped", slog.String("worker_id", w.workerID))
	return stopErr
}

// Submit persists a new job and queues it without waiting for it to run
func (w *Worker) Submit(ctx context.Context, companyName string) (*domain.Job, error) {
	name := strings.TrimSpace(companyName)
	if name == "" {
		return nil, domain.ErrEmptyCompanyName
	}

	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return nil, domain.ErrWorkerStopped
	}

	job := &domain.Job{
		JobID:           newJobID(),
		CompanyName:     name,
		Status:          domain.JobStatusProcessing,
		ProgressMessage: domain.ProgressStarted,
		CreatedAt:       w.now(),
	}

	if err := w.jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	if err := w.enqueue(&domain.JobMessage{JobID: job.JobID, CompanyName: job.CompanyName}); err != nil {
		reason := queueFullMessage
		if errors.Is(err, domain.ErrWorkerStopped) {
			reason = shutdownMessage
		}
		w.failJob(context.WithoutCancel(ctx), job.JobID, job.CompanyName, reason)
		return nil, err
	}

	w.logger.Info("Job submitted",
		slog.String("job_id", job.JobID),
		slog.String("company_name", job.CompanyName),
	)

	return job, nil
}

// enqueue hands msg to the pool without blocking
func (w *Worker) enqueue(msg *domain.JobMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return domain.ErrWorkerStopped
	}

	select {
	case w.jobsChan <- msg:
		return nil
	default:
		w.logger.Warn("Job queue is full",
			slog.String("job_id", msg.JobID),
			slog.Int("queue_size", cap(w.jobsChan)),
		)
		return domain.ErrQueueFull
	}
}

// drainQueue fails every job still waiting in the queue
func (w *Worker) drainQueue() {
	ctx := context.Background()
	for {
		select {
		case msg := <-w.jobsChan:
			w.failJob(ctx, msg.JobID, msg.CompanyName, shutdownMessage)
		default:
			return
		}
	}
}

// GetStatus returns the current state of a job
func (w *Worker) GetStatus(ctx context.Context, jobID string) (*domain.Job, error) {
	return w.jobs.GetJobByID(ctx, jobID)
}

// ListByCompany returns the most recent jobs for a company name
func (w *Worker) ListByCompany(ctx context.Context, companyName string, limit int) ([]domain.Job, error) {
	name := domain.SanitizeCompanyName(companyName)
	if name == "" {
		return nil, domain.ErrEmptyCompanyName
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return w.jobs.ListJobsByCompany(ctx, name, limit)
}

// CountByStatus returns the number of jobs in each status
func (w *Worker) CountByStatus(ctx context.Context) (map[string]int, error) {
	return w.jobs.CountJobsByStatus(ctx)
}

// EstimatedCompletion returns when a job is expected to finish
func (w *Worker) EstimatedCompletion(job *domain.Job) time.Time {
	return job.CreatedAt.Add(w.estimatedDuration)
}

func newJobID() string {
	return "job_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
