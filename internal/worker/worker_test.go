package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cuongbtq/company-intel/internal/domain"
	"github.com/cuongbtq/company-intel/internal/search"
	"github.com/cuongbtq/company-intel/internal/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSearcher struct {
	started chan string
	release chan struct{}
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, name string, progress search.ProgressFunc) (*search.Outcome, error) {
	progress(domain.ProgressChecking)
	if f.started != nil {
		f.started <- name
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}

	progress(domain.ProgressSaving)
	return &search.Outcome{
		Record: &domain.CompanyRecord{
			ID:          42,
			CompanyName: domain.SanitizeCompanyName(name),
			Status:      domain.RecordStatusSuccess,
		},
		Generated: true,
	}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.JobEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.JobEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) snapshot() []domain.JobEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.JobEvent(nil), p.events...)
}

func newTestWorker(searcher Searcher, concurrency, queueSize int) (*Worker, *memory.Store, *recordingPublisher) {
	store := memory.NewStore()
	events := &recordingPublisher{}
	w := NewWorker(&Config{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Jobs:        store.Jobs(),
		Searcher:    searcher,
		Events:      events,
		Concurrency: concurrency,
		QueueSize:   queueSize,
	})
	return w, store, events
}

func waitForStatus(t *testing.T, w *Worker, jobID, status string) *domain.Job {
	t.Helper()
	var job *domain.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = w.GetStatus(context.Background(), jobID)
		return err == nil && job.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestSubmit_CompletesInBackground(t *testing.T) {
	searcher := &fakeSearcher{started: make(chan string, 1), release: make(chan struct{})}
	w, _, events := newTestWorker(searcher, 2, 10)
	w.Start(context.Background())
	defer w.Stop(context.Background())

	start := time.Now()
	job, err := w.Submit(context.Background(), "  NewCo ")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	assert.True(t, strings.HasPrefix(job.JobID, "job_"))
	assert.Len(t, job.JobID, len("job_")+12)
	assert.Equal(t, "NewCo", job.CompanyName)
	assert.Equal(t, domain.JobStatusProcessing, job.Status)
	assert.Equal(t, domain.ProgressStarted, job.ProgressMessage)
	assert.Equal(t, job.CreatedAt.Add(60*time.Second), w.EstimatedCompletion(job))

	<-searcher.started
	polled, err := w.GetStatus(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusProcessing, polled.Status)
	assert.Equal(t, domain.ProgressChecking, polled.ProgressMessage)

	close(searcher.release)
	done := waitForStatus(t, w, job.JobID, domain.JobStatusCompleted)

	require.NotNil(t, done.Result)
	assert.Equal(t, "newco", done.Result.CompanyName)
	assert.Empty(t, done.ErrorMessage)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, domain.ProgressCompleted, done.ProgressMessage)

	require.Eventually(t, func() bool { return len(events.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.JobStatusCompleted, events.snapshot()[0].Status)
}

func TestSubmit_FailureIsRecorded(t *testing.T) {
	genErr := &domain.GenerationError{CompanyName: "Ghost", Attempts: 3, Err: errors.New("quota")}
	w, _, events := newTestWorker(&fakeSearcher{err: genErr}, 1, 10)
	w.Start(context.Background())
	defer w.Stop(context.Background())

	job, err := w.Submit(context.Background(), "Ghost")
	require.NoError(t, err)

	failed := waitForStatus(t, w, job.JobID, domain.JobStatusFailed)
	assert.Equal(t, genErr.Error(), failed.ErrorMessage)
	assert.Nil(t, failed.Result)
	assert.Equal(t, domain.ProgressFailed, failed.ProgressMessage)

	require.Eventually(t, func() bool { return len(events.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.JobStatusFailed, events.snapshot()[0].Status)
	assert.Equal(t, genErr.Error(), events.snapshot()[0].ErrorMessage)
}

func TestSubmit_EmptyName(t *testing.T) {
	w, _, _ := newTestWorker(&fakeSearcher{}, 1, 1)

	_, err := w.Submit(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyCompanyName)
	require.NoError(t, w.Stop(context.Background()))
}

func TestSubmit_QueueFull(t *testing.T) {
	searcher := &fakeSearcher{started: make(chan string, 1), release: make(chan struct{})}
	w, _, _ := newTestWorker(searcher, 1, 1)
	w.Start(context.Background())

	running, err := w.Submit(context.Background(), "first")
	require.NoError(t, err)
	<-searcher.started

	queued, err := w.Submit(context.Background(), "second")
	require.NoError(t, err)

	_, err = w.Submit(context.Background(), "third")
	assert.ErrorIs(t, err, domain.ErrQueueFull)

	counts, err := w.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.JobStatusFailed])
	assert.Equal(t, 2, counts[domain.JobStatusProcessing])

	rejected, err := w.ListByCompany(context.Background(), "THIRD", 0)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, queueFullMessage, rejected[0].ErrorMessage)

	close(searcher.release)
	waitForStatus(t, w, running.JobID, domain.JobStatusCompleted)
	<-searcher.started
	waitForStatus(t, w, queued.JobID, domain.JobStatusCompleted)

	require.NoError(t, w.Stop(context.Background()))
}

func TestStop_FailsQueuedJobs(t *testing.T) {
	w, _, events := newTestWorker(&fakeSearcher{}, 1, 10)

	first, err := w.Submit(context.Background(), "alpha")
	require.NoError(t, err)
	second, err := w.Submit(context.Background(), "beta")
	require.NoError(t, err)

	require.NoError(t, w.Stop(context.Background()))

	for _, id := range []string{first.JobID, second.JobID} {
		job, err := w.GetStatus(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusFailed, job.Status)
		assert.Equal(t, shutdownMessage, job.ErrorMessage)
	}
	assert.Len(t, events.snapshot(), 2)

	_, err = w.Submit(context.Background(), "gamma")
	assert.ErrorIs(t, err, domain.ErrWorkerStopped)

	// idempotent
	require.NoError(t, w.Stop(context.Background()))
}

func TestStop_DeadlineCancelsRunningJobs(t *testing.T) {
	searcher := &fakeSearcher{started: make(chan string, 1), release: make(chan struct{})}
	w, _, _ := newTestWorker(searcher, 1, 1)
	w.Start(context.Background())

	job, err := w.Submit(context.Background(), "slow")
	require.NoError(t, err)
	<-searcher.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = w.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	failed, err := w.GetStatus(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, failed.Status)
	assert.Equal(t, context.Canceled.Error(), failed.ErrorMessage)
}

func TestJobsRunConcurrently(t *testing.T) {
	searcher := &fakeSearcher{started: make(chan string, 3), release: make(chan struct{})}
	w, _, _ := newTestWorker(searcher, 3, 10)
	w.Start(context.Background())

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		job, err := w.Submit(context.Background(), name)
		require.NoError(t, err)
		ids = append(ids, job.JobID)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-searcher.started:
		case <-time.After(2 * time.Second):
			t.Fatal("jobs did not start concurrently")
		}
	}

	close(searcher.release)
	for _, id := range ids {
		waitForStatus(t, w, id, domain.JobStatusCompleted)
	}
	require.NoError(t, w.Stop(context.Background()))
}

func TestListByCompany_Validation(t *testing.T) {
	w, _, _ := newTestWorker(&fakeSearcher{}, 1, 1)
	defer w.Stop(context.Background())

	_, err := w.ListByCompany(context.Background(), " ", 5)
	assert.ErrorIs(t, err, domain.ErrEmptyCompanyName)

	_, err = w.GetStatus(context.Background(), "job_unknown")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

type fakeMessagePublisher struct {
	body        []byte
	contentType string
	err         error
}

func (f *fakeMessagePublisher) PublishWithRetry(ctx context.Context, body []byte, contentType string) error {
	f.body = body
	f.contentType = contentType
	return f.err
}

func TestRabbitEventPublisher(t *testing.T) {
	client := &fakeMessagePublisher{}
	p := NewRabbitEventPublisher(client, slog.New(slog.NewTextHandler(io.Discard, nil)))

	completedAt := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	err := p.Publish(context.Background(), domain.JobEvent{
		JobID:       "job_0123456789ab",
		CompanyName: "NewCo",
		Status:      domain.JobStatusCompleted,
		CompletedAt: completedAt,
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", client.contentType)
	assert.JSONEq(t, `{"job_id":"job_0123456789ab","company_name":"NewCo","status":"completed","completed_at":"2024-06-01T08:30:00Z"}`, string(client.body))

	client.err = errors.New("channel closed")
	assert.Error(t, p.Publish(context.Background(), domain.JobEvent{JobID: "job_x"}))
}
