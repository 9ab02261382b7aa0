package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.ExportJob {
	t.Helper()
	var last *jobs.ExportJob
	require.Eventually(t, func() bool {
		job, err := store.GetJob(context.Background(), jobID)
		if err != nil {
			return false
		}
		last = job
		return job.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return last
}

func TestQueue_ProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithWorkers(1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		export := job.(*jobs.ExportJob)
		export.GCSURI = "gs://bucket/" + export.JobID + ".csv"
		export.RowCount = 3
		return nil
	}))

	job := &jobs.ExportJob{UserID: "u1", Format: jobs.FormatCSV}
	require.NoError(t, q.PublishExport(ctx, job))
	require.NotEmpty(t, job.JobID)

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	assert.Equal(t, 3, done.RowCount)
	assert.Contains(t, done.GCSURI, job.JobID)
	assert.NotNil(t, done.CompletedAt)

	require.NoError(t, q.Stop(context.Background()))
	assert.Error(t, q.PublishExport(ctx, &jobs.ExportJob{UserID: "u1"}))
}

func TestQueue_RetriesThenSucceeds(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithWorkers(2), WithBackoff(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("bucket unavailable")
		}
		return nil
	}))

	job := &jobs.ExportJob{UserID: "u1", Format: jobs.FormatXLSX}
	require.NoError(t, q.PublishExport(ctx, job))

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	assert.Equal(t, 2, done.RetryCount)
	assert.Empty(t, done.Error)
	require.NoError(t, q.Close())
}

func TestQueue_GivesUpAfterMaxRetries(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithWorkers(1), WithBackoff(time.Millisecond), WithMaxRetries(1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		return errors.New("render failed")
	}))

	job := &jobs.ExportJob{UserID: "u1", Format: jobs.FormatCSV}
	require.NoError(t, q.PublishExport(ctx, job))

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	assert.Equal(t, 1, failed.RetryCount)
	assert.Equal(t, "render failed", failed.Error)
	require.NoError(t, q.Close())
}

func TestStore_ListAndNotFound(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveJob(ctx, &jobs.ExportJob{JobID: "j1", UserID: "u1", Status: jobs.JobStatusCompleted, CreatedAt: base}))
	require.NoError(t, store.SaveJob(ctx, &jobs.ExportJob{JobID: "j2", UserID: "u1", Status: jobs.JobStatusPending, CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, store.SaveJob(ctx, &jobs.ExportJob{JobID: "j3", UserID: "u2", Status: jobs.JobStatusPending, CreatedAt: base}))
	assert.Error(t, store.SaveJob(ctx, &jobs.ExportJob{}))

	mine, err := store.ListJobs(ctx, jobs.JobFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "j2", mine[0].JobID)

	pending, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusPending, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = store.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, "x"), domain.ErrNotFound)

	require.NoError(t, store.UpdateJobStatus(ctx, "j2", jobs.JobStatusFailed, "boom"))
	j2, err := store.GetJob(ctx, "j2")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusFailed, j2.Status)
	assert.Equal(t, "boom", j2.Error)
}

func TestQueue_StopReleasesBlockedPublisher(t *testing.T) {
	store := NewStore()
	q := NewQueue(1, store)
	ctx := context.Background()

	require.NoError(t, q.PublishExport(ctx, &jobs.ExportJob{JobID: "fills-buffer", UserID: "u1"}))

	published := make(chan error, 1)
	go func() {
		published <- q.PublishExport(ctx, &jobs.ExportJob{JobID: "blocked", UserID: "u1"})
	}()
	waitForStatus(t, store, "blocked", jobs.JobStatusPending)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, q.Stop(stopCtx))

	select {
	case err := <-published:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("publisher still blocked after Stop")
	}
}

func TestStore_ReturnsIsolatedCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	job := &jobs.ExportJob{JobID: "j1", UserID: "u1", From: &from}
	require.NoError(t, store.SaveJob(ctx, job))

	*job.From = from.AddDate(1, 0, 0)
	got, err := store.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, from, *got.From)

	*got.From = from.AddDate(2, 0, 0)
	again, err := store.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, from, *again.From)
}

func TestStore_UpdateJobStatusStampsTerminalStates(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.SaveJob(ctx, &jobs.ExportJob{JobID: "j1", Status: jobs.JobStatusPending}))

	require.NoError(t, store.UpdateJobStatus(ctx, "j1", jobs.JobStatusRetrying, "timeout"))
	job, err := store.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Nil(t, job.CompletedAt)
	assert.Equal(t, "timeout", job.Error)

	require.NoError(t, store.UpdateJobStatus(ctx, "j1", jobs.JobStatusCompleted, ""))
	job, err = store.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.NotNil(t, job.CompletedAt)
	assert.Empty(t, job.Error)
}

func TestStore_ListJobsPaging(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveJob(ctx, &jobs.ExportJob{JobID: id, UserID: "u1", CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	page, err := store.ListJobs(ctx, jobs.JobFilter{UserID: "u1", Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].JobID)

	past, err := store.ListJobs(ctx, jobs.JobFilter{Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, past)
}
