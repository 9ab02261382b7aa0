package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/jobs"
)

// Store keeps export jobs in process memory. Callers always receive copies,
// so a worker mutating its job never races with a status request.
type Store struct {
	mu   sync.RWMutex
	byID map[string]*jobs.ExportJob
}

func NewStore() *Store {
	return &Store{byID: make(map[string]*jobs.ExportJob)}
}

func cloneJob(job *jobs.ExportJob) *jobs.ExportJob {
	c := *job
	c.From = cloneTime(job.From)
	c.To = cloneTime(job.To)
	c.StartedAt = cloneTime(job.StartedAt)
	c.CompletedAt = cloneTime(job.CompletedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// SaveJob inserts or replaces the job under its ID.
func (s *Store) SaveJob(_ context.Context, job *jobs.ExportJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	s.byID[job.JobID] = cloneJob(job)
	s.mu.Unlock()
	return nil
}

func (s *Store) GetJob(_ context.Context, jobID string) (*jobs.ExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.byID[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	return cloneJob(job), nil
}

func matchesFilter(job *jobs.ExportJob, f jobs.JobFilter) bool {
	return (f.UserID == "" || job.UserID == f.UserID) &&
		(f.Status == "" || job.Status == f.Status)
}

// ListJobs returns matching jobs, newest first with ties broken by ID.
func (s *Store) ListJobs(_ context.Context, filter jobs.JobFilter) ([]*jobs.ExportJob, error) {
	s.mu.RLock()
	matched := make([]*jobs.ExportJob, 0, len(s.byID))
	for _, job := range s.byID {
		if matchesFilter(job, filter) {
			matched = append(matched, cloneJob(job))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.JobID < b.JobID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	start := min(max(filter.Offset, 0), len(matched))
	end := len(matched)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, end)
	}
	return matched[start:end], nil
}

// UpdateJobStatus moves a job to status. Terminal statuses stamp CompletedAt;
// completion clears any error left by an earlier attempt.
func (s *Store) UpdateJobStatus(_ context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[jobID]
	if !ok {
		return fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}

	job.Status = status
	switch status {
	case jobs.JobStatusCompleted:
		job.Error = ""
	case jobs.JobStatusFailed:
		if errorMsg != "" {
			job.Error = errorMsg
		}
	default:
		if errorMsg != "" {
			job.Error = errorMsg
		}
		return nil
	}
	now := time.Now()
	job.CompletedAt = &now
	return nil
}

var _ jobs.JobStore = (*Store)(nil)
