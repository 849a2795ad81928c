package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/audit-engine/internal/domain"
)

// Job lifecycle states.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// ErrJobNotFound is returned when a job id is unknown.
var ErrJobNotFound = errors.New("job not found")

// jobTTL bounds how long completed jobs stay queryable.
const jobTTL = 90 * 24 * time.Hour

// Job is the persisted state of one audit submission.
type Job struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	AuditID      string    `json:"audit_id,omitempty"`
	WebsiteURL   string    `json:"website_url"`
	ContactEmail string    `json:"contact_email"`
	// Error carries operator-facing failure detail. The API layer never
	// returns it to end users.
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobResult holds the generated documents for a completed job.
type JobResult struct {
	AuditID   string              `json:"audit_id"`
	Documents domain.DocumentPair `json:"documents"`
	Plan      domain.CapturePlan  `json:"plan,omitempty"`
	Fallback  bool                `json:"fallback"`
}

// JobStore persists submission jobs and their results.
type JobStore struct {
	rdb *redis.Client
}

// NewJobStore creates a job store on the given Redis client.
func NewJobStore(rdb *redis.Client) *JobStore {
	return &JobStore{rdb: rdb}
}

func jobKey(jobID string) string    { return "job:" + jobID }
func resultKey(jobID string) string { return "job:" + jobID + ":result" }

// CreateJob persists a new pending job.
func (s *JobStore) CreateJob(ctx context.Context, job Job) error {
	now := time.Now().UTC()
	job.Status = JobStatusPending
	job.CreatedAt = now
	job.UpdatedAt = now
	return s.write(ctx, job)
}

// UpdateStatus transitions a job's status, optionally attaching the audit id
// or an error detail.
func (s *JobStore) UpdateStatus(ctx context.Context, jobID, status, auditID, errDetail string) error {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Status = status
	if auditID != "" {
		job.AuditID = auditID
	}
	job.Error = errDetail
	job.UpdatedAt = time.Now().UTC()
	return s.write(ctx, *job)
}

// GetJob fetches one job by id.
func (s *JobStore) GetJob(ctx context.Context, jobID string) (*Job, error) {
	data, err := s.rdb.Get(ctx, jobKey(jobID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}

	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &job, nil
}

// SaveResult persists the generated documents for a completed job.
func (s *JobStore) SaveResult(ctx context.Context, jobID string, result JobResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := s.rdb.Set(ctx, resultKey(jobID), data, jobTTL).Err(); err != nil {
		return fmt.Errorf("save result %s: %w", jobID, err)
	}
	return nil
}

// GetResult fetches the generated documents for a job.
func (s *JobStore) GetResult(ctx context.Context, jobID string) (*JobResult, error) {
	data, err := s.rdb.Get(ctx, resultKey(jobID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: result for %s", ErrJobNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("get result %s: %w", jobID, err)
	}

	var result JobResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", jobID, err)
	}
	return &result, nil
}

func (s *JobStore) write(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.rdb.Set(ctx, jobKey(job.ID), data, jobTTL).Err(); err != nil {
		return fmt.Errorf("write job %s: %w", job.ID, err)
	}
	return nil
}
