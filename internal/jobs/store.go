package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skillsenselab/scribeq/internal/errors"
	"github.com/skillsenselab/scribeq/internal/redis"
	"github.com/skillsenselab/scribeq/internal/transcription"
)

// Store persists job records. Get is safe to call concurrently with a
// worker mutating the same job: implementations write whole records
// atomically so a read observes either the pre- or post-transition state.
type Store interface {
	// Create persists a new queued job.
	Create(ctx context.Context, job *Job) error
	// Get returns the current snapshot of a job, or NOT_FOUND.
	Get(ctx context.Context, id string) (*Job, error)
	// MarkStarted transitions a job to started and returns the updated
	// record. Calling it on an already-started job is a resumed attempt,
	// not an error.
	MarkStarted(ctx context.Context, id string) (*Job, error)
	// MarkFinished writes the terminal finished state with a result.
	MarkFinished(ctx context.Context, id string, result *transcription.Result) error
	// MarkFailed writes the terminal failed state with a structured error.
	MarkFailed(ctx context.Context, id string, jobErr *JobError) error
	// Delete removes a job record.
	Delete(ctx context.Context, id string) error
}

// RedisStore implements Store on Redis. Each job is one JSON document
// under "job:<id>"; every transition rewrites the whole document with a
// single SET, which is the atomicity the read contract relies on.
type RedisStore struct {
	client *redis.Client
	// terminalTTL expires finished/failed records. Zero keeps them forever.
	terminalTTL time.Duration
}

// NewRedisStore creates a job store on the given Redis client.
func NewRedisStore(client *redis.Client, terminalTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, terminalTTL: terminalTTL}
}

func jobKey(id string) string { return "job:" + id }

// Create persists a new queued job.
func (s *RedisStore) Create(ctx context.Context, job *Job) error {
	return s.save(ctx, job, 0)
}

// Get returns the current snapshot of a job.
func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	raw, err := s.client.Get(ctx, jobKey(id))
	if err != nil {
		if redis.IsNil(err) {
			return nil, errors.NotFound("job", id)
		}
		return nil, fmt.Errorf("jobs: load %q: %w", id, err)
	}

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("jobs: unmarshal %q: %w", id, err)
	}
	return &job, nil
}

// MarkStarted transitions a job to started.
func (s *RedisStore) MarkStarted(ctx context.Context, id string) (*Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(job.Status, StatusStarted) {
		return nil, &TransitionError{ID: id, From: job.Status, To: StatusStarted}
	}

	job.Status = StatusStarted
	if job.StartedAt == nil {
		now := time.Now().UTC()
		job.StartedAt = &now
	}
	if err := s.save(ctx, job, 0); err != nil {
		return nil, err
	}
	return job, nil
}

// MarkFinished writes the terminal finished state with a result.
func (s *RedisStore) MarkFinished(ctx context.Context, id string, result *transcription.Result) error {
	return s.terminal(ctx, id, StatusFinished, result, nil)
}

// MarkFailed writes the terminal failed state with a structured error.
func (s *RedisStore) MarkFailed(ctx context.Context, id string, jobErr *JobError) error {
	return s.terminal(ctx, id, StatusFailed, nil, jobErr)
}

// Delete removes a job record.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, jobKey(id))
}

func (s *RedisStore) terminal(ctx context.Context, id string, to Status, result *transcription.Result, jobErr *JobError) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(job.Status, to) {
		return &TransitionError{ID: id, From: job.Status, To: to}
	}

	now := time.Now().UTC()
	job.Status = to
	job.Result = result
	job.Error = jobErr
	job.EndedAt = &now
	return s.save(ctx, job, s.terminalTTL)
}

func (s *RedisStore) save(ctx context.Context, job *Job, ttl time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("jobs: marshal %q: %w", job.ID, err)
	}
	if err := s.client.Set(ctx, jobKey(job.ID), string(data), ttl); err != nil {
		return fmt.Errorf("jobs: save %q: %w", job.ID, err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
