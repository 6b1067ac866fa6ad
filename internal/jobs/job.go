// Package jobs tracks one transcription request's lifecycle: the job
// record, its state machine, and the persistent store workers mutate.
package jobs

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/scribeq/internal/errors"
	"github.com/skillsenselab/scribeq/internal/transcription"
)

// Status is the lifecycle state of a job.
type Status string

// The four observable job states. No other spellings are ever exposed.
const (
	StatusQueued   Status = "queued"
	StatusStarted  Status = "started"
	StatusFinished Status = "finished"
	StatusFailed   Status = "failed"
)

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusFailed
}

// CanTransition enforces the allowed state machine edges. started→started
// is permitted: at-least-once delivery means a crashed worker's job may be
// redelivered, and the second start is a resumed attempt, not an error.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusQueued:
		return to == StatusStarted
	case StatusStarted:
		return to == StatusStarted || to == StatusFinished || to == StatusFailed
	default:
		return false
	}
}

// TransitionError reports a state machine violation. Callers use it to
// tell a duplicate delivery for an already-resolved job apart from store
// unreachability: the former is dropped, the latter requeued.
type TransitionError struct {
	ID   string
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("jobs: invalid transition %s -> %s for %q", e.From, e.To, e.ID)
}

// Input is the audio reference and engine selection for one job.
type Input struct {
	// AudioPath is the stored upload the worker transcribes and deletes.
	AudioPath string `json:"audio_path"`
	// Engine names the engine variant to run.
	Engine string `json:"engine"`
	// Language is an optional language hint.
	Language string `json:"language,omitempty"`
	// Model is an optional model-size override.
	Model string `json:"model,omitempty"`
}

// JobError is the structured failure description persisted on failed
// jobs. A failed job always carries one; never a bare string.
type JobError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// NewJobError converts any error into a persistable JobError.
func NewJobError(err error) *JobError {
	appErr := errors.As(err)
	return &JobError{
		Code:      string(appErr.Code),
		Message:   appErr.Message,
		Retryable: appErr.Retryable,
		Details:   appErr.Details,
	}
}

// Job tracks one transcription request. Exactly one of Result or Error is
// populated, and only once the status is terminal.
type Job struct {
	ID          string                `json:"id"`
	Status      Status                `json:"status"`
	Input       Input                 `json:"input"`
	Result      *transcription.Result `json:"result,omitempty"`
	Error       *JobError             `json:"error,omitempty"`
	SubmittedAt time.Time             `json:"submitted_at"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	EndedAt     *time.Time            `json:"ended_at,omitempty"`
}

// New creates a queued job with a fresh identifier.
func New(input Input) *Job {
	return &Job{
		ID:          uuid.NewString(),
		Status:      StatusQueued,
		Input:       input,
		SubmittedAt: time.Now().UTC(),
	}
}
