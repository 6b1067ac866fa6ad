package jobs

import (
	"testing"

	"github.com/skillsenselab/scribeq/internal/errors"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusQueued, StatusStarted, true},
		{StatusQueued, StatusFinished, false},
		{StatusQueued, StatusFailed, false},
		{StatusQueued, StatusQueued, false},
		{StatusStarted, StatusStarted, true}, // redelivered attempt
		{StatusStarted, StatusFinished, true},
		{StatusStarted, StatusFailed, true},
		{StatusStarted, StatusQueued, false},
		{StatusFinished, StatusStarted, false},
		{StatusFinished, StatusFailed, false},
		{StatusFailed, StatusStarted, false},
		{StatusFailed, StatusFinished, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, tt := range []struct {
		status Status
		want   bool
	}{
		{StatusQueued, false},
		{StatusStarted, false},
		{StatusFinished, true},
		{StatusFailed, true},
	} {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	a := New(Input{Engine: "whisperx"})
	b := New(Input{Engine: "whisperx"})

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("New() must assign unique ids, got %q and %q", a.ID, b.ID)
	}
	if a.Status != StatusQueued {
		t.Errorf("Status = %s, want %s", a.Status, StatusQueued)
	}
	if a.SubmittedAt.IsZero() {
		t.Error("SubmittedAt must be set")
	}
	if a.Result != nil || a.Error != nil {
		t.Error("a queued job must carry neither result nor error")
	}
}

func TestNewJobError(t *testing.T) {
	jobErr := NewJobError(errors.Timeout("whisperx", 3600))
	if jobErr.Code != string(errors.ErrCodeTimeout) {
		t.Errorf("Code = %s, want %s", jobErr.Code, errors.ErrCodeTimeout)
	}
	if !jobErr.Retryable {
		t.Error("timeout job error should be retryable")
	}

	// Unknown errors degrade to INTERNAL_ERROR, never a bare string.
	jobErr = NewJobError(errorString("boom"))
	if jobErr.Code != string(errors.ErrCodeInternal) {
		t.Errorf("Code = %s, want %s", jobErr.Code, errors.ErrCodeInternal)
	}
	if jobErr.Message == "" {
		t.Error("Message must be set")
	}
}

type errorString string

func (e errorString) Error() string { return string(e) }
