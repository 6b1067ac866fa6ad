package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestTaxonomy(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   ErrorCode
		wantStatus int
		retryable  bool
	}{
		{"invalid input", InvalidInput("audio path is empty"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"unknown engine", UnknownEngine("whisper"), ErrCodeUnknownEngine, http.StatusUnprocessableEntity, false},
		{"timeout", Timeout("whisperx", 3600), ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{"engine execution", EngineExecution("whisperx", "boom"), ErrCodeEngineExecution, http.StatusInternalServerError, false},
		{"output missing", EngineOutputMissing("whisperx", "/tmp/x.json"), ErrCodeEngineOutputMissing, http.StatusInternalServerError, false},
		{"not found", NotFound("job", "abc"), ErrCodeNotFound, http.StatusNotFound, false},
		{"internal", Internal(fmt.Errorf("oops")), ErrCodeInternal, http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.wantStatus)
			}
			if tt.err.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", tt.err.Retryable, tt.retryable)
			}
			if tt.err.Retryable != IsRetryableCode(tt.err.Code) {
				t.Errorf("Retryable disagrees with IsRetryableCode for %s", tt.err.Code)
			}
		})
	}
}

func TestAs(t *testing.T) {
	orig := UnknownEngine("x")
	if got := As(fmt.Errorf("wrapped: %w", orig)); got.Code != ErrCodeUnknownEngine {
		t.Errorf("As() lost the code through wrapping, got %s", got.Code)
	}

	got := As(fmt.Errorf("plain failure"))
	if got.Code != ErrCodeInternal {
		t.Errorf("As(plain) = %s, want %s", got.Code, ErrCodeInternal)
	}
	if got.Cause == nil {
		t.Error("As(plain) should preserve the original as cause")
	}
}

func TestWithCauseAndDetail(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := EngineExecution("whisperx", "stderr text").WithCause(cause).WithDetail("exit_code", 1)

	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
	if err.Details["exit_code"] != 1 {
		t.Errorf("Details = %+v", err.Details)
	}
	if err.Details["stderr"] != "stderr text" {
		t.Errorf("constructor details lost: %+v", err.Details)
	}
}
