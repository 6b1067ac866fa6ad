package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Job failure taxonomy
const (
	// ErrCodeInvalidInput indicates the audio reference is missing or empty.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeUnknownEngine indicates an unrecognized engine name.
	ErrCodeUnknownEngine ErrorCode = "UNKNOWN_ENGINE"
	// ErrCodeTimeout indicates the engine exceeded the wall-clock ceiling.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeEngineExecution indicates the engine exited non-zero.
	ErrCodeEngineExecution ErrorCode = "ENGINE_EXECUTION_FAILED"
	// ErrCodeEngineOutputMissing indicates exit 0 but no output artifact.
	ErrCodeEngineOutputMissing ErrorCode = "ENGINE_OUTPUT_MISSING"
)

// Service errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout: true,
}

// IsRetryableCode returns true if a job failing with this code may be
// retried by resubmission. The worker never retries on its own.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
