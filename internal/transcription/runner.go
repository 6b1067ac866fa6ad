// Package transcription defines the canonical transcription result model,
// the runner interface engine variants implement, and the normalization
// that converts heterogeneous engine output into one schema.
package transcription

import (
	"context"
	"os"

	"github.com/skillsenselab/scribeq/internal/errors"
)

// Request holds per-job parameters for a transcription run.
type Request struct {
	// AudioPath is the path to the audio file to transcribe.
	AudioPath string `json:"audio_path"`
	// Language is an optional language hint (e.g. "en"). When empty the
	// engine auto-detects the language.
	Language string `json:"language,omitempty"`
	// Model overrides the runner's configured model size.
	Model string `json:"model,omitempty"`
}

// Runner drives one external transcription engine and normalizes its
// output. Implementations are substitutable through this contract; no
// caller branches on variant identity.
type Runner interface {
	// Name returns the engine tag stamped on results.
	Name() string
	// Run executes the engine synchronously and returns the canonical
	// result, or an *errors.AppError describing the failure.
	Run(ctx context.Context, req Request) (*Result, error)
}

// ValidateAudio checks that the audio path references an existing,
// non-empty file. Runners call this before invoking the engine binary.
func ValidateAudio(path string) error {
	if path == "" {
		return errors.InvalidInput("audio path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.InvalidInput("audio file does not exist: " + path).WithCause(err)
	}
	if info.Size() == 0 {
		return errors.InvalidInput("audio file is empty: " + path)
	}
	return nil
}
