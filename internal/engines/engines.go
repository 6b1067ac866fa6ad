// Package engines wires the closed set of engine variants into a runner
// registry. Exactly two engine names are recognized; everything else
// fails with UNKNOWN_ENGINE at the registry boundary.
package engines

import (
	"time"

	"github.com/skillsenselab/scribeq/internal/process"
	"github.com/skillsenselab/scribeq/internal/transcription"
	"github.com/skillsenselab/scribeq/internal/transcription/timestamped"
	"github.com/skillsenselab/scribeq/internal/transcription/whisperx"
)

// Config aggregates per-engine runner configuration.
type Config struct {
	// GracePeriod is how long a killed engine gets between SIGTERM and
	// SIGKILL.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`

	WhisperX    whisperx.Config    `yaml:"whisperx" mapstructure:"whisperx"`
	Timestamped timestamped.Config `yaml:"timestamped" mapstructure:"timestamped"`
}

// NewRegistry builds the runner registry with both engine variants
// executing through a shared process adapter.
func NewRegistry(cfg Config) *transcription.Registry {
	executor := process.NewAdapter(process.Config{GracePeriod: cfg.GracePeriod})

	reg := transcription.NewRegistry()
	reg.RegisterFactory(whisperx.EngineName, whisperx.Factory(cfg.WhisperX, executor))
	reg.RegisterFactory(timestamped.EngineName, timestamped.Factory(cfg.Timestamped, executor))
	return reg
}
