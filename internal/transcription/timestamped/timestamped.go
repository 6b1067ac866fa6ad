// Package timestamped runs the whisper-timestamped CLI, a lightweight
// engine with voice-activity detection but no forced alignment.
package timestamped

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/skillsenselab/scribeq/internal/process"
	"github.com/skillsenselab/scribeq/internal/transcription"
)

// EngineName is the registered name and result tag for this variant.
const EngineName = "timestamped"

// Config holds configuration for the whisper-timestamped runner.
type Config struct {
	// Binary is the whisper-timestamped executable.
	Binary string `yaml:"binary" mapstructure:"binary"`
	// Model is the default model size (base, small, medium, large).
	Model string `yaml:"model" mapstructure:"model"`
	// Device is the compute device ("cuda" or "cpu").
	Device string `yaml:"device" mapstructure:"device"`
	// OutputDir is the scratch directory for JSON artifacts.
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	// NoVAD disables voice-activity detection.
	NoVAD bool `yaml:"no_vad" mapstructure:"no_vad"`
	// Timeout is the wall-clock ceiling for one run.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = "whisper-timestamped"
	}
	if c.Model == "" {
		c.Model = "base"
	}
	if c.Device == "" {
		c.Device = "cuda"
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(os.TempDir(), "timestamped_output")
	}
	if c.Timeout == 0 {
		c.Timeout = transcription.DefaultTimeout
	}
}

// Runner implements transcription.Runner using the whisper-timestamped CLI.
type Runner struct {
	cfg Config
	cli transcription.CLI
}

// New creates a whisper-timestamped runner executing through the given
// executor.
func New(cfg Config, executor process.Executor) *Runner {
	cfg.ApplyDefaults()
	return &Runner{
		cfg: cfg,
		cli: transcription.CLI{
			Engine:   EngineName,
			Executor: executor,
			Timeout:  cfg.Timeout,
		},
	}
}

// Factory returns a transcription.Factory creating whisper-timestamped
// runners with an optional model-size override.
func Factory(cfg Config, executor process.Executor) transcription.Factory {
	return func(model string) (transcription.Runner, error) {
		c := cfg
		if model != "" {
			c.Model = model
		}
		return New(c, executor), nil
	}
}

// Name returns the engine tag.
func (r *Runner) Name() string { return EngineName }

// Run transcribes the audio file and returns the normalized result.
func (r *Runner) Run(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	if err := transcription.ValidateAudio(req.AudioPath); err != nil {
		return nil, err
	}

	cmd := process.Command{
		Binary: r.cfg.Binary,
		Args:   r.buildArgs(req),
	}
	return r.cli.Run(ctx, cmd, r.cfg.OutputDir, req.AudioPath)
}

func (r *Runner) buildArgs(req transcription.Request) []string {
	model := r.cfg.Model
	if req.Model != "" {
		model = req.Model
	}

	args := []string{
		req.AudioPath,
		"--model", model,
		"--device", r.cfg.Device,
		"--output_format", "json",
		"--output_dir", r.cfg.OutputDir,
	}

	// Omitting --language lets the engine auto-detect.
	if req.Language != "" {
		args = append(args, "--language", req.Language)
	}
	if r.cfg.NoVAD {
		args = append(args, "--no_vad")
	}
	return args
}
