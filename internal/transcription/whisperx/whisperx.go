// Package whisperx runs the WhisperX CLI, which supports word-level
// alignment and optional speaker diarization.
package whisperx

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/skillsenselab/scribeq/internal/process"
	"github.com/skillsenselab/scribeq/internal/transcription"
)

// EngineName is the registered name and result tag for this variant.
const EngineName = "whisperx"

const (
	defaultModel        = "base"
	defaultDevice       = "cuda"
	defaultAlignModel   = "wav2vec2_align_multilingual_v1"
	defaultDiarizeModel = "pyannote/speaker-diarization-3.1"
)

// Config holds configuration for the WhisperX runner.
type Config struct {
	// Binary is the whisperx executable. Defaults to "whisperx".
	Binary string `yaml:"binary" mapstructure:"binary"`
	// Model is the default model size (base, small, medium, large).
	Model string `yaml:"model" mapstructure:"model"`
	// Device is the compute device ("cuda" or "cpu").
	Device string `yaml:"device" mapstructure:"device"`
	// OutputDir is the scratch directory for JSON artifacts.
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	// AlignModel selects the forced-alignment model.
	AlignModel string `yaml:"align_model" mapstructure:"align_model"`
	// Diarize enables speaker diarization.
	Diarize bool `yaml:"diarize" mapstructure:"diarize"`
	// DiarizeModel selects the diarization model when Diarize is set.
	DiarizeModel string `yaml:"diarize_model" mapstructure:"diarize_model"`
	// Timeout is the wall-clock ceiling for one run.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = "whisperx"
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Device == "" {
		c.Device = defaultDevice
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(os.TempDir(), "whisperx_output")
	}
	if c.AlignModel == "" {
		c.AlignModel = defaultAlignModel
	}
	if c.DiarizeModel == "" {
		c.DiarizeModel = defaultDiarizeModel
	}
	if c.Timeout == 0 {
		c.Timeout = transcription.DefaultTimeout
	}
}

// Runner implements transcription.Runner using the WhisperX CLI.
type Runner struct {
	cfg Config
	cli transcription.CLI
}

// New creates a WhisperX runner executing through the given executor.
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

// Factory returns a transcription.Factory creating WhisperX runners with
// an optional model-size override.
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

	computeType := "int8"
	if r.cfg.Device == "cuda" {
		computeType = "float16"
	}

	args := []string{
		req.AudioPath,
		"--model", model,
		"--device", r.cfg.Device,
		"--output_format", "json",
		"--output_dir", r.cfg.OutputDir,
		"--align_model", r.cfg.AlignModel,
		"--compute_type", computeType,
	}

	// Omitting --language lets the engine auto-detect.
	if req.Language != "" {
		args = append(args, "--language", req.Language)
	}
	if r.cfg.Diarize {
		args = append(args, "--diarize_model", r.cfg.DiarizeModel)
	}
	return args
}
