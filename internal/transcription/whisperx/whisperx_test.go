package whisperx

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skillsenselab/scribeq/internal/errors"
	"github.com/skillsenselab/scribeq/internal/process"
	"github.com/skillsenselab/scribeq/internal/transcription"
)

// fakeExecutor records the command and delegates to fn.
type fakeExecutor struct {
	fn  func(ctx context.Context, cmd process.Command) (*process.Result, error)
	got process.Command
}

func (f *fakeExecutor) Execute(ctx context.Context, cmd process.Command) (*process.Result, error) {
	f.got = cmd
	if f.fn != nil {
		return f.fn(ctx, cmd)
	}
	return &process.Result{ExitCode: 0}, nil
}

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meeting.wav")
	if err := os.WriteFile(path, []byte("RIFFdata"), 0o600); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func writeArtifact(t *testing.T, outputDir, audioPath, content string) {
	t.Helper()
	base := filepath.Base(audioPath)
	name := base[:len(base)-len(filepath.Ext(base))] + ".json"
	if err := os.WriteFile(filepath.Join(outputDir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}

func TestRunnerSuccess(t *testing.T) {
	audio := writeAudio(t)
	outputDir := t.TempDir()

	exec := &fakeExecutor{fn: func(_ context.Context, _ process.Command) (*process.Result, error) {
		writeArtifact(t, outputDir, audio, `{"text": "hello", "language": "en", "segments": []}`)
		return &process.Result{ExitCode: 0}, nil
	}}
	r := New(Config{OutputDir: outputDir}, exec)

	result, err := r.Run(context.Background(), transcription.Request{AudioPath: audio})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Text != "hello" {
		t.Errorf("Text = %q, want %q", result.Text, "hello")
	}
	if result.Engine != EngineName {
		t.Errorf("Engine = %q, want %q", result.Engine, EngineName)
	}
}

func TestRunnerArgs(t *testing.T) {
	audio := writeAudio(t)
	outputDir := t.TempDir()

	tests := []struct {
		name    string
		cfg     Config
		req     transcription.Request
		want    []string
		exclude []string
	}{
		{
			name: "cuda uses float16",
			cfg:  Config{Device: "cuda"},
			want: []string{"--compute_type", "float16", "--device", "cuda"},
		},
		{
			name: "cpu uses int8",
			cfg:  Config{Device: "cpu"},
			want: []string{"--compute_type", "int8"},
		},
		{
			name:    "language omitted for auto-detect",
			cfg:     Config{},
			exclude: []string{"--language"},
		},
		{
			name: "language forwarded",
			req:  transcription.Request{Language: "de"},
			want: []string{"--language", "de"},
		},
		{
			name: "request model overrides config",
			cfg:  Config{Model: "base"},
			req:  transcription.Request{Model: "large"},
			want: []string{"--model", "large"},
		},
		{
			name: "diarization flag",
			cfg:  Config{Diarize: true},
			want: []string{"--diarize_model", defaultDiarizeModel},
		},
		{
			name:    "no diarization by default",
			cfg:     Config{},
			exclude: []string{"--diarize_model"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.OutputDir = outputDir
			exec := &fakeExecutor{fn: func(_ context.Context, _ process.Command) (*process.Result, error) {
				writeArtifact(t, outputDir, audio, `{"segments": []}`)
				return &process.Result{ExitCode: 0}, nil
			}}
			r := New(tt.cfg, exec)
			tt.req.AudioPath = audio

			if _, err := r.Run(context.Background(), tt.req); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			args := exec.got.Args
			for _, w := range tt.want {
				if !contains(args, w) {
					t.Errorf("args missing %q: %v", w, args)
				}
			}
			for _, e := range tt.exclude {
				if contains(args, e) {
					t.Errorf("args should not contain %q: %v", e, args)
				}
			}
		})
	}
}

func TestRunnerRejectsMissingAudio(t *testing.T) {
	exec := &fakeExecutor{}
	r := New(Config{OutputDir: t.TempDir()}, exec)

	_, err := r.Run(context.Background(), transcription.Request{AudioPath: "/does/not/exist.wav"})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := errors.As(err).Code; code != errors.ErrCodeInvalidInput {
		t.Errorf("code = %s, want %s", code, errors.ErrCodeInvalidInput)
	}
	if exec.got.Binary != "" {
		t.Error("engine binary should not run for invalid input")
	}
}

func TestRunnerEngineFailure(t *testing.T) {
	audio := writeAudio(t)
	exec := &fakeExecutor{fn: func(_ context.Context, _ process.Command) (*process.Result, error) {
		return &process.Result{ExitCode: 1, Stderr: []byte("CUDA out of memory\n")}, os.ErrPermission
	}}
	r := New(Config{OutputDir: t.TempDir()}, exec)

	_, err := r.Run(context.Background(), transcription.Request{AudioPath: audio})
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := errors.As(err)
	if appErr.Code != errors.ErrCodeEngineExecution {
		t.Errorf("code = %s, want %s", appErr.Code, errors.ErrCodeEngineExecution)
	}
	if appErr.Details["stderr"] != "CUDA out of memory" {
		t.Errorf("stderr detail = %v, want trimmed engine stderr", appErr.Details["stderr"])
	}
	if appErr.Retryable {
		t.Error("execution failure should not be retryable")
	}
}

func TestRunnerTimeout(t *testing.T) {
	audio := writeAudio(t)
	exec := &fakeExecutor{fn: func(ctx context.Context, _ process.Command) (*process.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	r := New(Config{OutputDir: t.TempDir(), Timeout: 10 * time.Millisecond}, exec)

	_, err := r.Run(context.Background(), transcription.Request{AudioPath: audio})
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := errors.As(err)
	if appErr.Code != errors.ErrCodeTimeout {
		t.Errorf("code = %s, want %s", appErr.Code, errors.ErrCodeTimeout)
	}
	if !appErr.Retryable {
		t.Error("timeout should be retryable")
	}
}

func TestRunnerExternalCancel(t *testing.T) {
	audio := writeAudio(t)
	exec := &fakeExecutor{fn: func(ctx context.Context, _ process.Command) (*process.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	r := New(Config{OutputDir: t.TempDir()}, exec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, transcription.Request{AudioPath: audio})
	if err == nil {
		t.Fatal("expected error")
	}
	// A shutdown is not an engine failure; cancellation must stay
	// visible so the job is retried instead of terminally failed.
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled, got %v", err)
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		t.Errorf("cancellation must not map to taxonomy code %s", appErr.Code)
	}
}

func TestRunnerMissingArtifact(t *testing.T) {
	audio := writeAudio(t)
	exec := &fakeExecutor{} // exits 0 but writes nothing
	r := New(Config{OutputDir: t.TempDir()}, exec)

	_, err := r.Run(context.Background(), transcription.Request{AudioPath: audio})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := errors.As(err).Code; code != errors.ErrCodeEngineOutputMissing {
		t.Errorf("code = %s, want %s", code, errors.ErrCodeEngineOutputMissing)
	}
}

func TestRunnerMalformedArtifact(t *testing.T) {
	audio := writeAudio(t)
	outputDir := t.TempDir()
	exec := &fakeExecutor{fn: func(_ context.Context, _ process.Command) (*process.Result, error) {
		writeArtifact(t, outputDir, audio, `{truncated`)
		return &process.Result{ExitCode: 0}, nil
	}}
	r := New(Config{OutputDir: outputDir}, exec)

	_, err := r.Run(context.Background(), transcription.Request{AudioPath: audio})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := errors.As(err).Code; code != errors.ErrCodeEngineOutputMissing {
		t.Errorf("code = %s, want %s", code, errors.ErrCodeEngineOutputMissing)
	}
}

func contains(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}
