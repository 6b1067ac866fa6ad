package transcription

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/skillsenselab/scribeq/internal/errors"
	"github.com/skillsenselab/scribeq/internal/process"
)

// DefaultTimeout is the wall-clock ceiling for one engine invocation.
const DefaultTimeout = 3600 * time.Second

// CLI executes an engine binary and parses the JSON artifact it writes.
// Both engine variants share this algorithm; they differ only in the
// command they build and the engine tag.
type CLI struct {
	// Engine is the tag stamped on normalized results.
	Engine string
	// Executor runs the engine process. Tests substitute a fake.
	Executor process.Executor
	// Timeout is the wall-clock ceiling. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Run invokes the engine command, enforces the timeout, and normalizes
// the output artifact named after the input file's base name. Partial
// output is never returned: a timeout or non-zero exit fails the run.
func (c *CLI) Run(ctx context.Context, cmd process.Command, outputDir, audioPath string) (*Result, error) {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, apperrors.Internal(err)
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := c.Executor.Execute(runCtx, cmd)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || runCtx.Err() == context.DeadlineExceeded {
			return nil, apperrors.Timeout(c.Engine, timeout.Seconds())
		}
		if ctx.Err() != nil {
			// The caller's context was canceled, not the run ceiling. Not
			// an engine failure: the kept error lets the caller requeue
			// instead of resolving the job.
			return nil, fmt.Errorf("transcription: %s run canceled: %w", c.Engine, ctx.Err())
		}
		stderr := ""
		if res != nil {
			stderr = strings.TrimSpace(string(res.Stderr))
		}
		return nil, apperrors.EngineExecution(c.Engine, stderr).WithCause(err)
	}

	artifact := filepath.Join(outputDir, baseName(audioPath)+".json")
	raw, err := os.ReadFile(artifact)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.EngineOutputMissing(c.Engine, artifact)
		}
		return nil, apperrors.Internal(err)
	}

	result, err := Normalize(raw, c.Engine)
	if err != nil {
		return nil, apperrors.EngineOutputMissing(c.Engine, artifact).WithCause(err)
	}
	return result, nil
}

// baseName returns the file name without directory or extension.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
