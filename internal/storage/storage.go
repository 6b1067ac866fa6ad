// Package storage keeps uploaded audio on the local filesystem until the
// worker has transcribed it. Uploads are scratch data: the worker deletes
// them after the job reaches a terminal state.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Uploads stores scratch audio files under a base directory.
type Uploads struct {
	basePath string
}

// NewUploads creates the upload store, creating the base directory if
// needed.
func NewUploads(basePath string) (*Uploads, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create base directory: %w", err)
	}
	return &Uploads{basePath: abs}, nil
}

// Save writes an upload to "<name>" under the base directory and returns
// the absolute path the worker will read.
func (u *Uploads) Save(_ context.Context, name string, reader io.Reader) (string, error) {
	fullPath := filepath.Join(u.basePath, filepath.Clean(name))

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(f, reader); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return fullPath, nil
}

// Delete removes a stored upload. Returns nil if the file does not exist.
func (u *Uploads) Delete(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete file: %w", err)
	}
	return nil
}

// Exists checks whether a stored upload exists.
func (u *Uploads) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("storage: stat file: %w", err)
	}
	return true, nil
}
