package jobs

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/skillsenselab/scribeq/internal/errors"
	"github.com/skillsenselab/scribeq/internal/logger"
	"github.com/skillsenselab/scribeq/internal/queue"
	"github.com/skillsenselab/scribeq/internal/storage"
	"github.com/skillsenselab/scribeq/internal/transcription"
)

type fakeStore struct {
	jobs      map[string]*Job
	createErr error
	deleted   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: make(map[string]*Job)}
}

func (f *fakeStore) Create(_ context.Context, job *Job) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, errors.NotFound("job", id)
	}
	return job, nil
}

func (f *fakeStore) MarkStarted(_ context.Context, id string) (*Job, error) { return f.jobs[id], nil }
func (f *fakeStore) MarkFinished(_ context.Context, _ string, _ *transcription.Result) error {
	return nil
}
func (f *fakeStore) MarkFailed(_ context.Context, _ string, _ *JobError) error { return nil }

func (f *fakeStore) Delete(_ context.Context, id string) error {
	delete(f.jobs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePublisher struct {
	published []queue.Message
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, msg queue.Message) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakePublisher, string) {
	t.Helper()
	dir := t.TempDir()
	uploads, err := storage.NewUploads(dir)
	if err != nil {
		t.Fatalf("NewUploads() error = %v", err)
	}

	registry := transcription.NewRegistry()
	registry.RegisterFactory("whisperx", func(model string) (transcription.Runner, error) { return nil, nil })
	registry.RegisterFactory("timestamped", func(model string) (transcription.Runner, error) { return nil, nil })

	store := newFakeStore()
	publisher := &fakePublisher{}
	svc := NewService(store, uploads, publisher, registry, []string{"mp3", "wav", "m4a", "flac"}, logger.NewDefault("test"))
	return svc, store, publisher, dir
}

func TestServiceSubmit(t *testing.T) {
	svc, store, publisher, _ := newTestService(t)

	job, err := svc.Submit(context.Background(), SubmitRequest{
		Filename: "meeting.wav",
		Engine:   "whisperx",
		Language: "en",
		File:     strings.NewReader("audio-bytes"),
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if job.Status != StatusQueued {
		t.Errorf("Status = %s, want %s", job.Status, StatusQueued)
	}
	if _, ok := store.jobs[job.ID]; !ok {
		t.Error("job record was not persisted")
	}
	if len(publisher.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(publisher.published))
	}
	msg := publisher.published[0]
	if msg.JobID != job.ID || msg.Engine != "whisperx" {
		t.Errorf("published message = %+v", msg)
	}

	data, err := os.ReadFile(job.Input.AudioPath)
	if err != nil {
		t.Fatalf("read stored upload: %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Errorf("stored upload = %q", data)
	}
}

func TestServiceSubmitUnknownEngine(t *testing.T) {
	svc, store, publisher, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), SubmitRequest{
		Filename: "meeting.wav",
		Engine:   "whisper",
		File:     strings.NewReader("x"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := errors.As(err).Code; code != errors.ErrCodeUnknownEngine {
		t.Errorf("code = %s, want %s", code, errors.ErrCodeUnknownEngine)
	}
	// Rejected before any job exists.
	if len(store.jobs) != 0 {
		t.Error("no job should be created for an unknown engine")
	}
	if len(publisher.published) != 0 {
		t.Error("nothing should be published for an unknown engine")
	}
}

func TestServiceSubmitValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	tests := []struct {
		name string
		req  SubmitRequest
	}{
		{"missing engine", SubmitRequest{Filename: "a.wav", File: strings.NewReader("x")}},
		{"missing file", SubmitRequest{Filename: "a.wav", Engine: "whisperx"}},
		{"missing filename", SubmitRequest{Engine: "whisperx", File: strings.NewReader("x")}},
		{"bad model", SubmitRequest{Filename: "a.wav", Engine: "whisperx", Model: "enormous", File: strings.NewReader("x")}},
		{"bad extension", SubmitRequest{Filename: "a.exe", Engine: "whisperx", File: strings.NewReader("x")}},
		{"no extension", SubmitRequest{Filename: "audio", Engine: "whisperx", File: strings.NewReader("x")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := errors.As(err).Code; code != errors.ErrCodeInvalidInput {
				t.Errorf("code = %s, want %s", code, errors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestServiceSubmitPublishFailureRollsBack(t *testing.T) {
	svc, store, publisher, dir := newTestService(t)
	publisher.err = errorString("broker down")

	_, err := svc.Submit(context.Background(), SubmitRequest{
		Filename: "meeting.wav",
		Engine:   "whisperx",
		File:     strings.NewReader("x"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.jobs) != 0 {
		t.Error("job record should be rolled back when publish fails")
	}
	if len(store.deleted) != 1 {
		t.Errorf("deleted %d jobs, want 1", len(store.deleted))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("upload should be rolled back when publish fails, dir has %d entries", len(entries))
	}
}

func TestServiceStatus(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	job := New(Input{Engine: "whisperx"})
	store.jobs[job.ID] = job

	got, err := svc.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if got.ID != job.ID {
		t.Errorf("ID = %q, want %q", got.ID, job.ID)
	}

	_, err = svc.Status(context.Background(), "missing")
	if code := errors.As(err).Code; code != errors.ErrCodeNotFound {
		t.Errorf("code = %s, want %s", code, errors.ErrCodeNotFound)
	}
}
