package jobs

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/skillsenselab/scribeq/internal/errors"
	"github.com/skillsenselab/scribeq/internal/logger"
	"github.com/skillsenselab/scribeq/internal/queue"
	"github.com/skillsenselab/scribeq/internal/storage"
	"github.com/skillsenselab/scribeq/internal/transcription"
	"github.com/skillsenselab/scribeq/internal/validation"
)

// Publisher places a job reference on the dispatch queue.
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

// SubmitRequest carries one submission from the API layer.
type SubmitRequest struct {
	// Filename is the original upload name; its extension selects the
	// stored file's suffix and is checked against the allowed formats.
	Filename string `json:"filename" validate:"required"`
	// Engine names the engine variant to run.
	Engine string `json:"engine" validate:"required"`
	// Language is an optional language hint.
	Language string `json:"language,omitempty"`
	// Model is an optional model-size override.
	Model string `json:"model,omitempty" validate:"omitempty,oneof=base small medium large"`
	// File is the uploaded audio content.
	File io.Reader `json:"-" validate:"required"`
}

// Service implements the submission and status operations consumed by
// the API layer. Submit never blocks on processing; it stores the
// upload, creates the queued record, and publishes the reference.
type Service struct {
	store     Store
	uploads   *storage.Uploads
	publisher Publisher
	engines   *transcription.Registry
	formats   map[string]bool
	log       *logger.Logger
}

// NewService creates the job service.
func NewService(store Store, uploads *storage.Uploads, publisher Publisher, engines *transcription.Registry, allowedFormats []string, log *logger.Logger) *Service {
	formats := make(map[string]bool, len(allowedFormats))
	for _, f := range allowedFormats {
		formats[strings.ToLower(f)] = true
	}
	return &Service{
		store:     store,
		uploads:   uploads,
		publisher: publisher,
		engines:   engines,
		formats:   formats,
		log:       log.WithComponent("jobs.service"),
	}
}

// Submit validates the request, stores the upload, creates the job in
// the queued state, and publishes its reference. An unknown engine is
// rejected here, before any job exists.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Job, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(req.Filename), "."))
	if !s.formats[ext] {
		return nil, errors.Validation(fmt.Sprintf("unsupported format %q; allowed: %s", ext, s.allowedList()))
	}

	if !s.engines.Known(req.Engine) {
		return nil, errors.UnknownEngine(req.Engine)
	}

	job := New(Input{
		Engine:   req.Engine,
		Language: req.Language,
		Model:    req.Model,
	})

	path, err := s.uploads.Save(ctx, job.ID+"."+ext, req.File)
	if err != nil {
		return nil, errors.Internal(err)
	}
	job.Input.AudioPath = path

	if err := s.store.Create(ctx, job); err != nil {
		_ = s.uploads.Delete(ctx, path)
		return nil, errors.Internal(err)
	}

	if err := s.publisher.Publish(ctx, queue.Message{JobID: job.ID, Engine: job.Input.Engine}); err != nil {
		// Roll back so a never-dispatchable job is not left queued.
		_ = s.store.Delete(ctx, job.ID)
		_ = s.uploads.Delete(ctx, path)
		return nil, errors.Internal(err)
	}

	s.log.Info("job submitted", logger.Fields("job_id", job.ID, "engine", job.Input.Engine))
	return job, nil
}

// Status returns the current snapshot of a job.
func (s *Service) Status(ctx context.Context, id string) (*Job, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) allowedList() string {
	names := make([]string, 0, len(s.formats))
	for f := range s.formats {
		names = append(names, f)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
