package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/takerupon/lp-generator/internal/core/event"
	"github.com/takerupon/lp-generator/internal/core/job"
	"github.com/takerupon/lp-generator/internal/core/pipeline"
	"github.com/takerupon/lp-generator/internal/core/storage"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrNoOriginalBrief means the record kept no input to retry from.
	ErrNoOriginalBrief = errors.New("no original brief retained for retry")
	// ErrNotCompleted guards downloads of jobs that have not finished.
	ErrNotCompleted = errors.New("job is not completed yet")
)

// Service is the job-facing API surface: create, query, retry, download.
// Pipeline execution happens on detached background goroutines, bounded by a
// weighted semaphore so a burst of requests cannot fan out into an unbounded
// number of concurrent provider calls.
type Service struct {
	store *job.Store
	exec  *pipeline.Executor
	data  *storage.Local
	bus   event.Bus
	slots *semaphore.Weighted
}

func New(store *job.Store, exec *pipeline.Executor, data *storage.Local, bus event.Bus, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Service{
		store: store,
		exec:  exec,
		data:  data,
		bus:   bus,
		slots: semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Create validates the brief, registers a pending record and schedules the
// pipeline in the background. It returns the job id without waiting for any
// generator call.
func (s *Service) Create(ctx context.Context, brief job.Brief) (string, error) {
	if err := validateBrief(brief); err != nil {
		return "", err
	}

	id := uuid.NewString()
	if err := s.store.Create(job.New(id, brief)); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}

	s.bus.Publish(ctx, event.Event{
		Type: event.EventJobCreated,
		Job:  event.JobEvent{JobID: id},
	})

	s.schedule(id, brief)
	return id, nil
}

func (s *Service) Get(_ context.Context, id string) (*job.Job, error) {
	return s.store.Get(id)
}

// List returns all known jobs, newest first.
func (s *Service) List(_ context.Context) []*job.Job {
	return s.store.List()
}

// Retry starts a brand-new run from an existing record's retained brief. The
// old record is left untouched; the new one points back via RetryOf.
func (s *Service) Retry(ctx context.Context, id string) (string, error) {
	orig, err := s.store.Get(id)
	if err != nil {
		return "", err
	}
	if orig.OriginalBrief == nil {
		return "", ErrNoOriginalBrief
	}

	newID := uuid.NewString()
	rec := job.New(newID, *orig.OriginalBrief)
	rec.RetryOf = id
	if err := s.store.Create(rec); err != nil {
		return "", fmt.Errorf("create retry job: %w", err)
	}

	s.bus.Publish(ctx, event.Event{
		Type: event.EventJobCreated,
		Job:  event.JobEvent{JobID: newID, RetryOf: id},
	})

	s.schedule(newID, *orig.OriginalBrief)
	return newID, nil
}

// Download resolves the archive for a completed job. Unknown ids and missing
// archive files are both not-found; an unfinished job is rejected outright.
func (s *Service) Download(_ context.Context, id string) (path, filename string, err error) {
	rec, err := s.store.Get(id)
	if err != nil {
		return "", "", err
	}
	if rec.Status != job.StatusCompleted {
		return "", "", ErrNotCompleted
	}

	path = s.data.ArchivePath(id)
	if !s.data.Exists(path) {
		return "", "", job.ErrNotFound
	}
	return path, "lp-" + id + ".zip", nil
}

// schedule hands the job to the executor on a goroutine detached from the
// request context, so the run survives after the response is sent. The
// semaphore keeps jobs pending until an execution slot frees up.
func (s *Service) schedule(id string, brief job.Brief) {
	go func() {
		runCtx := context.Background()
		if err := s.slots.Acquire(runCtx, 1); err != nil {
			log.Error().Err(err).Str("job_id", id).Msg("acquire execution slot")
			return
		}
		defer s.slots.Release(1)
		s.exec.Run(runCtx, id, brief)
	}()
}

func validateBrief(b job.Brief) error {
	required := map[string]string{
		"serviceName":    b.ServiceName,
		"serviceType":    b.ServiceType,
		"targetAudience": b.TargetAudience,
		"features":       b.Features,
		"testimonials":   b.Testimonials,
		"companyName":    b.CompanyName,
	}
	for field, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", field)
		}
	}
	return nil
}
