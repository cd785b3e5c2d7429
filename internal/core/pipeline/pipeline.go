package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/takerupon/lp-generator/internal/core/event"
	"github.com/takerupon/lp-generator/internal/core/generator"
	"github.com/takerupon/lp-generator/internal/core/job"
	"github.com/takerupon/lp-generator/internal/core/storage"
)

const heroImageName = "placeholder_css_1.jpg"

// Overall progress after each stage transition. Stage i runs between
// stageProgress[i] and the next mark; completion jumps to 100.
var stageProgress = map[job.StepID]float64{
	job.StepWireframe:  10,
	job.StepCSS:        30,
	job.StepJS:         50,
	job.StepImage:      70,
	job.StepApplyImage: 90,
}

// Executor runs the five-stage generation sequence for one job at a time.
// One executor instance may serve many jobs concurrently; each Run call owns
// its job record end to end and is the only writer for it.
type Executor struct {
	store *job.Store
	gen   generator.Generator
	data  *storage.Local
	bus   event.Bus

	// requireImage turns a missing hero image from a tolerated gap into a
	// job failure.
	requireImage bool
}

func NewExecutor(store *job.Store, gen generator.Generator, data *storage.Local, bus event.Bus, requireImage bool) *Executor {
	return &Executor{
		store:        store,
		gen:          gen,
		data:         data,
		bus:          bus,
		requireImage: requireImage,
	}
}

// Run executes the pipeline for jobID. All outcomes, including panics, end up
// in the job record; nothing propagates past the background task boundary.
func (e *Executor) Run(ctx context.Context, jobID string, brief job.Brief) {
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("job_id", jobID).Any("panic", r).Msg("pipeline panic")
			e.fail(ctx, jobID, fmt.Errorf("internal error: %v", r))
		}
	}()

	workDir := e.data.WorkDir(jobID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		e.fail(ctx, jobID, fmt.Errorf("create working area: %w", err))
		return
	}

	log.Info().Str("job_id", jobID).Str("work_dir", workDir).Msg("pipeline started")

	var html, css string

	stages := []struct {
		id  job.StepID
		run func(ctx context.Context) error
	}{
		{job.StepWireframe, func(ctx context.Context) error {
			out, err := e.gen.Wireframe(ctx, formatBrief(brief))
			if err != nil {
				return err
			}
			html = out
			return writeArtifact(workDir, "index.html", []byte(html))
		}},
		{job.StepCSS, func(ctx context.Context) error {
			out, err := e.gen.Stylesheet(ctx, html)
			if err != nil {
				return err
			}
			css = out
			return writeArtifact(workDir, "style.css", []byte(css))
		}},
		{job.StepJS, func(ctx context.Context) error {
			out, err := e.gen.Script(ctx, html, css)
			if err != nil {
				return err
			}
			return writeArtifact(workDir, "script.js", []byte(out))
		}},
		{job.StepImage, func(ctx context.Context) error {
			images, err := e.gen.HeroImages(ctx, html)
			if err != nil {
				return err
			}
			for _, img := range images {
				if err := writeArtifact(workDir, img.Name, img.Data); err != nil {
					return err
				}
			}
			return nil
		}},
		{job.StepApplyImage, func(ctx context.Context) error {
			finalHTML, finalCSS, err := e.gen.ApplyImage(ctx, html, css)
			if err != nil {
				return err
			}
			if err := writeArtifact(workDir, "index.html", []byte(finalHTML)); err != nil {
				return err
			}
			return writeArtifact(workDir, "style.css", []byte(finalCSS))
		}},
	}

	for i, stage := range stages {
		if err := e.startStage(jobID, i, stage.id); err != nil {
			log.Error().Err(err).Str("job_id", jobID).Msg("stage transition")
			return
		}
		if err := stage.run(ctx); err != nil {
			log.Warn().Err(err).Str("job_id", jobID).Str("step", string(stage.id)).Msg("stage failed")
			e.fail(ctx, jobID, err)
			return
		}
		if _, err := e.store.Update(jobID, func(j *job.Job) {
			j.Steps[i].Status = job.StatusCompleted
			j.Steps[i].Progress = 100
		}); err != nil {
			log.Error().Err(err).Str("job_id", jobID).Msg("stage transition")
			return
		}
	}

	result, err := e.assembleResult(jobID, workDir)
	if err != nil {
		e.fail(ctx, jobID, err)
		return
	}

	// Package before flipping to completed so a packaging failure never
	// leaves a completed job with no downloadable archive.
	if err := writeArchive(e.data.ArchivePath(jobID), workDir); err != nil {
		e.fail(ctx, jobID, fmt.Errorf("package output: %w", err))
		return
	}

	if _, err := e.store.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusCompleted
		j.Progress = 100
		j.CurrentStep = "completed"
		j.Result = result
	}); err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("final update")
		return
	}

	if err := os.RemoveAll(workDir); err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("working area cleanup")
	}

	e.bus.Publish(ctx, event.Event{
		Type: event.EventJobCompleted,
		Job:  event.JobEvent{JobID: jobID, Duration: time.Since(started)},
	})
}

// startStage marks stage i in-flight and moves overall progress to its mark.
func (e *Executor) startStage(jobID string, i int, id job.StepID) error {
	_, err := e.store.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusProcessing
		j.Progress = stageProgress[id]
		j.CurrentStep = string(id)
		j.Steps[i].Status = job.StatusProcessing
	})
	return err
}

// assembleResult reads the final artifacts back from the working area and
// builds the result payload. A missing hero image is tolerated as an empty
// image field unless requireImage is set.
func (e *Executor) assembleResult(jobID, workDir string) (*job.Result, error) {
	finalHTML, err := os.ReadFile(filepath.Join(workDir, "index.html"))
	if err != nil {
		return nil, fmt.Errorf("read final html: %w", err)
	}
	finalCSS, err := os.ReadFile(filepath.Join(workDir, "style.css"))
	if err != nil {
		return nil, fmt.Errorf("read final css: %w", err)
	}
	finalJS, err := os.ReadFile(filepath.Join(workDir, "script.js"))
	if err != nil {
		return nil, fmt.Errorf("read final js: %w", err)
	}

	imageURI := ""
	if imgData, err := os.ReadFile(filepath.Join(workDir, heroImageName)); err == nil {
		imageURI = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imgData)
	} else if e.requireImage {
		return nil, fmt.Errorf("hero image required but not generated: %w", err)
	} else {
		log.Warn().Str("job_id", jobID).Msg("no hero image produced, completing without one")
	}

	return &job.Result{
		JobID:       jobID,
		HTML:        string(finalHTML),
		CSS:         string(finalCSS),
		JS:          string(finalJS),
		ImageBase64: imageURI,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// fail records a terminal error state: the in-flight step is marked error,
// overall progress resets to zero and no further stages run. The working
// area is intentionally left on disk for post-mortem.
func (e *Executor) fail(ctx context.Context, jobID string, cause error) {
	_, err := e.store.Update(jobID, func(j *job.Job) {
		for i := range j.Steps {
			if j.Steps[i].Status == job.StatusProcessing {
				j.Steps[i].Status = job.StatusError
			}
		}
		j.Status = job.StatusError
		j.Progress = 0
		j.CurrentStep = ""
		j.Error = cause.Error()
	})
	if err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("record failure state")
		return
	}

	e.bus.Publish(ctx, event.Event{
		Type: event.EventJobFailed,
		Job:  event.JobEvent{JobID: jobID, Error: cause.Error()},
	})
}

func writeArtifact(dir, name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// formatBrief renders the structured brief as the numbered outline the
// wireframe agent expects.
func formatBrief(b job.Brief) string {
	return fmt.Sprintf(
		"1. Service name: %s\n\n2. Service type: %s\n\n3. Target audience: %s\n\n4. Features: %s\n\n5. Social proof: %s\n\n6. Company: %s",
		b.ServiceName, b.ServiceType, b.TargetAudience, b.Features, b.Testimonials, b.CompanyName,
	)
}
