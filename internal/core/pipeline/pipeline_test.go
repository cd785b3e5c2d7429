package pipeline

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takerupon/lp-generator/internal/core/event"
	"github.com/takerupon/lp-generator/internal/core/generator"
	"github.com/takerupon/lp-generator/internal/core/generator/generatortest"
	"github.com/takerupon/lp-generator/internal/core/job"
	"github.com/takerupon/lp-generator/internal/core/storage"
)

type fixture struct {
	store *job.Store
	data  *storage.Local
	bus   event.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	data, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	return &fixture{
		store: job.NewStore(data, 0),
		data:  data,
		bus:   event.NewBus(),
	}
}

func (f *fixture) run(t *testing.T, gen generator.Generator, requireImage bool) *job.Job {
	t.Helper()
	brief := job.Brief{
		ServiceName:    "EasySpeak",
		ServiceType:    "online English school",
		TargetAudience: "busy professionals",
		Features:       "AI tutor",
		Testimonials:   "Loved by learners",
		CompanyName:    "EasySpeak Inc.",
	}
	require.NoError(t, f.store.Create(job.New("job-1", brief)))

	exec := NewExecutor(f.store, gen, f.data, f.bus, requireImage)
	exec.Run(context.Background(), "job-1", brief)

	rec, err := f.store.Get("job-1")
	require.NoError(t, err)
	return rec
}

func TestRunCompletesJob(t *testing.T) {
	f := newFixture(t)
	var completed atomic.Int32
	f.bus.Subscribe(event.EventJobCompleted, func(_ context.Context, e event.Event) error {
		assert.Equal(t, "job-1", e.Job.JobID)
		assert.Positive(t, e.Job.Duration)
		completed.Add(1)
		return nil
	})

	rec := f.run(t, &generatortest.Fake{}, false)

	assert.Equal(t, job.StatusCompleted, rec.Status)
	assert.Equal(t, float64(100), rec.Progress)
	assert.Equal(t, "completed", rec.CurrentStep)
	assert.Empty(t, rec.Error)
	for _, step := range rec.Steps {
		assert.Equal(t, job.StatusCompleted, step.Status)
		assert.Equal(t, float64(100), step.Progress)
	}

	require.NotNil(t, rec.Result)
	assert.Equal(t, "job-1", rec.Result.JobID)
	assert.Equal(t, generatortest.DefaultHTML, rec.Result.HTML)
	assert.Equal(t, generatortest.DefaultCSS, rec.Result.CSS)
	assert.Equal(t, generatortest.DefaultJS, rec.Result.JS)
	assert.True(t, strings.HasPrefix(rec.Result.ImageBase64, "data:image/jpeg;base64,"))

	assert.Equal(t, int32(1), completed.Load())

	_, err := os.Stat(f.data.WorkDir("job-1"))
	assert.True(t, os.IsNotExist(err), "working area should be removed on success")
}

func TestRunArchiveContents(t *testing.T) {
	f := newFixture(t)
	rec := f.run(t, &generatortest.Fake{}, false)
	require.Equal(t, job.StatusCompleted, rec.Status)

	zr, err := zip.OpenReader(f.data.ArchivePath("job-1"))
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()

	names := make(map[string]bool)
	for _, entry := range zr.File {
		names[entry.Name] = true
	}
	assert.True(t, names["index.html"])
	assert.True(t, names["style.css"])
	assert.True(t, names["script.js"])
	assert.True(t, names[generatortest.DefaultImageName])
}

func TestRunStageFailure(t *testing.T) {
	f := newFixture(t)
	var failed atomic.Int32
	f.bus.Subscribe(event.EventJobFailed, func(_ context.Context, e event.Event) error {
		assert.Contains(t, e.Job.Error, "model refused")
		failed.Add(1)
		return nil
	})

	gen := &generatortest.Fake{
		StylesheetFunc: func(context.Context, string) (string, error) {
			return "", errors.New("model refused")
		},
	}
	rec := f.run(t, gen, false)

	assert.Equal(t, job.StatusError, rec.Status)
	assert.Equal(t, float64(0), rec.Progress)
	assert.Empty(t, rec.CurrentStep)
	assert.Contains(t, rec.Error, "model refused")
	assert.Nil(t, rec.Result)

	assert.Equal(t, job.StatusCompleted, rec.Steps[0].Status)
	assert.Equal(t, job.StatusError, rec.Steps[1].Status)
	assert.Equal(t, job.StatusPending, rec.Steps[2].Status)
	assert.Equal(t, job.StatusPending, rec.Steps[3].Status)
	assert.Equal(t, job.StatusPending, rec.Steps[4].Status)

	assert.Equal(t, int32(1), failed.Load())

	_, err := os.Stat(f.data.WorkDir("job-1"))
	assert.NoError(t, err, "working area should be retained after failure")
}

func TestRunProgressDuringStage(t *testing.T) {
	f := newFixture(t)

	gen := &generatortest.Fake{
		ScriptFunc: func(context.Context, string, string) (string, error) {
			rec, err := f.store.Get("job-1")
			require.NoError(t, err)
			assert.Equal(t, job.StatusProcessing, rec.Status)
			assert.Equal(t, float64(50), rec.Progress)
			assert.Equal(t, "js", rec.CurrentStep)

			processing := 0
			for _, step := range rec.Steps {
				if step.Status == job.StatusProcessing {
					processing++
				}
			}
			assert.Equal(t, 1, processing, "exactly one step in flight")
			return generatortest.DefaultJS, nil
		},
	}
	rec := f.run(t, gen, false)
	assert.Equal(t, job.StatusCompleted, rec.Status)
}

func TestRunMissingHeroImageTolerated(t *testing.T) {
	f := newFixture(t)

	gen := &generatortest.Fake{
		HeroImagesFunc: func(context.Context, string) ([]generator.Image, error) {
			return nil, nil
		},
	}
	rec := f.run(t, gen, false)

	assert.Equal(t, job.StatusCompleted, rec.Status)
	require.NotNil(t, rec.Result)
	assert.Empty(t, rec.Result.ImageBase64)
}

func TestRunMissingHeroImageRequired(t *testing.T) {
	f := newFixture(t)

	gen := &generatortest.Fake{
		HeroImagesFunc: func(context.Context, string) ([]generator.Image, error) {
			return nil, nil
		},
	}
	rec := f.run(t, gen, true)

	assert.Equal(t, job.StatusError, rec.Status)
	assert.Contains(t, rec.Error, "hero image required")
	assert.Nil(t, rec.Result)
}

func TestRunRecoversFromPanic(t *testing.T) {
	f := newFixture(t)

	gen := &generatortest.Fake{
		WireframeFunc: func(context.Context, string) (string, error) {
			panic("provider client blew up")
		},
	}
	rec := f.run(t, gen, false)

	assert.Equal(t, job.StatusError, rec.Status)
	assert.Contains(t, rec.Error, "internal error")
}

func TestRunConcurrentJobsStayIsolated(t *testing.T) {
	data, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	store := job.NewStore(data, 0)
	bus := event.NewBus()

	makeGen := func(tag string) generator.Generator {
		return &generatortest.Fake{
			WireframeFunc: func(context.Context, string) (string, error) {
				return "<html>" + tag + "</html>", nil
			},
		}
	}

	briefA := job.Brief{ServiceName: "A", ServiceType: "a", TargetAudience: "a", Features: "a", Testimonials: "a", CompanyName: "a"}
	briefB := job.Brief{ServiceName: "B", ServiceType: "b", TargetAudience: "b", Features: "b", Testimonials: "b", CompanyName: "b"}
	require.NoError(t, store.Create(job.New("job-a", briefA)))
	require.NoError(t, store.Create(job.New("job-b", briefB)))

	done := make(chan struct{}, 2)
	go func() {
		NewExecutor(store, makeGen("aaa"), data, bus, false).Run(context.Background(), "job-a", briefA)
		done <- struct{}{}
	}()
	go func() {
		NewExecutor(store, makeGen("bbb"), data, bus, false).Run(context.Background(), "job-b", briefB)
		done <- struct{}{}
	}()
	<-done
	<-done

	recA, err := store.Get("job-a")
	require.NoError(t, err)
	recB, err := store.Get("job-b")
	require.NoError(t, err)

	require.Equal(t, job.StatusCompleted, recA.Status)
	require.Equal(t, job.StatusCompleted, recB.Status)
	assert.Contains(t, recA.Result.HTML, "aaa")
	assert.Contains(t, recB.Result.HTML, "bbb")
}

func TestFormatBrief(t *testing.T) {
	out := formatBrief(job.Brief{
		ServiceName:    "EasySpeak",
		ServiceType:    "online English school",
		TargetAudience: "busy professionals",
		Features:       "AI tutor",
		Testimonials:   "Loved by learners",
		CompanyName:    "EasySpeak Inc.",
	})
	assert.Contains(t, out, "1. Service name: EasySpeak")
	assert.Contains(t, out, "6. Company: EasySpeak Inc.")
}
