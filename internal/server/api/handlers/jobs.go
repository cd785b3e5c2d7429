package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/takerupon/lp-generator/internal/core/job"
	"github.com/takerupon/lp-generator/internal/core/service"
)

type JobsHandler struct {
	svc *service.Service
}

func NewJobsHandler(svc *service.Service) *JobsHandler {
	return &JobsHandler{svc: svc}
}

// Shared types

type GenerateInput struct {
	Body struct {
		ServiceName    string `json:"serviceName" minLength:"1" doc:"Name of the service the page advertises"`
		ServiceType    string `json:"serviceType" minLength:"1" doc:"Kind of service (e.g. online English school)"`
		TargetAudience string `json:"targetAudience" minLength:"1" doc:"Who the page is aimed at"`
		Features       string `json:"features" minLength:"1" doc:"Headline features, comma separated"`
		Testimonials   string `json:"testimonials" minLength:"1" doc:"Social-proof content to include"`
		CompanyName    string `json:"companyName" minLength:"1" doc:"Operating company name"`
	}
}

type JobIDBody struct {
	JobID string `json:"jobId" doc:"Job ID"`
}

type JobIDOutput struct {
	Body JobIDBody
}

type JobIDInput struct {
	ID string `path:"id" doc:"Job ID"`
}

type JobOutput struct {
	Body *job.Job
}

type ListJobsBody struct {
	Jobs []*job.Job `json:"jobs" doc:"All known jobs, newest first"`
}

type ListJobsOutput struct {
	Body ListJobsBody
}

// Handlers

func (h *JobsHandler) Generate(ctx context.Context, input *GenerateInput) (*JobIDOutput, error) {
	id, err := h.svc.Create(ctx, job.Brief{
		ServiceName:    input.Body.ServiceName,
		ServiceType:    input.Body.ServiceType,
		TargetAudience: input.Body.TargetAudience,
		Features:       input.Body.Features,
		Testimonials:   input.Body.Testimonials,
		CompanyName:    input.Body.CompanyName,
	})
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	return &JobIDOutput{Body: JobIDBody{JobID: id}}, nil
}

func (h *JobsHandler) Get(ctx context.Context, input *JobIDInput) (*JobOutput, error) {
	rec, err := h.svc.Get(ctx, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("job not found")
	}
	return &JobOutput{Body: rec}, nil
}

func (h *JobsHandler) List(ctx context.Context, _ *struct{}) (*ListJobsOutput, error) {
	return &ListJobsOutput{Body: ListJobsBody{Jobs: h.svc.List(ctx)}}, nil
}

func (h *JobsHandler) Retry(ctx context.Context, input *JobIDInput) (*JobIDOutput, error) {
	newID, err := h.svc.Retry(ctx, input.ID)
	if err != nil {
		switch {
		case errors.Is(err, job.ErrNotFound):
			return nil, huma.Error404NotFound("job not found")
		case errors.Is(err, service.ErrNoOriginalBrief):
			return nil, huma.Error400BadRequest(err.Error())
		default:
			return nil, huma.Error500InternalServerError(err.Error())
		}
	}

	return &JobIDOutput{Body: JobIDBody{JobID: newID}}, nil
}
