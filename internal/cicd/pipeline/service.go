// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nmthanh-dev/flowdeck/internal/platform/validate"
	"github.com/nmthanh-dev/flowdeck/pkg/pagination"
	"github.com/nmthanh-dev/flowdeck/pkg/slug"
	"github.com/nmthanh-dev/flowdeck/pkg/uuid"
)

// DefaultBranch is used when a pipeline is created without one.
const DefaultBranch = "main"

// MaxNameLength caps pipeline names.
const MaxNameLength = 120

// Service implements pipeline management and run bookkeeping.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService wires the pipeline service.
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger}
}

// # Inputs

// CreateInput carries the fields for a new pipeline.
type CreateInput struct {
	Name       string `json:"name"`
	Repository string `json:"repository"`
	Branch     string `json:"branch,omitempty"`
}

// UpdateInput carries a partial pipeline update. Nil fields are left untouched.
type UpdateInput struct {
	Name       *string `json:"name,omitempty"`
	Repository *string `json:"repository,omitempty"`
	Branch     *string `json:"branch,omitempty"`
}

// # Operations

// List returns a page of pipelines with total count.
func (service *Service) List(context context.Context, params pagination.Params) ([]*Pipeline, int, error) {
	return service.repository.List(context, params)
}

// Get resolves a pipeline by ID.
func (service *Service) Get(context context.Context, id string) (*Pipeline, error) {
	return service.repository.FindByID(context, id)
}

/*
Create registers a new pipeline owned by the calling user.

Description: The slug is derived from the name; a duplicate slug surfaces as
a Conflict via the unique index. New pipelines start idle until first triggered.
*/
func (service *Service) Create(context context.Context, createdBy string, input CreateInput) (*Pipeline, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Branch == "" {
		input.Branch = DefaultBranch
	}

	validator := &validate.Validator{}
	if err := validator.
		Required("name", input.Name).
		MaxLen("name", input.Name, MaxNameLength).
		Required("repository", input.Repository).
		Err(); err != nil {
		return nil, err
	}

	pipeline := &Pipeline{
		ID:         uuid.New(),
		Name:       input.Name,
		Slug:       slug.From(input.Name),
		Repository: strings.TrimSpace(input.Repository),
		Branch:     input.Branch,
		Status:     StatusIdle,
		CreatedBy:  createdBy,
	}

	if err := service.repository.Create(context, pipeline); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "pipeline_created",
		slog.String("pipeline_id", pipeline.ID),
		slog.String("slug", pipeline.Slug),
	)

	return pipeline, nil
}

// Update applies a partial update, re-deriving the slug when the name changes.
func (service *Service) Update(context context.Context, id string, input UpdateInput) (*Pipeline, error) {
	pipeline, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	validator := &validate.Validator{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		validator.Required("name", name).MaxLen("name", name, MaxNameLength)
		pipeline.Name = name
		pipeline.Slug = slug.From(name)
	}
	if input.Repository != nil {
		validator.Required("repository", *input.Repository)
		pipeline.Repository = strings.TrimSpace(*input.Repository)
	}
	if input.Branch != nil {
		validator.Required("branch", *input.Branch)
		pipeline.Branch = *input.Branch
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.repository.Update(context, pipeline); err != nil {
		return nil, err
	}

	return pipeline, nil
}

// Delete removes a pipeline and, via cascade, its run history.
func (service *Service) Delete(context context.Context, id string) error {
	if err := service.repository.Delete(context, id); err != nil {
		return err
	}

	service.logger.InfoContext(context, "pipeline_deleted", slog.String("pipeline_id", id))
	return nil
}

/*
Trigger records a queued run for a pipeline.

Description: The API only records the intent; build workers pick queued runs
up out-of-band. The pipeline status mirrors the newest run.
*/
func (service *Service) Trigger(context context.Context, pipelineID, triggeredBy string) (*Run, error) {
	pipeline, err := service.repository.FindByID(context, pipelineID)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:          uuid.New(),
		PipelineID:  pipeline.ID,
		Status:      StatusQueued,
		TriggeredBy: triggeredBy,
	}
	if err := service.repository.CreateRun(context, run); err != nil {
		return nil, err
	}

	pipeline.Status = StatusQueued
	if err := service.repository.Update(context, pipeline); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "pipeline_triggered",
		slog.String("pipeline_id", pipeline.ID),
		slog.Int("run_number", run.Number),
	)

	return run, nil
}

// ListRuns returns a page of a pipeline's run history, newest first.
func (service *Service) ListRuns(context context.Context, pipelineID string, params pagination.Params) ([]*Run, int, error) {
	// Resolve first so an unknown pipeline is a 404, not an empty page.
	if _, err := service.repository.FindByID(context, pipelineID); err != nil {
		return nil, 0, err
	}
	return service.repository.ListRuns(context, pipelineID, params)
}
