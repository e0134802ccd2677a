// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package deployment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nmthanh-dev/flowdeck/internal/platform/apperr"
	"github.com/nmthanh-dev/flowdeck/internal/platform/validate"
	"github.com/nmthanh-dev/flowdeck/pkg/pagination"
	"github.com/nmthanh-dev/flowdeck/pkg/uuid"
)

// Service implements deployment tracking and rollback bookkeeping.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService wires the deployment service.
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger}
}

// # Inputs

// CreateInput carries the fields for a new deployment record.
type CreateInput struct {
	PipelineID  string `json:"pipeline_id"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

// UpdateInput carries a partial deployment update. Nil fields are left untouched.
type UpdateInput struct {
	Environment *string `json:"environment,omitempty"`
	Version     *string `json:"version,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// validStatuses is the closed set accepted on update.
var validStatuses = []string{StatusPending, StatusInProgress, StatusSucceeded, StatusFailed, StatusRolledBack}

// # Operations

// List returns a page of deployments, optionally filtered by environment.
func (service *Service) List(context context.Context, environment string, params pagination.Params) ([]*Deployment, int, error) {
	if environment != "" {
		validator := &validate.Validator{}
		if err := validator.OneOf("environment", environment, Environments...).Err(); err != nil {
			return nil, 0, err
		}
	}
	return service.repository.List(context, environment, params)
}

// Get resolves a deployment by ID.
func (service *Service) Get(context context.Context, id string) (*Deployment, error) {
	return service.repository.FindByID(context, id)
}

/*
Create records a pending deployment and its opening log line.

Description: The record starts pending; external tooling advances it through
in_progress to a terminal state via Update.
*/
func (service *Service) Create(context context.Context, triggeredBy string, input CreateInput) (*Deployment, error) {
	validator := &validate.Validator{}
	if err := validator.
		Required("pipeline_id", input.PipelineID).
		UUID("pipeline_id", input.PipelineID).
		Required("environment", input.Environment).
		OneOf("environment", input.Environment, Environments...).
		Required("version", input.Version).
		Err(); err != nil {
		return nil, err
	}

	deployment := &Deployment{
		ID:          uuid.New(),
		PipelineID:  input.PipelineID,
		Environment: input.Environment,
		Version:     strings.TrimSpace(input.Version),
		Status:      StatusPending,
		TriggeredBy: triggeredBy,
	}

	if err := service.repository.Create(context, deployment); err != nil {
		return nil, err
	}

	_ = service.repository.AppendLog(context, deployment.ID,
		fmt.Sprintf("deployment of %s to %s created", deployment.Version, deployment.Environment))

	service.logger.InfoContext(context, "deployment_created",
		slog.String("deployment_id", deployment.ID),
		slog.String("environment", deployment.Environment),
		slog.String("version", deployment.Version),
	)

	return deployment, nil
}

// Update applies a partial update, validating state and environment values.
func (service *Service) Update(context context.Context, id string, input UpdateInput) (*Deployment, error) {
	deployment, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	validator := &validate.Validator{}

	if input.Environment != nil {
		validator.OneOf("environment", *input.Environment, Environments...)
		deployment.Environment = *input.Environment
	}
	if input.Version != nil {
		validator.Required("version", *input.Version)
		deployment.Version = strings.TrimSpace(*input.Version)
	}
	if input.Status != nil {
		validator.OneOf("status", *input.Status, validStatuses...)
		deployment.Status = *input.Status
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.repository.Update(context, deployment); err != nil {
		return nil, err
	}

	if input.Status != nil {
		_ = service.repository.AppendLog(context, deployment.ID, "status changed to "+deployment.Status)
	}

	return deployment, nil
}

// Delete removes a deployment record and its logs.
func (service *Service) Delete(context context.Context, id string) error {
	return service.repository.Delete(context, id)
}

/*
Rollback marks a succeeded deployment as rolled back.

Description: Only a succeeded deployment can be rolled back — a pending or
failed one has nothing live to revert. The transition is recorded in the
deployment log with the actor.
*/
func (service *Service) Rollback(context context.Context, id, requestedBy string) (*Deployment, error) {
	deployment, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if deployment.Status != StatusSucceeded {
		return nil, apperr.Unprocessable("Only a succeeded deployment can be rolled back")
	}

	deployment.Status = StatusRolledBack
	if err := service.repository.Update(context, deployment); err != nil {
		return nil, err
	}

	_ = service.repository.AppendLog(context, deployment.ID, "rolled back by "+requestedBy)

	service.logger.InfoContext(context, "deployment_rolled_back",
		slog.String("deployment_id", deployment.ID),
		slog.String("requested_by", requestedBy),
	)

	return deployment, nil
}

// Logs returns the full log transcript for a deployment.
func (service *Service) Logs(context context.Context, id string) ([]*LogEntry, error) {
	// Resolve first so an unknown deployment is a 404, not an empty transcript.
	if _, err := service.repository.FindByID(context, id); err != nil {
		return nil, err
	}
	return service.repository.ListLogs(context, id)
}
