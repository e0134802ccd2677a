// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package pipeline

import (
	"context"

	"github.com/nmthanh-dev/flowdeck/pkg/pagination"
)

// Repository is the persistence contract for pipelines and their runs.
type Repository interface {
	Create(ctx context.Context, pipeline *Pipeline) error
	FindByID(ctx context.Context, id string) (*Pipeline, error)
	List(ctx context.Context, params pagination.Params) ([]*Pipeline, int, error)
	Update(ctx context.Context, pipeline *Pipeline) error
	Delete(ctx context.Context, id string) error

	// CreateRun inserts a run and assigns it the next per-pipeline number.
	CreateRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, pipelineID string, params pagination.Params) ([]*Run, int, error)
}
