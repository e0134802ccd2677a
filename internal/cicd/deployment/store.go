// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package deployment

import (
	"context"

	"github.com/nmthanh-dev/flowdeck/pkg/pagination"
)

// Repository is the persistence contract for deployments and their logs.
type Repository interface {
	Create(ctx context.Context, deployment *Deployment) error
	FindByID(ctx context.Context, id string) (*Deployment, error)
	List(ctx context.Context, environment string, params pagination.Params) ([]*Deployment, int, error)
	Update(ctx context.Context, deployment *Deployment) error
	Delete(ctx context.Context, id string) error

	AppendLog(ctx context.Context, deploymentID, line string) error
	ListLogs(ctx context.Context, deploymentID string) ([]*LogEntry, error)
}
