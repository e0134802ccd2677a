// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package deployment

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmthanh-dev/flowdeck/internal/platform/apperr"
	"github.com/nmthanh-dev/flowdeck/pkg/pagination"
	"github.com/nmthanh-dev/flowdeck/pkg/uuid"
)

// memoryRepo is a map-backed Repository for service tests.
type memoryRepo struct {
	mu          sync.Mutex
	deployments map[string]*Deployment
	logs        map[string][]*LogEntry
	nextLogID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		deployments: make(map[string]*Deployment),
		logs:        make(map[string][]*LogEntry),
	}
}

func (repo *memoryRepo) Create(_ context.Context, deployment *Deployment) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	clone := *deployment
	repo.deployments[deployment.ID] = &clone
	return nil
}

func (repo *memoryRepo) FindByID(_ context.Context, id string) (*Deployment, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	existing, ok := repo.deployments[id]
	if !ok {
		return nil, apperr.NotFound("Deployment")
	}
	clone := *existing
	return &clone, nil
}

func (repo *memoryRepo) List(_ context.Context, environment string, _ pagination.Params) ([]*Deployment, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var matched []*Deployment
	for _, existing := range repo.deployments {
		if environment == "" || existing.Environment == environment {
			clone := *existing
			matched = append(matched, &clone)
		}
	}
	return matched, len(matched), nil
}

func (repo *memoryRepo) Update(_ context.Context, deployment *Deployment) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.deployments[deployment.ID]; !ok {
		return apperr.NotFound("Deployment")
	}
	clone := *deployment
	repo.deployments[deployment.ID] = &clone
	return nil
}

func (repo *memoryRepo) Delete(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.deployments[id]; !ok {
		return apperr.NotFound("Deployment")
	}
	delete(repo.deployments, id)
	delete(repo.logs, id)
	return nil
}

func (repo *memoryRepo) AppendLog(_ context.Context, deploymentID, line string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.nextLogID++
	repo.logs[deploymentID] = append(repo.logs[deploymentID], &LogEntry{
		ID:           repo.nextLogID,
		DeploymentID: deploymentID,
		Line:         line,
	})
	return nil
}

func (repo *memoryRepo) ListLogs(_ context.Context, deploymentID string) ([]*LogEntry, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.logs[deploymentID], nil
}

func newTestService() *Service {
	return NewService(newMemoryRepo(), slog.New(slog.DiscardHandler))
}

func createSucceeded(t *testing.T, service *Service) *Deployment {
	t.Helper()

	created, err := service.Create(context.Background(), "user-1", CreateInput{
		PipelineID:  uuid.New(),
		Environment: EnvProduction,
		Version:     "v1.4.2",
	})
	require.NoError(t, err)

	succeeded := StatusSucceeded
	updated, err := service.Update(context.Background(), created.ID, UpdateInput{Status: &succeeded})
	require.NoError(t, err)
	return updated
}

func TestService_Create(t *testing.T) {
	service := newTestService()

	created, err := service.Create(context.Background(), "user-1", CreateInput{
		PipelineID:  uuid.New(),
		Environment: EnvStaging,
		Version:     " v2.0.0 ",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, "v2.0.0", created.Version)
	assert.Equal(t, "user-1", created.TriggeredBy)

	// The opening log line is written on create.
	logs, err := service.Logs(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Line, "v2.0.0")

	t.Run("rejects an unknown environment", func(t *testing.T) {
		_, err := service.Create(context.Background(), "user-1", CreateInput{
			PipelineID:  uuid.New(),
			Environment: "qa",
			Version:     "v1.0.0",
		})
		assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
	})
}

func TestService_Rollback(t *testing.T) {
	t.Run("rolls back a succeeded deployment and records the actor", func(t *testing.T) {
		service := newTestService()
		deployed := createSucceeded(t, service)

		rolled, err := service.Rollback(context.Background(), deployed.ID, "ops-user")
		require.NoError(t, err)
		assert.Equal(t, StatusRolledBack, rolled.Status)

		logs, err := service.Logs(context.Background(), deployed.ID)
		require.NoError(t, err)
		assert.Contains(t, logs[len(logs)-1].Line, "ops-user")
	})

	t.Run("refuses anything that never succeeded", func(t *testing.T) {
		service := newTestService()

		created, err := service.Create(context.Background(), "user-1", CreateInput{
			PipelineID:  uuid.New(),
			Environment: EnvProduction,
			Version:     "v1.0.0",
		})
		require.NoError(t, err)

		_, err = service.Rollback(context.Background(), created.ID, "ops-user")
		assert.True(t, apperr.HasCode(err, "UNPROCESSABLE"))
	})

	t.Run("is not repeatable", func(t *testing.T) {
		service := newTestService()
		deployed := createSucceeded(t, service)

		_, err := service.Rollback(context.Background(), deployed.ID, "ops-user")
		require.NoError(t, err)

		_, err = service.Rollback(context.Background(), deployed.ID, "ops-user")
		assert.True(t, apperr.HasCode(err, "UNPROCESSABLE"))
	})
}

func TestService_List_FiltersByEnvironment(t *testing.T) {
	service := newTestService()

	for _, environment := range []string{EnvProduction, EnvStaging, EnvProduction} {
		_, err := service.Create(context.Background(), "user-1", CreateInput{
			PipelineID:  uuid.New(),
			Environment: environment,
			Version:     "v1.0.0",
		})
		require.NoError(t, err)
	}

	production, total, err := service.List(context.Background(), EnvProduction, pagination.Params{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, production, 2)

	_, _, err = service.List(context.Background(), "qa", pagination.Params{Page: 1, Limit: 20})
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
}

func TestService_Logs_UnknownDeployment(t *testing.T) {
	service := newTestService()

	_, err := service.Logs(context.Background(), "missing")
	assert.True(t, apperr.IsNotFound(err))
}
