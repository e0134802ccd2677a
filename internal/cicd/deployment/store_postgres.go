// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package deployment

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmthanh-dev/flowdeck/internal/platform/dberr"
	"github.com/nmthanh-dev/flowdeck/pkg/pagination"
)

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the deployment Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create persists a new deployment into the cicd.deployment table.
func (repository *PostgresRepository) Create(context context.Context, deployment *Deployment) error {
	const query = `
		INSERT INTO cicd.deployment (
			id, pipelineid, environment, version, status, triggeredby, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	if deployment.CreatedAt.IsZero() {
		deployment.CreatedAt = now
	}
	deployment.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		deployment.ID,
		deployment.PipelineID,
		deployment.Environment,
		deployment.Version,
		deployment.Status,
		deployment.TriggeredBy,
		deployment.CreatedAt,
		deployment.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Deployment")
	}

	return nil
}

// FindByID retrieves a deployment by primary key.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Deployment, error) {
	const query = `
		SELECT id, pipelineid, environment, version, status, triggeredby, createdat, updatedat
		FROM cicd.deployment
		WHERE id = $1`

	deployment := &Deployment{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&deployment.ID,
		&deployment.PipelineID,
		&deployment.Environment,
		&deployment.Version,
		&deployment.Status,
		&deployment.TriggeredBy,
		&deployment.CreatedAt,
		&deployment.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "Deployment")
	}

	return deployment, nil
}

/*
List returns a page of deployments, newest first, optionally filtered by
environment. An empty environment matches everything.
*/
func (repository *PostgresRepository) List(context context.Context, environment string, params pagination.Params) ([]*Deployment, int, error) {
	const countQuery = `
		SELECT COUNT(*) FROM cicd.deployment
		WHERE ($1 = '' OR environment = $1)`

	var total int
	if err := repository.pool.QueryRow(context, countQuery, environment).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "Deployment")
	}

	const query = `
		SELECT id, pipelineid, environment, version, status, triggeredby, createdat, updatedat
		FROM cicd.deployment
		WHERE ($1 = '' OR environment = $1)
		ORDER BY createdat DESC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(context, query, environment, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Deployment")
	}
	defer rows.Close()

	var deployments []*Deployment
	for rows.Next() {
		deployment := &Deployment{}
		if err := rows.Scan(
			&deployment.ID,
			&deployment.PipelineID,
			&deployment.Environment,
			&deployment.Version,
			&deployment.Status,
			&deployment.TriggeredBy,
			&deployment.CreatedAt,
			&deployment.UpdatedAt,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "Deployment")
		}
		deployments = append(deployments, deployment)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "Deployment")
	}

	return deployments, total, nil
}

// Update persists the mutable deployment fields.
func (repository *PostgresRepository) Update(context context.Context, deployment *Deployment) error {
	const query = `
		UPDATE cicd.deployment
		SET environment = $2, version = $3, status = $4, updatedat = $5
		WHERE id = $1`

	deployment.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		deployment.ID,
		deployment.Environment,
		deployment.Version,
		deployment.Status,
		deployment.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Deployment")
	}

	return nil
}

// Delete removes a deployment. Logs cascade via the foreign key.
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	const query = "DELETE FROM cicd.deployment WHERE id = $1"

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "Deployment")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

// AppendLog stores one line of deployment output.
func (repository *PostgresRepository) AppendLog(context context.Context, deploymentID, line string) error {
	const query = `
		INSERT INTO cicd.deployment_log (deploymentid, line, loggedat)
		VALUES ($1, $2, $3)`

	_, err := repository.pool.Exec(context, query, deploymentID, line, time.Now())
	if err != nil {
		return dberr.Wrap(err, "DeploymentLog")
	}

	return nil
}

// ListLogs returns every log line for a deployment in insertion order.
func (repository *PostgresRepository) ListLogs(context context.Context, deploymentID string) ([]*LogEntry, error) {
	const query = `
		SELECT id, deploymentid, line, loggedat
		FROM cicd.deployment_log
		WHERE deploymentid = $1
		ORDER BY id ASC`

	rows, err := repository.pool.Query(context, query, deploymentID)
	if err != nil {
		return nil, dberr.Wrap(err, "DeploymentLog")
	}
	defer rows.Close()

	var entries []*LogEntry
	for rows.Next() {
		entry := &LogEntry{}
		if err := rows.Scan(&entry.ID, &entry.DeploymentID, &entry.Line, &entry.LoggedAt); err != nil {
			return nil, dberr.Wrap(err, "DeploymentLog")
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "DeploymentLog")
	}

	return entries, nil
}
