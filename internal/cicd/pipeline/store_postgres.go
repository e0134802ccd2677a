// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package pipeline

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

// NewRepository creates a new PostgreSQL implementation of the pipeline Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Create persists a new pipeline into the cicd.pipeline table.

Parameters:
  - context: context.Context
  - pipeline: *Pipeline

Returns:
  - error: Conflict on a duplicate slug, or mapped execution errors
*/
func (repository *PostgresRepository) Create(context context.Context, pipeline *Pipeline) error {
	const query = `
		INSERT INTO cicd.pipeline (
			id, name, slug, repository, branch, status, createdby, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now()
	if pipeline.CreatedAt.IsZero() {
		pipeline.CreatedAt = now
	}
	pipeline.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		pipeline.ID,
		pipeline.Name,
		pipeline.Slug,
		pipeline.Repository,
		pipeline.Branch,
		pipeline.Status,
		pipeline.CreatedBy,
		pipeline.CreatedAt,
		pipeline.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Pipeline")
	}

	return nil
}

// FindByID retrieves a pipeline by primary key.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Pipeline, error) {
	const query = `
		SELECT id, name, slug, repository, branch, status, createdby, createdat, updatedat
		FROM cicd.pipeline
		WHERE id = $1`

	pipeline := &Pipeline{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&pipeline.ID,
		&pipeline.Name,
		&pipeline.Slug,
		&pipeline.Repository,
		&pipeline.Branch,
		&pipeline.Status,
		&pipeline.CreatedBy,
		&pipeline.CreatedAt,
		&pipeline.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "Pipeline")
	}

	return pipeline, nil
}

/*
List returns a page of pipelines ordered by creation time, newest first.

Returns:
  - []*Pipeline: The requested page
  - int: Total pipeline count for pagination metadata
  - error: Mapped query errors
*/
func (repository *PostgresRepository) List(context context.Context, params pagination.Params) ([]*Pipeline, int, error) {
	const countQuery = "SELECT COUNT(*) FROM cicd.pipeline"

	var total int
	if err := repository.pool.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "Pipeline")
	}

	const query = `
		SELECT id, name, slug, repository, branch, status, createdby, createdat, updatedat
		FROM cicd.pipeline
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(context, query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Pipeline")
	}
	defer rows.Close()

	var pipelines []*Pipeline
	for rows.Next() {
		pipeline := &Pipeline{}
		if err := rows.Scan(
			&pipeline.ID,
			&pipeline.Name,
			&pipeline.Slug,
			&pipeline.Repository,
			&pipeline.Branch,
			&pipeline.Status,
			&pipeline.CreatedBy,
			&pipeline.CreatedAt,
			&pipeline.UpdatedAt,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "Pipeline")
		}
		pipelines = append(pipelines, pipeline)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "Pipeline")
	}

	return pipelines, total, nil
}

// Update persists the mutable pipeline fields.
func (repository *PostgresRepository) Update(context context.Context, pipeline *Pipeline) error {
	const query = `
		UPDATE cicd.pipeline
		SET name = $2, slug = $3, repository = $4, branch = $5, status = $6, updatedat = $7
		WHERE id = $1`

	pipeline.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		pipeline.ID,
		pipeline.Name,
		pipeline.Slug,
		pipeline.Repository,
		pipeline.Branch,
		pipeline.Status,
		pipeline.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Pipeline")
	}

	return nil
}

// Delete removes a pipeline. Runs cascade via the foreign key.
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	const query = "DELETE FROM cicd.pipeline WHERE id = $1"

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "Pipeline")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

/*
CreateRun inserts a run, assigning the next monotonically increasing number
for its pipeline.

Description: The number is computed inside the INSERT with a subselect so
concurrent triggers cannot allocate the same value under the unique index.
*/
func (repository *PostgresRepository) CreateRun(context context.Context, run *Run) error {
	const query = `
		INSERT INTO cicd.run (
			id, pipelineid, number, status, triggeredby, startedat, finishedat
		)
		SELECT $1, $2, COALESCE(MAX(number), 0) + 1, $3, $4, $5, $6
		FROM cicd.run WHERE pipelineid = $2
		RETURNING number`

	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	err := repository.pool.QueryRow(context, query,
		run.ID,
		run.PipelineID,
		run.Status,
		run.TriggeredBy,
		run.StartedAt,
		run.FinishedAt,
	).Scan(&run.Number)

	if err != nil {
		return dberr.Wrap(err, "Run")
	}

	return nil
}

// ListRuns returns a page of runs for a pipeline, newest first.
func (repository *PostgresRepository) ListRuns(context context.Context, pipelineID string, params pagination.Params) ([]*Run, int, error) {
	const countQuery = "SELECT COUNT(*) FROM cicd.run WHERE pipelineid = $1"

	var total int
	if err := repository.pool.QueryRow(context, countQuery, pipelineID).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "Run")
	}

	const query = `
		SELECT id, pipelineid, number, status, triggeredby, startedat, finishedat
		FROM cicd.run
		WHERE pipelineid = $1
		ORDER BY number DESC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(context, query, pipelineID, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Run")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(
			&run.ID,
			&run.PipelineID,
			&run.Number,
			&run.Status,
			&run.TriggeredBy,
			&run.StartedAt,
			&run.FinishedAt,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "Run")
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "Run")
	}

	return runs, total, nil
}
