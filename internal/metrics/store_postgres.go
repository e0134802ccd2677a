// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package metrics

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmthanh-dev/flowdeck/internal/platform/dberr"
)

// PostgresRepository implements the Repository interface with aggregate queries.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the metrics Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// System returns the platform-wide entity counts. Uptime is filled in by the handler.
func (repository *PostgresRepository) System(context context.Context) (*SystemMetrics, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM users.account),
			(SELECT COUNT(*) FROM users.account WHERE isactive),
			(SELECT COUNT(*) FROM cicd.pipeline),
			(SELECT COUNT(*) FROM cicd.deployment)`

	view := &SystemMetrics{}
	err := repository.pool.QueryRow(context, query).Scan(
		&view.TotalUsers,
		&view.ActiveUsers,
		&view.TotalPipelines,
		&view.TotalDeployments,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Metrics")
	}

	return view, nil
}

// Pipelines returns run counts grouped by status.
func (repository *PostgresRepository) Pipelines(context context.Context) (*PipelineMetrics, error) {
	view := &PipelineMetrics{RunsByStatus: make(map[string]int)}

	const totalsQuery = `
		SELECT
			(SELECT COUNT(*) FROM cicd.pipeline),
			(SELECT COUNT(*) FROM cicd.run)`
	if err := repository.pool.QueryRow(context, totalsQuery).Scan(&view.TotalPipelines, &view.TotalRuns); err != nil {
		return nil, dberr.Wrap(err, "Metrics")
	}

	const byStatusQuery = "SELECT status, COUNT(*) FROM cicd.run GROUP BY status"
	rows, err := repository.pool.Query(context, byStatusQuery)
	if err != nil {
		return nil, dberr.Wrap(err, "Metrics")
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, dberr.Wrap(err, "Metrics")
		}
		view.RunsByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Metrics")
	}

	return view, nil
}

// Deployments returns deployment counts by environment and status plus the success rate.
func (repository *PostgresRepository) Deployments(context context.Context) (*DeploymentMetrics, error) {
	view := &DeploymentMetrics{
		ByEnvironment: make(map[string]int),
		ByStatus:      make(map[string]int),
	}

	const query = "SELECT environment, status, COUNT(*) FROM cicd.deployment GROUP BY environment, status"
	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "Metrics")
	}
	defer rows.Close()

	var succeeded, terminal int
	for rows.Next() {
		var environment, status string
		var count int
		if err := rows.Scan(&environment, &status, &count); err != nil {
			return nil, dberr.Wrap(err, "Metrics")
		}
		view.ByEnvironment[environment] += count
		view.ByStatus[status] += count
		view.TotalDeployments += count

		switch status {
		case "succeeded":
			succeeded += count
			terminal += count
		case "failed", "rolled_back":
			terminal += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Metrics")
	}

	if terminal > 0 {
		view.SuccessRate = float64(succeeded) / float64(terminal)
	}

	return view, nil
}

// UserActivity returns the most recently active accounts, admins-eyes only.
func (repository *PostgresRepository) UserActivity(context context.Context, limit int) ([]*UserActivity, error) {
	const query = `
		SELECT id, name, email, role, lastlogin
		FROM users.account
		ORDER BY lastlogin DESC NULLS LAST
		LIMIT $1`

	rows, err := repository.pool.Query(context, query, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "Metrics")
	}
	defer rows.Close()

	var activity []*UserActivity
	for rows.Next() {
		row := &UserActivity{}
		if err := rows.Scan(&row.ID, &row.Name, &row.Email, &row.Role, &row.LastLogin); err != nil {
			return nil, dberr.Wrap(err, "Metrics")
		}
		activity = append(activity, row)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Metrics")
	}

	return activity, nil
}

// Performance aggregates durations over finished runs.
func (repository *PostgresRepository) Performance(context context.Context) (*PerformanceMetrics, error) {
	const query = `
		SELECT
			COUNT(*),
			COALESCE(AVG(EXTRACT(EPOCH FROM (finishedat - startedat))), 0),
			COALESCE(MAX(EXTRACT(EPOCH FROM (finishedat - startedat))), 0),
			COALESCE(MIN(EXTRACT(EPOCH FROM (finishedat - startedat))), 0)
		FROM cicd.run
		WHERE finishedat IS NOT NULL`

	view := &PerformanceMetrics{}
	err := repository.pool.QueryRow(context, query).Scan(
		&view.CompletedRuns,
		&view.AverageRunSeconds,
		&view.SlowestRunSeconds,
		&view.FastestRunSeconds,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Metrics")
	}

	return view, nil
}

// Errors aggregates failure counts across runs and deployments.
func (repository *PostgresRepository) Errors(context context.Context) (*ErrorMetrics, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM cicd.run WHERE status = 'failed'),
			(SELECT COUNT(*) FROM cicd.run WHERE status IN ('success', 'failed')),
			(SELECT COUNT(*) FROM cicd.deployment WHERE status = 'failed')`

	view := &ErrorMetrics{}
	var terminalRuns int
	err := repository.pool.QueryRow(context, query).Scan(
		&view.FailedRuns,
		&terminalRuns,
		&view.FailedDeployments,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Metrics")
	}

	if terminalRuns > 0 {
		view.RunFailureRate = float64(view.FailedRuns) / float64(terminalRuns)
	}

	return view, nil
}
