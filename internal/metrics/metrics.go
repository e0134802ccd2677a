// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

/*
Package metrics serves the dashboard's aggregate views.

Everything here is read-only: counts, rates, and activity summaries computed
straight from the primary store. There is no service layer — the handler binds
directly to the repository because no business rules sit between them.
*/
package metrics

import (
	"context"
	"time"
)

// # Aggregate Views

// SystemMetrics is the landing-page summary.
type SystemMetrics struct {
	TotalUsers       int     `json:"total_users"`
	ActiveUsers      int     `json:"active_users"`
	TotalPipelines   int     `json:"total_pipelines"`
	TotalDeployments int     `json:"total_deployments"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}

// PipelineMetrics summarizes run activity.
type PipelineMetrics struct {
	TotalPipelines int            `json:"total_pipelines"`
	TotalRuns      int            `json:"total_runs"`
	RunsByStatus   map[string]int `json:"runs_by_status"`
}

// DeploymentMetrics summarizes release activity.
type DeploymentMetrics struct {
	TotalDeployments int            `json:"total_deployments"`
	ByEnvironment    map[string]int `json:"by_environment"`
	ByStatus         map[string]int `json:"by_status"`
	SuccessRate      float64        `json:"success_rate"` // succeeded / terminal, 0 when no terminal deployments
}

// UserActivity is one row of the admin activity report.
type UserActivity struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	LastLogin *time.Time `json:"last_login"`
}

// PerformanceMetrics summarizes run durations.
type PerformanceMetrics struct {
	CompletedRuns     int     `json:"completed_runs"`
	AverageRunSeconds float64 `json:"average_run_seconds"`
	SlowestRunSeconds float64 `json:"slowest_run_seconds"`
	FastestRunSeconds float64 `json:"fastest_run_seconds"`
}

// ErrorMetrics summarizes failures across the platform.
type ErrorMetrics struct {
	FailedRuns        int     `json:"failed_runs"`
	FailedDeployments int     `json:"failed_deployments"`
	RunFailureRate    float64 `json:"run_failure_rate"` // failed / terminal runs
}

// Repository is the read-only aggregation contract.
type Repository interface {
	System(ctx context.Context) (*SystemMetrics, error)
	Pipelines(ctx context.Context) (*PipelineMetrics, error)
	Deployments(ctx context.Context) (*DeploymentMetrics, error)
	UserActivity(ctx context.Context, limit int) ([]*UserActivity, error)
	Performance(ctx context.Context) (*PerformanceMetrics, error)
	Errors(ctx context.Context) (*ErrorMetrics, error)
}
