// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

/*
Package deployment implements release tracking across environments.

A Deployment records a version of a pipeline's artifact landing in an
environment. Rollbacks are modeled as state transitions, not as re-running
infrastructure: actual provisioning is delegated to external tooling.
*/
package deployment

import "time"

// # Environments

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Environments lists every deployable target.
var Environments = []string{EnvDevelopment, EnvStaging, EnvProduction}

// # Deployment States

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusRolledBack = "rolled_back"
)

// # Domain Entities

// Deployment represents one release of a pipeline artifact to an environment.
type Deployment struct {
	ID          string    `json:"id"`
	PipelineID  string    `json:"pipeline_id"`
	Environment string    `json:"environment"`
	Version     string    `json:"version"`
	Status      string    `json:"status"`
	TriggeredBy string    `json:"triggered_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LogEntry is a single line of deployment output.
type LogEntry struct {
	ID           int64     `json:"id"`
	DeploymentID string    `json:"deployment_id"`
	Line         string    `json:"line"`
	LoggedAt     time.Time `json:"logged_at"`
}
