// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

/*
Package pipeline implements CI pipeline definitions and their run history.

A Pipeline is a named build configuration bound to a repository and branch.
Triggering a pipeline records a Run; actual build execution is delegated to
external workers and is out of scope for the API.
*/
package pipeline

import "time"

// # Run States

const (
	StatusIdle    = "idle"
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RunStatuses lists every valid run state, in lifecycle order.
var RunStatuses = []string{StatusQueued, StatusRunning, StatusSuccess, StatusFailed}

// # Domain Entities

// Pipeline represents a CI build configuration.
type Pipeline struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Repository string    `json:"repository"`
	Branch     string    `json:"branch"`
	Status     string    `json:"status"` // status of the latest run, or "idle"
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Run represents one execution of a pipeline.
type Run struct {
	ID          string     `json:"id"`
	PipelineID  string     `json:"pipeline_id"`
	Number      int        `json:"number"` // monotonically increasing per pipeline
	Status      string     `json:"status"`
	TriggeredBy string     `json:"triggered_by"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at"`
}
