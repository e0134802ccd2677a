// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nmthanh-dev/flowdeck/internal/platform/respond"
)

// activityReportSize caps the admin activity report.
const activityReportSize = 50

// Handler serves the aggregate endpoints straight from the repository.
type Handler struct {
	repository Repository
	startedAt  time.Time
}

// NewHandler creates the metrics handler. startedAt anchors the uptime figure.
func NewHandler(repository Repository, startedAt time.Time) *Handler {
	return &Handler{repository: repository, startedAt: startedAt}
}

// Routes mounts the metrics endpoints. The adminGate wraps the user-activity
// report, which exposes emails and login times.
func (handler *Handler) Routes(router chi.Router, adminGate func(http.Handler) http.Handler) {
	router.Get("/system", handler.system)
	router.Get("/pipelines", handler.pipelines)
	router.Get("/deployments", handler.deployments)
	router.With(adminGate).Get("/users", handler.users)
	router.Get("/performance", handler.performance)
	router.Get("/errors", handler.errors)
}

// system handles GET /metrics/system.
func (handler *Handler) system(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.repository.System(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view.UptimeSeconds = time.Since(handler.startedAt).Seconds()
	respond.OK(writer, view)
}

// pipelines handles GET /metrics/pipelines.
func (handler *Handler) pipelines(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.repository.Pipelines(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

// deployments handles GET /metrics/deployments.
func (handler *Handler) deployments(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.repository.Deployments(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

// users handles GET /metrics/users (admin only).
func (handler *Handler) users(writer http.ResponseWriter, request *http.Request) {
	activity, err := handler.repository.UserActivity(request.Context(), activityReportSize)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, activity)
}

// performance handles GET /metrics/performance.
func (handler *Handler) performance(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.repository.Performance(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

// errors handles GET /metrics/errors.
func (handler *Handler) errors(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.repository.Errors(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}
