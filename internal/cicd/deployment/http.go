// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package deployment

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/nmthanh-dev/flowdeck/internal/platform/request"
	"github.com/nmthanh-dev/flowdeck/internal/platform/respond"
	"github.com/nmthanh-dev/flowdeck/pkg/pagination"
)

// Handler exposes the deployment service over HTTP. Role gates for rollback
// are mounted by the API server, which owns the auth middleware.
type Handler struct {
	service *Service
}

// NewHandler creates the HTTP adapter for the deployment service.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the deployment endpoints onto the given router. The
// rollbackGate wraps the rollback route (devops and admin only).
func (handler *Handler) Routes(router chi.Router, rollbackGate func(http.Handler) http.Handler) {
	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Put("/{id}", handler.update)
	router.Delete("/{id}", handler.delete)
	router.Get("/{id}/logs", handler.logs)
	router.With(rollbackGate).Post("/{id}/rollback", handler.rollback)
}

// list handles GET /deployments?environment=production.
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	environment := request.URL.Query().Get("environment")

	deployments, total, err := handler.service.List(request.Context(), environment, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, deployments, pagination.NewMeta(params.Page, params.Limit, total))
}

// create handles POST /deployments.
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.Create(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

// get handles GET /deployments/{id}.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	found, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, found)
}

// update handles PUT /deployments/{id}.
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input UpdateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.service.Update(request.Context(), requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

// delete handles DELETE /deployments/{id}.
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// rollback handles POST /deployments/{id}/rollback.
func (handler *Handler) rollback(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	rolled, err := handler.service.Rollback(request.Context(), requestutil.ID(request, "id"), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, rolled)
}

// logs handles GET /deployments/{id}/logs.
func (handler *Handler) logs(writer http.ResponseWriter, request *http.Request) {
	entries, err := handler.service.Logs(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entries)
}
