// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package pipeline

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/nmthanh-dev/flowdeck/internal/platform/request"
	"github.com/nmthanh-dev/flowdeck/internal/platform/respond"
	"github.com/nmthanh-dev/flowdeck/pkg/pagination"
)

// Handler exposes the pipeline service over HTTP. All routes sit behind
// the auth gate; mounting happens in the API server.
type Handler struct {
	service *Service
}

// NewHandler creates the HTTP adapter for the pipeline service.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the pipeline endpoints onto the given router.
func (handler *Handler) Routes(router chi.Router) {
	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Put("/{id}", handler.update)
	router.Delete("/{id}", handler.delete)
	router.Post("/{id}/trigger", handler.trigger)
	router.Get("/{id}/runs", handler.listRuns)
}

// list handles GET /pipelines.
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	pipelines, total, err := handler.service.List(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, pipelines, pagination.NewMeta(params.Page, params.Limit, total))
}

// create handles POST /pipelines.
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

// get handles GET /pipelines/{id}.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	found, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, found)
}

// update handles PUT /pipelines/{id}.
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

// delete handles DELETE /pipelines/{id}.
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// trigger handles POST /pipelines/{id}/trigger. Responds 202: the run is
// queued, not executed inline.
func (handler *Handler) trigger(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	run, err := handler.service.Trigger(request.Context(), requestutil.ID(request, "id"), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Accepted(writer, run)
}

// listRuns handles GET /pipelines/{id}/runs.
func (handler *Handler) listRuns(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	runs, total, err := handler.service.ListRuns(request.Context(), requestutil.ID(request, "id"), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, runs, pagination.NewMeta(params.Page, params.Limit, total))
}
