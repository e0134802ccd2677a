// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package directory

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/nmthanh-dev/flowdeck/internal/platform/request"
	"github.com/nmthanh-dev/flowdeck/internal/platform/respond"
	"github.com/nmthanh-dev/flowdeck/pkg/pagination"
)

// Handler exposes the directory service over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates the HTTP adapter for the directory service.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the directory endpoints. The adminGate wraps listing and
// every mutating route; fetching a single profile stays open to any
// authenticated user.
func (handler *Handler) Routes(router chi.Router, adminGate func(http.Handler) http.Handler) {
	router.With(adminGate).Get("/", handler.list)
	router.Get("/{id}", handler.get)
	router.With(adminGate).Put("/{id}", handler.update)
	router.With(adminGate).Delete("/{id}", handler.deactivate)
}

// list handles GET /users (admin only).
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, total, err := handler.service.List(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

// get handles GET /users/{id}.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// update handles PUT /users/{id} (admin only).
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.Update(request.Context(), actorID, requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// deactivate handles DELETE /users/{id} (admin only).
func (handler *Handler) deactivate(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Deactivate(request.Context(), actorID, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
