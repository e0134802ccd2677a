// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

// HTTP transport for the auth domain.
//
// # Routes
//
// Public:    POST /register, POST /login, POST /refresh
// Protected: POST /logout, GET /me, PUT /profile, PUT /password
//
// Handlers are thin adapters: decode, delegate to the service, encode. All
// domain decisions live in service.go.

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/nmthanh-dev/flowdeck/internal/platform/request"
	"github.com/nmthanh-dev/flowdeck/internal/platform/respond"
)

// Handler exposes the auth service over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates the HTTP adapter for the auth service.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the auth endpoints onto the given router.
func (handler *Handler) Routes(router chi.Router, middleware *Middleware) {
	// Public surface
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)

	// Authenticated surface
	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)
		protected.Post("/logout", handler.logout)
		protected.Get("/me", handler.profile)
		protected.Put("/profile", handler.updateProfile)
		protected.Put("/password", handler.changePassword)
	})
}

// register handles POST /register.
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input RegisterInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Register(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, result)
}

// login handles POST /login.
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input LoginInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Login(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

// refreshRequest is the body for POST /refresh.
type refreshRequest struct {
	Token string `json:"token"`
}

// refresh handles POST /refresh. The endpoint is public: the presented token
// itself is the credential being examined.
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.RefreshToken(request.Context(), input.Token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

// logout handles POST /logout.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.service.Logout(request.Context(), userID)

	respond.OK(writer, map[string]string{FieldMessage: "Logged out"})
}

// profile handles GET /me.
func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// updateProfile handles PUT /profile.
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateProfileInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.UpdateProfile(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// changePassword handles PUT /password.
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input ChangePasswordInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ChangePassword(request.Context(), userID, input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: "Password updated"})
}
