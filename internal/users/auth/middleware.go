// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

// Request-level access control for the HTTP layer.
//
// # Placement
//
// The authentication middleware lives with the auth domain rather than in
// platform/middleware because it needs the domain's UserRepository to load
// the live account. Platform middleware stays dependency-free.

package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nmthanh-dev/flowdeck/internal/platform/constants"
	"github.com/nmthanh-dev/flowdeck/internal/platform/ctxutil"
	"github.com/nmthanh-dev/flowdeck/internal/platform/respond"
	"github.com/nmthanh-dev/flowdeck/internal/platform/sec"
)

// userContextKey is the private key type for the loaded account.
type userContextKey struct{}

// UserFromContext retrieves the fully-loaded [*User] attached by RequireAuth.
// Returns nil for anonymous requests.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}

// # Middleware

// Middleware provides the per-request access gates for protected routes.
type Middleware struct {
	tokens TokenProvider
	users  UserRepository
	logger *slog.Logger
}

// NewMiddleware wires the access middleware with its token and user collaborators.
func NewMiddleware(tokens TokenProvider, users UserRepository, logger *slog.Logger) *Middleware {
	return &Middleware{tokens: tokens, users: users, logger: logger}
}

/*
RequireAuth rejects any request without a valid bearer token.

Description: Extracts the Authorization header, verifies the token
signature and expiry, then loads the live user record. A token whose
subject no longer exists or has been deactivated is rejected even though
its signature verifies. On success both the token claims and the loaded
user are attached to the request context.

Note: this gate does NOT consult the session cache — an older-but-unexpired
token still authorizes plain API requests after a newer login. Only token
rotation (refresh) enforces the single-session invariant.
*/
func (middleware *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

		// 1. Extract the bearer token
		token, ok := extractBearer(request)
		if !ok {
			respond.Error(writer, request, ErrAuthRequired)
			return
		}

		// 2. Verify signature and expiry
		claims, err := middleware.tokens.VerifyToken(token)
		if err != nil {
			respond.Error(writer, request, ErrInvalidToken)
			return
		}

		// 3. The subject must still be a live account
		user, err := middleware.users.FindByID(request.Context(), claims.UserID)
		if err != nil || !user.IsActive {
			respond.Error(writer, request, ErrUserInactiveOrMissing)
			return
		}

		// 4. Attach identity to the request context
		requestContext := ctxutil.WithClaims(request.Context(), claims)
		requestContext = context.WithValue(requestContext, userContextKey{}, user)

		next.ServeHTTP(writer, request.WithContext(requestContext))
	})
}

/*
RequireRole rejects authenticated requests whose role is outside the allowed set.

Description: Must be mounted after RequireAuth. Authorization is set
membership, not a hierarchy — an admin is not implicitly a devops unless
listed.

Example:

	router.With(middleware.RequireAuth, middleware.RequireRole(sec.RoleAdmin)).Get("/users", ...)
*/
func (middleware *Middleware) RequireRole(allowed ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetClaims(request.Context())
			if claims == nil {
				respond.Error(writer, request, ErrAuthRequired)
				return
			}

			role, ok := sec.ParseRole(claims.Role)
			if !ok || !role.OneOf(allowed...) {
				middleware.logger.WarnContext(request.Context(), "role_denied",
					slog.String("user_id", claims.UserID),
					slog.String("role", claims.Role),
				)
				respond.Error(writer, request, ErrForbiddenRole)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

/*
OptionalAuth attaches identity when a valid token is present, but never rejects.

Description: Used by routes that personalize output for logged-in users while
remaining publicly reachable. Any verification failure simply leaves the
request anonymous.
*/
func (middleware *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		token, ok := extractBearer(request)
		if !ok {
			next.ServeHTTP(writer, request)
			return
		}

		claims, err := middleware.tokens.VerifyToken(token)
		if err != nil {
			next.ServeHTTP(writer, request)
			return
		}

		user, err := middleware.users.FindByID(request.Context(), claims.UserID)
		if err != nil || !user.IsActive {
			next.ServeHTTP(writer, request)
			return
		}

		requestContext := ctxutil.WithClaims(request.Context(), claims)
		requestContext = context.WithValue(requestContext, userContextKey{}, user)

		next.ServeHTTP(writer, request.WithContext(requestContext))
	})
}

// extractBearer pulls the token out of the Authorization header.
func extractBearer(request *http.Request) (string, bool) {
	header := request.Header.Get(constants.HeaderAuthorization)
	if header == "" || !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if token == "" {
		return "", false
	}

	return token, true
}
