// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmthanh-dev/flowdeck/internal/platform/ctxutil"
	"github.com/nmthanh-dev/flowdeck/internal/platform/sec"
)

// # Harness

type middlewareFixture struct {
	middleware *Middleware
	tokens     *sec.TokenService
	users      *memoryUserRepo
}

func newMiddlewareFixture(t *testing.T) *middlewareFixture {
	t.Helper()

	tokens, err := sec.NewTokenService("test-secret-please-rotate", "flowdeck.dev")
	require.NoError(t, err)

	users := newMemoryUserRepo()
	return &middlewareFixture{
		middleware: NewMiddleware(tokens, users, slog.New(slog.DiscardHandler)),
		tokens:     tokens,
		users:      users,
	}
}

// seedUser inserts an active account and returns it with a valid token.
func (fixture *middlewareFixture) seedUser(t *testing.T, role sec.Role) (*User, string) {
	t.Helper()

	user := &User{
		ID:          "user-" + string(role),
		Name:        "Test " + string(role),
		Email:       string(role) + "@x.com",
		Role:        role,
		IsActive:    true,
		Preferences: DefaultPreferences(),
	}
	require.NoError(t, fixture.users.Create(context.Background(), user))

	token, err := fixture.tokens.GenerateToken(user.ID, user.Email, string(user.Role), time.Hour)
	require.NoError(t, err)

	return user, token
}

// probeHandler records the identity the middleware attached.
func probeHandler(gotUser **User, gotClaims **sec.AuthClaims) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		*gotUser = UserFromContext(request.Context())
		*gotClaims = ctxutil.GetClaims(request.Context())
		writer.WriteHeader(http.StatusOK)
	})
}

// errorCode decodes the error envelope written by respond.Error.
func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Code
}

// # RequireAuth

func TestMiddleware_RequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T, fixture *middlewareFixture) string // returns Authorization header
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing header",
			setup:      func(*testing.T, *middlewareFixture) string { return "" },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "wrong scheme",
			setup:      func(*testing.T, *middlewareFixture) string { return "Basic abc123" },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "garbage token",
			setup:      func(*testing.T, *middlewareFixture) string { return "Bearer not-a-jwt" },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_TOKEN",
		},
		{
			name: "expired token",
			setup: func(t *testing.T, fixture *middlewareFixture) string {
				fixture.seedUser(t, sec.RoleDeveloper)
				token, err := fixture.tokens.GenerateToken("user-developer", "developer@x.com", "developer", -time.Minute)
				require.NoError(t, err)
				return "Bearer " + token
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_TOKEN",
		},
		{
			name: "token for a deleted user",
			setup: func(t *testing.T, fixture *middlewareFixture) string {
				token, err := fixture.tokens.GenerateToken("ghost", "ghost@x.com", "developer", time.Hour)
				require.NoError(t, err)
				return "Bearer " + token
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "USER_INACTIVE_OR_MISSING",
		},
		{
			name: "token for a deactivated user",
			setup: func(t *testing.T, fixture *middlewareFixture) string {
				user, token := fixture.seedUser(t, sec.RoleDeveloper)
				fixture.users.setActive(user.ID, false)
				return "Bearer " + token
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "USER_INACTIVE_OR_MISSING",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fixture := newMiddlewareFixture(t)
			header := test.setup(t, fixture)

			var gotUser *User
			var gotClaims *sec.AuthClaims
			handler := fixture.middleware.RequireAuth(probeHandler(&gotUser, &gotClaims))

			request := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				request.Header.Set("Authorization", header)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, test.wantStatus, recorder.Code)
			assert.Equal(t, test.wantCode, errorCode(t, recorder))
			assert.Nil(t, gotUser)
		})
	}

	t.Run("valid token attaches claims and the loaded user", func(t *testing.T) {
		fixture := newMiddlewareFixture(t)
		user, token := fixture.seedUser(t, sec.RoleDeveloper)

		var gotUser *User
		var gotClaims *sec.AuthClaims
		handler := fixture.middleware.RequireAuth(probeHandler(&gotUser, &gotClaims))

		request := httptest.NewRequest(http.MethodGet, "/me", nil)
		request.Header.Set("Authorization", "Bearer "+token)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		require.NotNil(t, gotUser)
		assert.Equal(t, user.ID, gotUser.ID)
		require.NotNil(t, gotClaims)
		assert.Equal(t, user.ID, gotClaims.UserID)
		assert.Equal(t, string(user.Role), gotClaims.Role)
	})
}

// # RequireRole

func TestMiddleware_RequireRole(t *testing.T) {
	t.Run("allows listed roles and rejects the rest", func(t *testing.T) {
		tests := []struct {
			role       sec.Role
			allowed    []sec.Role
			wantStatus int
		}{
			{sec.RoleAdmin, []sec.Role{sec.RoleAdmin}, http.StatusOK},
			{sec.RoleDeveloper, []sec.Role{sec.RoleAdmin}, http.StatusForbidden},
			{sec.RoleDevOps, []sec.Role{sec.RoleAdmin, sec.RoleDevOps}, http.StatusOK},
			{sec.RoleTester, []sec.Role{sec.RoleAdmin, sec.RoleDevOps}, http.StatusForbidden},
			// Membership, not hierarchy: admin is not implicitly devops.
			{sec.RoleAdmin, []sec.Role{sec.RoleDevOps}, http.StatusForbidden},
		}

		for _, test := range tests {
			fixture := newMiddlewareFixture(t)
			_, token := fixture.seedUser(t, test.role)

			var gotUser *User
			var gotClaims *sec.AuthClaims
			handler := fixture.middleware.RequireAuth(
				fixture.middleware.RequireRole(test.allowed...)(probeHandler(&gotUser, &gotClaims)),
			)

			request := httptest.NewRequest(http.MethodGet, "/admin", nil)
			request.Header.Set("Authorization", "Bearer "+token)
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, test.wantStatus, recorder.Code,
				"role %s against %v", test.role, test.allowed)
			if test.wantStatus == http.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", errorCode(t, recorder))
			}
		}
	})

	t.Run("rejects unauthenticated requests outright", func(t *testing.T) {
		fixture := newMiddlewareFixture(t)

		var gotUser *User
		var gotClaims *sec.AuthClaims
		handler := fixture.middleware.RequireRole(sec.RoleAdmin)(probeHandler(&gotUser, &gotClaims))

		request := httptest.NewRequest(http.MethodGet, "/admin", nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

// # OptionalAuth

func TestMiddleware_OptionalAuth(t *testing.T) {
	t.Run("anonymous requests pass through", func(t *testing.T) {
		fixture := newMiddlewareFixture(t)

		var gotUser *User
		var gotClaims *sec.AuthClaims
		handler := fixture.middleware.OptionalAuth(probeHandler(&gotUser, &gotClaims))

		request := httptest.NewRequest(http.MethodGet, "/feed", nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Nil(t, gotUser)
		assert.Nil(t, gotClaims)
	})

	t.Run("a broken token degrades to anonymous instead of failing", func(t *testing.T) {
		fixture := newMiddlewareFixture(t)

		var gotUser *User
		var gotClaims *sec.AuthClaims
		handler := fixture.middleware.OptionalAuth(probeHandler(&gotUser, &gotClaims))

		request := httptest.NewRequest(http.MethodGet, "/feed", nil)
		request.Header.Set("Authorization", "Bearer broken")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Nil(t, gotUser)
	})

	t.Run("a valid token attaches identity", func(t *testing.T) {
		fixture := newMiddlewareFixture(t)
		user, token := fixture.seedUser(t, sec.RoleTester)

		var gotUser *User
		var gotClaims *sec.AuthClaims
		handler := fixture.middleware.OptionalAuth(probeHandler(&gotUser, &gotClaims))

		request := httptest.NewRequest(http.MethodGet, "/feed", nil)
		request.Header.Set("Authorization", "Bearer "+token)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		require.NotNil(t, gotUser)
		assert.Equal(t, user.ID, gotUser.ID)
	})
}
