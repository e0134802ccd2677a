// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/nmthanh-dev/flowdeck/internal/platform/sec"
)

// # Storage Contracts
//
// The service layer depends on these interfaces only. Concrete PostgreSQL and
// Redis implementations live in store_postgres.go and store_redis.go; tests
// substitute in-memory fakes.

// UserRepository is the persistence contract for user credential records.
type UserRepository interface {
	// Create persists a new user. A unique-violation on email surfaces as
	// a Conflict error via dberr.
	Create(ctx context.Context, user *User) error

	// FindByEmail resolves a user by their lowercased email address.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID resolves a user by primary key.
	FindByID(ctx context.Context, id string) (*User, error)

	// Update persists the mutable profile fields (name, email, preferences,
	// last login, active flag).
	Update(ctx context.Context, user *User) error

	// UpdatePassword replaces only the password hash for a user.
	UpdatePassword(ctx context.Context, userID, newHash string) error
}

// SessionStore is the volatile cache contract holding each user's single
// currently-valid token.
//
// # Soft-Fail Policy
//
// None of the methods return an error. The cache is an availability
// optimization, not a source of truth: implementations log transport failures
// and degrade silently, so a cache outage never blocks login or logout.
// The one behavior that genuinely depends on the cache — refresh-token
// rotation — treats a missing entry as a stale token, which is the safe
// direction to fail.
type SessionStore interface {
	// Get returns the currently-valid token for a user.
	// The boolean is false when no entry exists or the cache is unreachable.
	Get(ctx context.Context, userID string) (string, bool)

	// Set overwrites the session entry for a user with the given TTL.
	Set(ctx context.Context, userID, token string, ttl time.Duration)

	// Delete removes the session entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, userID string)
}

// TokenProvider signs and verifies bearer tokens. Implemented by
// [sec.TokenService]; abstracted here so service tests can run without
// real key material if needed.
type TokenProvider interface {
	GenerateToken(userID, email, role string, timeToLive time.Duration) (string, error)
	VerifyToken(tokenString string) (*sec.AuthClaims, error)
}
