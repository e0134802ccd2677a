// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

/*
Package directory implements user administration for the dashboard.

It operates on the same account records as the auth package but through its
own read/write surface: listing, role changes, and activation control. Only
admins reach the mutating operations; route gates are mounted by the API
server.
*/
package directory

import (
	"context"

	"github.com/nmthanh-dev/flowdeck/internal/users/auth"
	"github.com/nmthanh-dev/flowdeck/pkg/pagination"
)

// Repository is the persistence contract for directory operations.
type Repository interface {
	// List returns a page of accounts ordered by creation time, newest first.
	List(ctx context.Context, params pagination.Params) ([]*auth.User, int, error)

	// FindByID resolves an account by primary key.
	FindByID(ctx context.Context, id string) (*auth.User, error)

	// SetRole replaces an account's role.
	SetRole(ctx context.Context, id, role string) error

	// SetActive flips an account's active flag.
	SetActive(ctx context.Context, id string, active bool) error
}
