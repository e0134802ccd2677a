// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package directory

import (
	"context"
	"log/slog"

	"github.com/nmthanh-dev/flowdeck/internal/platform/apperr"
	"github.com/nmthanh-dev/flowdeck/internal/platform/sec"
	"github.com/nmthanh-dev/flowdeck/internal/platform/validate"
	"github.com/nmthanh-dev/flowdeck/internal/users/auth"
	"github.com/nmthanh-dev/flowdeck/pkg/pagination"
)

// Service implements the admin-facing account administration operations.
type Service struct {
	repository Repository
	sessions   auth.SessionStore
	logger     *slog.Logger
}

// NewService wires the directory service. The session store lets deactivation
// kill the target user's live session immediately.
func NewService(repository Repository, sessions auth.SessionStore, logger *slog.Logger) *Service {
	return &Service{repository: repository, sessions: sessions, logger: logger}
}

// UpdateInput carries an admin update for an account. Nil fields are left untouched.
type UpdateInput struct {
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// # Operations

// List returns a page of accounts with the total count.
func (service *Service) List(context context.Context, params pagination.Params) ([]*auth.User, int, error) {
	return service.repository.List(context, params)
}

// Get resolves an account by ID.
func (service *Service) Get(context context.Context, id string) (*auth.User, error) {
	return service.repository.FindByID(context, id)
}

/*
Update applies an admin change to an account's role or active flag.

Description: Deactivating an account also deletes its session entry, so the
user's outstanding token loses refresh capability immediately. An admin
cannot deactivate their own account — the last-admin lockout is not worth
the footgun.
*/
func (service *Service) Update(context context.Context, actorID, targetID string, input UpdateInput) (*auth.User, error) {
	if input.IsActive != nil && !*input.IsActive && actorID == targetID {
		return nil, apperr.Unprocessable("You cannot deactivate your own account")
	}

	target, err := service.repository.FindByID(context, targetID)
	if err != nil {
		return nil, err
	}

	if input.Role != nil {
		validator := &validate.Validator{}
		if err := validator.OneOf("role", *input.Role, sec.RoleNames()...).Err(); err != nil {
			return nil, err
		}
		if err := service.repository.SetRole(context, targetID, *input.Role); err != nil {
			return nil, err
		}
		target.Role = sec.Role(*input.Role)

		service.logger.InfoContext(context, "user_role_changed",
			slog.String("actor_id", actorID),
			slog.String("target_id", targetID),
			slog.String("role", *input.Role),
		)
	}

	if input.IsActive != nil {
		if err := service.setActive(context, actorID, target, *input.IsActive); err != nil {
			return nil, err
		}
	}

	return target, nil
}

// Deactivate disables an account. This is the DELETE semantics of the API:
// accounts are never physically removed, their history keeps referencing them.
func (service *Service) Deactivate(context context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return apperr.Unprocessable("You cannot deactivate your own account")
	}

	target, err := service.repository.FindByID(context, targetID)
	if err != nil {
		return err
	}

	return service.setActive(context, actorID, target, false)
}

// setActive persists the flag and, on deactivation, revokes the live session.
func (service *Service) setActive(context context.Context, actorID string, target *auth.User, active bool) error {
	if err := service.repository.SetActive(context, target.ID, active); err != nil {
		return err
	}
	target.IsActive = active

	if !active {
		service.sessions.Delete(context, target.ID)
	}

	service.logger.InfoContext(context, "user_active_changed",
		slog.String("actor_id", actorID),
		slog.String("target_id", target.ID),
		slog.Bool("active", active),
	)

	return nil
}
