// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package auth

import "github.com/nmthanh-dev/flowdeck/internal/platform/apperr"

// # Error Taxonomy
//
// Every failure the service layer can return is defined here as a stable,
// machine-readable kind. Handlers pass them straight to respond.Error; tests
// and clients match on the code, never on message text.
var (
	// ErrDuplicateUser is returned by Register when the email is already taken.
	ErrDuplicateUser = apperr.Conflict("User already exists").WithCode("DUPLICATE_USER")

	// ErrInvalidCredentials is returned by Login for an unknown email OR a
	// wrong password. The two cases are deliberately indistinguishable so a
	// caller cannot probe which emails are registered.
	ErrInvalidCredentials = apperr.Unauthorized("Invalid credentials").WithCode("INVALID_CREDENTIALS")

	// ErrAccountDeactivated is returned by Login when the account exists but
	// has been disabled by an administrator.
	ErrAccountDeactivated = apperr.Unauthorized("Account is deactivated").WithCode("ACCOUNT_DEACTIVATED")

	// ErrUserNotFound is returned by profile operations for a missing user record.
	ErrUserNotFound = apperr.NotFound("User")

	// ErrEmailTaken is returned by UpdateProfile when the target email already
	// belongs to another account.
	ErrEmailTaken = apperr.Conflict("Email already in use").WithCode("EMAIL_TAKEN")

	// ErrIncorrectPassword is returned by ChangePassword when the supplied
	// current password does not match the stored hash.
	ErrIncorrectPassword = apperr.ValidationError("Current password is incorrect").WithCode("INCORRECT_PASSWORD")

	// ErrInvalidToken is returned for any malformed, expired, or bad-signature
	// bearer token.
	ErrInvalidToken = apperr.Unauthorized("Invalid or expired token").WithCode("INVALID_TOKEN")

	// ErrUserInactiveOrMissing is returned by the middleware when a token
	// verifies but its user no longer exists or has been deactivated.
	ErrUserInactiveOrMissing = apperr.Unauthorized("User not found or inactive").WithCode("USER_INACTIVE_OR_MISSING")

	// ErrStaleToken is returned by RefreshToken when the presented token is
	// cryptographically valid but has been rotated out of the session entry
	// (a newer login, a logout, or a password change superseded it).
	ErrStaleToken = apperr.Unauthorized("Token has been superseded").WithCode("STALE_TOKEN")

	// ErrAuthRequired is returned when no bearer token accompanies a protected request.
	ErrAuthRequired = apperr.Unauthorized("Authentication required")

	// ErrForbiddenRole is returned when an authenticated user lacks the role
	// required for a route.
	ErrForbiddenRole = apperr.Forbidden("Insufficient permissions")
)
