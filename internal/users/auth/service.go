// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nmthanh-dev/flowdeck/internal/platform/apperr"
	"github.com/nmthanh-dev/flowdeck/internal/platform/sec"
	"github.com/nmthanh-dev/flowdeck/internal/platform/validate"
	"github.com/nmthanh-dev/flowdeck/pkg/uuid"
)

// # Service

// Service orchestrates the credential lifecycle: registration, login, logout,
// profile management, password change, and token rotation.
//
// # Session Model
//
// Every token issuance (register, login, refresh) overwrites the user's
// single session entry, implicitly invalidating the previous token for
// refresh purposes. Logout and password change delete the entry outright.
type Service struct {
	users    UserRepository
	sessions SessionStore
	tokens   TokenProvider
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewService wires the auth service with its storage and token collaborators.
// A non-positive tokenTTL falls back to [DefaultTokenTTL].
func NewService(users UserRepository, sessions SessionStore, tokens TokenProvider, tokenTTL time.Duration, logger *slog.Logger) *Service {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// # Inputs & Outputs

// RegisterInput carries the fields for a new account.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginInput carries the credentials for an existing account.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PreferencesPatch carries a partial preferences update. Nil fields are left
// untouched — preferences are merged field-by-field, never replaced wholesale.
type PreferencesPatch struct {
	Theme         *string `json:"theme,omitempty"`
	Notifications *bool   `json:"notifications,omitempty"`
	Timezone      *string `json:"timezone,omitempty"`
}

// UpdateProfileInput carries a partial profile update. Nil fields are left untouched.
type UpdateProfileInput struct {
	Name        *string           `json:"name,omitempty"`
	Email       *string           `json:"email,omitempty"`
	Preferences *PreferencesPatch `json:"preferences,omitempty"`
}

// ChangePasswordInput carries a credential rotation request.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResult is the outcome of any token-issuing operation.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// # Operations

/*
Register creates a new account and immediately opens a session for it.

Description: The role defaults to "developer" when omitted. The email is
normalized to lowercase before the uniqueness check so "Ann@X.com" and
"ann@x.com" are the same account.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *AuthResult: Public profile plus a fresh bearer token
  - error: ErrDuplicateUser, validation errors, or storage failures
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*AuthResult, error) {

	// 1. Normalize and validate the raw input
	input.Email = normalizeEmail(input.Email)

	validator := &validate.Validator{}
	validator.
		Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, MaxNameLength).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		MaxLen(FieldEmail, input.Email, MaxEmailLength).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength)
	if input.Role != "" {
		validator.OneOf(FieldRole, input.Role, sec.RoleNames()...)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// 2. Resolve the role, defaulting to developer
	role := sec.RoleDeveloper
	if input.Role != "" {
		role, _ = sec.ParseRole(input.Role)
	}

	// 3. Reject an already-registered email up front
	if _, err := service.users.FindByEmail(context, input.Email); err == nil {
		return nil, ErrDuplicateUser
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	// 4. Build and persist the account
	user := &User{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Email:       input.Email,
		Role:        role,
		IsActive:    true,
		Preferences: DefaultPreferences(),
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, apperr.Internal(err)
	}

	if err := service.users.Create(context, user); err != nil {
		// A concurrent register can slip past the pre-check; the unique index is the referee.
		if apperr.HasCode(err, "CONFLICT") {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}

	// 5. Open the session
	token, err := service.issueSession(context, user)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "user_registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return &AuthResult{User: user, Token: token}, nil
}

/*
Login authenticates an email/password pair and rotates the session.

Description: An unknown email and a wrong password both fail with
ErrInvalidCredentials — deliberately indistinguishable so a caller cannot
probe which emails are registered. A deactivated account fails with
ErrAccountDeactivated regardless of password correctness.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *AuthResult: Public profile (lastLogin updated) plus a fresh bearer token
  - error: ErrInvalidCredentials, ErrAccountDeactivated, or storage failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*AuthResult, error) {

	// 1. Normalize and validate
	input.Email = normalizeEmail(input.Email)

	validator := &validate.Validator{}
	if err := validator.
		Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		Err(); err != nil {
		return nil, err
	}

	// 2. Resolve the account
	user, err := service.users.FindByEmail(context, input.Email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 3. Deactivated accounts are rejected before the password is examined
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	// 4. Verify the password
	if !user.ComparePassword(input.Password) {
		return nil, ErrInvalidCredentials
	}

	// 5. Record the login and rotate the session
	now := time.Now()
	user.LastLogin = &now
	if err := service.users.Update(context, user); err != nil {
		return nil, err
	}

	token, err := service.issueSession(context, user)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "user_logged_in", slog.String("user_id", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

/*
Logout deletes the session entry for a user.

Description: Idempotent — logging out twice, or without a live session,
always succeeds. The bearer token itself remains cryptographically valid
until expiry, but it can no longer be refreshed.

Parameters:
  - context: context.Context
  - userID: string
*/
func (service *Service) Logout(context context.Context, userID string) {
	service.sessions.Delete(context, userID)
	service.logger.InfoContext(context, "user_logged_out", slog.String("user_id", userID))
}

/*
GetProfile returns the public profile projection for a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *User: The account (password hash excluded from serialization)
  - error: apperr.NotFound or storage failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*User, error) {
	return service.users.FindByID(context, userID)
}

/*
UpdateProfile applies a partial update to a user's name, email, and preferences.

Description: Only the provided fields change. Preferences are merged
field-by-field. An email change to an address held by another account fails
with ErrEmailTaken. The session is untouched — the existing token stays valid
even though its embedded email claim may now be outdated.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *User: The updated account
  - error: ErrEmailTaken, validation errors, apperr.NotFound, or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*User, error) {

	// 1. Resolve the account
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	validator := &validate.Validator{}

	// 2. Apply the name, if provided
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		validator.Required(FieldName, name).MaxLen(FieldName, name, MaxNameLength)
		user.Name = name
	}

	// 3. Apply the email, if provided and actually changing
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		validator.Required(FieldEmail, email).Email(FieldEmail, email).MaxLen(FieldEmail, email, MaxEmailLength)

		if email != user.Email && !validator.HasErrors() {
			existing, err := service.users.FindByEmail(context, email)
			if err == nil && existing.ID != user.ID {
				return nil, ErrEmailTaken
			}
			if err != nil && !apperr.IsNotFound(err) {
				return nil, err
			}
			user.Email = email
		}
	}

	// 4. Merge preferences field-by-field
	if input.Preferences != nil {
		if input.Preferences.Theme != nil {
			validator.OneOf(FieldTheme, *input.Preferences.Theme, "light", "dark")
			user.Preferences.Theme = *input.Preferences.Theme
		}
		if input.Preferences.Notifications != nil {
			user.Preferences.Notifications = *input.Preferences.Notifications
		}
		if input.Preferences.Timezone != nil {
			validator.Required(FieldTimezone, *input.Preferences.Timezone)
			user.Preferences.Timezone = *input.Preferences.Timezone
		}
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// 5. Persist; the unique index settles concurrent email races
	if err := service.users.Update(context, user); err != nil {
		if apperr.HasCode(err, "CONFLICT") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

/*
ChangePassword rotates a user's password and forces global re-authentication.

Description: On success the session entry is deleted, so every outstanding
token — including the one used to authorize this request — can no longer be
refreshed. The old password is considered compromised-adjacent by policy.

Parameters:
  - context: context.Context
  - userID: string
  - input: ChangePasswordInput

Returns:
  - error: ErrIncorrectPassword, validation errors, apperr.NotFound, or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID string, input ChangePasswordInput) error {

	// 1. Validate the new credential
	validator := &validate.Validator{}
	if err := validator.
		Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, MinPasswordLength).
		Err(); err != nil {
		return err
	}

	// 2. Resolve the account
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return err
	}

	// 3. The caller must prove knowledge of the current password
	if !user.ComparePassword(input.CurrentPassword) {
		return ErrIncorrectPassword
	}

	// 4. Re-hash and persist
	newHash, err := sec.HashPassword(input.NewPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := service.users.UpdatePassword(context, userID, newHash); err != nil {
		return err
	}

	// 5. Invalidate every outstanding session for this user
	service.sessions.Delete(context, userID)

	service.logger.InfoContext(context, "password_changed", slog.String("user_id", userID))

	return nil
}

/*
RefreshToken rotates a valid, current bearer token for a fresh one.

Description: Three gates, in order. The signature and expiry must verify
(ErrInvalidToken). The user must still exist and be active
(ErrUserInactiveOrMissing). The presented token must match the session entry
byte-for-byte (ErrStaleToken) — a token superseded by a newer login, a
logout, or a password change is rejected even though its signature still
verifies. A cache miss counts as stale: failing closed is the safe direction
for rotation.

Parameters:
  - context: context.Context
  - tokenString: string (The exact token previously issued)

Returns:
  - *AuthResult: Profile plus a fresh token (always differs from the input)
  - error: ErrInvalidToken, ErrUserInactiveOrMissing, ErrStaleToken, or storage failures
*/
func (service *Service) RefreshToken(context context.Context, tokenString string) (*AuthResult, error) {

	// 1. Signature and expiry
	claims, err := service.tokens.VerifyToken(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// 2. The subject must still be a live account
	user, err := service.users.FindByID(context, claims.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, ErrUserInactiveOrMissing
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactiveOrMissing
	}

	// 3. Exact match against the single valid session entry
	current, found := service.sessions.Get(context, user.ID)
	if !found || current != tokenString {
		return nil, ErrStaleToken
	}

	// 4. Rotate
	token, err := service.issueSession(context, user)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "token_refreshed", slog.String("user_id", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// # Internals

// issueSession signs a fresh token for the user and overwrites their session
// entry with a TTL equal to the token validity window.
func (service *Service) issueSession(context context.Context, user *User) (string, error) {
	token, err := service.tokens.GenerateToken(user.ID, user.Email, string(user.Role), service.tokenTTL)
	if err != nil {
		return "", apperr.Internal(err)
	}

	service.sessions.Set(context, user.ID, token, service.tokenTTL)

	return token, nil
}

// normalizeEmail lowercases and trims an email address. All storage and
// lookups operate on the normalized form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
