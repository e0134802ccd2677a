// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

/*
Package auth implements the user identity and session lifecycle layer.

It defines the core domain entity (User) and the logic for authentication,
token rotation, and account credential management.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
Session state lives in a volatile cache keyed per user, with a single valid
token per user at any time.
*/
package auth

import (
	"time"

	"github.com/nmthanh-dev/flowdeck/internal/platform/sec"
)

// # Domain Entities

// User represents a registered member of the Flowdeck platform.
type User struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"` // Explicitly omitted from JSON for security.
	Role         sec.Role    `json:"role"`
	IsActive     bool        `json:"is_active"`
	LastLogin    *time.Time  `json:"last_login"` // Nil until the first successful login.
	Preferences  Preferences `json:"preferences"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Preferences holds per-user dashboard settings.
type Preferences struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	Timezone      string `json:"timezone"`
}

// DefaultPreferences returns the settings applied to every new account.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:         "light",
		Notifications: true,
		Timezone:      "UTC",
	}
}

// SetPassword hashes the plaintext password and stores the result on the user.
// The plaintext is never retained.
func (user *User) SetPassword(plaintext string) error {
	hash, err := sec.HashPassword(plaintext)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return nil
}

// ComparePassword reports whether the plaintext matches the stored hash.
func (user *User) ComparePassword(plaintext string) bool {
	return sec.CheckPasswordHash(plaintext, user.PasswordHash)
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldRole            = "role"
	FieldToken           = "token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldTheme           = "theme"
	FieldTimezone        = "timezone"
	FieldUser            = "user"
	FieldMessage         = "message"
)
