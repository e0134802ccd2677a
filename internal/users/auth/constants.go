// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// DefaultTokenTTL is the duration a bearer token (and its mirrored session
	// entry) remains valid when no JWT_EXPIRE override is configured.
	// Long-lived (30 days) to keep dashboard users logged in between releases.
	DefaultTokenTTL = 30 * 24 * time.Hour

	// MinPasswordLength is the minimum character count for any password.
	MinPasswordLength = 6

	// MaxNameLength caps the display name to keep dashboards readable.
	MaxNameLength = 100

	// MaxEmailLength follows the practical RFC 5321 mailbox limit.
	MaxEmailLength = 254

	// BearerPrefix is the expected Authorization header scheme.
	BearerPrefix = "Bearer "
)
