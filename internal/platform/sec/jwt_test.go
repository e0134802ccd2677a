// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package sec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	service, err := NewTokenService("unit-test-secret", "flowdeck.dev")
	require.NoError(t, err)
	return service
}

func TestNewTokenService_RejectsEmptySecret(t *testing.T) {
	_, err := NewTokenService("", "flowdeck.dev")
	assert.Error(t, err)
}

func TestTokenService_RoundTrip(t *testing.T) {
	service := newTestTokenService(t)

	token, err := service.GenerateToken("user-1", "ann@x.com", "developer", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ann@x.com", claims.Email)
	assert.Equal(t, "developer", claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "flowdeck.dev", claims.Issuer)
	assert.NotEmpty(t, claims.ID) // jti
}

func TestTokenService_TokensAreUniquePerIssuance(t *testing.T) {
	service := newTestTokenService(t)

	// Same payload, same instant: the jti claim still forces distinct tokens.
	first, err := service.GenerateToken("user-1", "ann@x.com", "developer", time.Hour)
	require.NoError(t, err)
	second, err := service.GenerateToken("user-1", "ann@x.com", "developer", time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenService_VerifyFailures(t *testing.T) {
	service := newTestTokenService(t)

	t.Run("malformed input", func(t *testing.T) {
		_, err := service.VerifyToken("definitely.not.a.jwt")
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := service.GenerateToken("user-1", "ann@x.com", "developer", -time.Minute)
		require.NoError(t, err)

		_, err = service.VerifyToken(token)
		assert.Error(t, err)
	})

	t.Run("token signed with a different secret", func(t *testing.T) {
		other, err := NewTokenService("a-different-secret", "flowdeck.dev")
		require.NoError(t, err)

		token, err := other.GenerateToken("user-1", "ann@x.com", "developer", time.Hour)
		require.NoError(t, err)

		_, err = service.VerifyToken(token)
		assert.Error(t, err)
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, err := service.GenerateToken("user-1", "ann@x.com", "developer", time.Hour)
		require.NoError(t, err)

		_, err = service.VerifyToken(token + "x")
		assert.Error(t, err)
	})
}
