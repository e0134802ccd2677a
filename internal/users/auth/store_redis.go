// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

// Redis implementation of the session store.
//
// # Cache Taxonomy
//
// Each user owns exactly one entry under "session:{userID}" whose value is
// the full signed token string. Writes always overwrite, so issuing a new
// token implicitly invalidates the previous one for refresh purposes.
//
// # Soft-Fail
//
// All operations swallow transport errors after logging them. Availability
// of the API never hinges on the cache being up; see [SessionStore].

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nmthanh-dev/flowdeck/internal/platform/constants"
)

// # Session Store

// RedisSessionStore implements the SessionStore interface on go-redis.
type RedisSessionStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewSessionStore creates a new Redis implementation of the SessionStore.
func NewSessionStore(client *redis.Client, logger *slog.Logger) *RedisSessionStore {
	return &RedisSessionStore{client: client, logger: logger}
}

// sessionKey builds the cache key for a user's session entry.
func sessionKey(userID string) string {
	return constants.RedisPrefixSession + userID
}

/*
Get returns the currently-valid token for a user.

Description: A missing key and an unreachable cache are both reported as
"no entry" — the caller cannot and must not distinguish them.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - string: The cached token, or "" when absent
  - bool: Whether a token was found
*/
func (store *RedisSessionStore) Get(context context.Context, userID string) (string, bool) {
	value, err := store.client.Get(context, sessionKey(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			store.logger.WarnContext(context, "session_cache_get_failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		return "", false
	}

	return value, true
}

/*
Set overwrites the session entry for a user.

Description: The TTL matches the token validity window so stale entries
self-evict even when logout is skipped.

Parameters:
  - context: context.Context
  - userID: string
  - token: string (Signed bearer token)
  - ttl: time.Duration
*/
func (store *RedisSessionStore) Set(context context.Context, userID, token string, ttl time.Duration) {
	if err := store.client.Set(context, sessionKey(userID), token, ttl).Err(); err != nil {
		store.logger.WarnContext(context, "session_cache_set_failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

/*
Delete removes the session entry for a user.

Description: Idempotent — deleting a missing key is a no-op, not an error.

Parameters:
  - context: context.Context
  - userID: string
*/
func (store *RedisSessionStore) Delete(context context.Context, userID string) {
	if err := store.client.Del(context, sessionKey(userID)).Err(); err != nil {
		store.logger.WarnContext(context, "session_cache_delete_failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
