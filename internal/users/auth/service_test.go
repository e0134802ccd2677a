// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmthanh-dev/flowdeck/internal/platform/apperr"
	"github.com/nmthanh-dev/flowdeck/internal/platform/sec"
	"github.com/nmthanh-dev/flowdeck/pkg/pointer"
)

// # In-Memory Fakes

// memoryUserRepo is a map-backed UserRepository for service tests.
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*User // keyed by ID
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*User)}
}

func (repo *memoryUserRepo) Create(_ context.Context, user *User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, existing := range repo.users {
		if existing.Email == user.Email {
			return apperr.Conflict("User already exists")
		}
	}
	clone := *user
	repo.users[user.ID] = &clone
	return nil
}

func (repo *memoryUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, existing := range repo.users {
		if existing.Email == email {
			clone := *existing
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *memoryUserRepo) FindByID(_ context.Context, id string) (*User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	existing, ok := repo.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *existing
	return &clone, nil
}

func (repo *memoryUserRepo) Update(_ context.Context, user *User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.users[user.ID]; !ok {
		return apperr.NotFound("User")
	}
	for _, existing := range repo.users {
		if existing.Email == user.Email && existing.ID != user.ID {
			return apperr.Conflict("User already exists")
		}
	}
	clone := *user
	repo.users[user.ID] = &clone
	return nil
}

func (repo *memoryUserRepo) UpdatePassword(_ context.Context, userID, newHash string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	existing, ok := repo.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	existing.PasswordHash = newHash
	return nil
}

// setActive flips the active flag directly, simulating an admin action.
func (repo *memoryUserRepo) setActive(userID string, active bool) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if existing, ok := repo.users[userID]; ok {
		existing.IsActive = active
	}
}

// memorySessionStore is a map-backed SessionStore. TTLs are recorded but not enforced.
type memorySessionStore struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{
		entries: make(map[string]string),
		ttls:    make(map[string]time.Duration),
	}
}

func (store *memorySessionStore) Get(_ context.Context, userID string) (string, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	value, ok := store.entries[userID]
	return value, ok
}

func (store *memorySessionStore) Set(_ context.Context, userID, token string, ttl time.Duration) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.entries[userID] = token
	store.ttls[userID] = ttl
}

func (store *memorySessionStore) Delete(_ context.Context, userID string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.entries, userID)
	delete(store.ttls, userID)
}

// # Harness

type serviceFixture struct {
	service  *Service
	users    *memoryUserRepo
	sessions *memorySessionStore
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	tokens, err := sec.NewTokenService("test-secret-please-rotate", "flowdeck.dev")
	require.NoError(t, err)

	users := newMemoryUserRepo()
	sessions := newMemorySessionStore()
	logger := slog.New(slog.DiscardHandler)

	return &serviceFixture{
		service:  NewService(users, sessions, tokens, time.Hour, logger),
		users:    users,
		sessions: sessions,
	}
}

func registerAnn(t *testing.T, fixture *serviceFixture) *AuthResult {
	t.Helper()
	result, err := fixture.service.Register(context.Background(), RegisterInput{
		Name:     "Ann",
		Email:    "ann@x.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	return result
}

// # Register

func TestService_Register(t *testing.T) {
	t.Run("creates account with defaults and opens a session", func(t *testing.T) {
		fixture := newServiceFixture(t)

		result := registerAnn(t, fixture)

		assert.Equal(t, "ann@x.com", result.User.Email)
		assert.Equal(t, "Ann", result.User.Name)
		assert.Equal(t, sec.RoleDeveloper, result.User.Role)
		assert.True(t, result.User.IsActive)
		assert.Nil(t, result.User.LastLogin)
		assert.Equal(t, DefaultPreferences(), result.User.Preferences)
		assert.NotEmpty(t, result.Token)

		cached, found := fixture.sessions.Get(context.Background(), result.User.ID)
		assert.True(t, found)
		assert.Equal(t, result.Token, cached)
	})

	t.Run("normalizes email to lowercase", func(t *testing.T) {
		fixture := newServiceFixture(t)

		result, err := fixture.service.Register(context.Background(), RegisterInput{
			Name:     "Ann",
			Email:    "  Ann@X.COM ",
			Password: "secret1",
		})
		require.NoError(t, err)
		assert.Equal(t, "ann@x.com", result.User.Email)
	})

	t.Run("honors an explicit valid role", func(t *testing.T) {
		fixture := newServiceFixture(t)

		result, err := fixture.service.Register(context.Background(), RegisterInput{
			Name:     "Ops",
			Email:    "ops@x.com",
			Password: "secret1",
			Role:     "devops",
		})
		require.NoError(t, err)
		assert.Equal(t, sec.RoleDevOps, result.User.Role)
	})

	t.Run("rejects a duplicate email regardless of case", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registerAnn(t, fixture)

		_, err := fixture.service.Register(context.Background(), RegisterInput{
			Name:     "Imposter",
			Email:    "ANN@x.com",
			Password: "another1",
		})
		assert.True(t, apperr.HasCode(err, "DUPLICATE_USER"))
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		fixture := newServiceFixture(t)

		tests := []struct {
			name  string
			input RegisterInput
		}{
			{"missing name", RegisterInput{Email: "a@x.com", Password: "secret1"}},
			{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "secret1"}},
			{"short password", RegisterInput{Name: "A", Email: "a@x.com", Password: "abc"}},
			{"unknown role", RegisterInput{Name: "A", Email: "a@x.com", Password: "secret1", Role: "superuser"}},
		}

		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				_, err := fixture.service.Register(context.Background(), test.input)
				assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
			})
		}
	})
}

// # Login

func TestService_Login(t *testing.T) {
	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registerAnn(t, fixture)

		_, unknownErr := fixture.service.Login(context.Background(), LoginInput{
			Email:    "nobody@x.com",
			Password: "whatever1",
		})
		_, wrongErr := fixture.service.Login(context.Background(), LoginInput{
			Email:    "ann@x.com",
			Password: "wrong",
		})

		assert.True(t, apperr.HasCode(unknownErr, "INVALID_CREDENTIALS"))
		assert.True(t, apperr.HasCode(wrongErr, "INVALID_CREDENTIALS"))
		assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	})

	t.Run("deactivated account fails even with correct password", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registered := registerAnn(t, fixture)
		fixture.users.setActive(registered.User.ID, false)

		_, err := fixture.service.Login(context.Background(), LoginInput{
			Email:    "ann@x.com",
			Password: "secret1",
		})
		assert.True(t, apperr.HasCode(err, "ACCOUNT_DEACTIVATED"))
	})

	t.Run("success records last login and rotates the session", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registered := registerAnn(t, fixture)

		result, err := fixture.service.Login(context.Background(), LoginInput{
			Email:    "ann@x.com",
			Password: "secret1",
		})
		require.NoError(t, err)

		assert.NotNil(t, result.User.LastLogin)
		assert.NotEqual(t, registered.Token, result.Token)

		cached, found := fixture.sessions.Get(context.Background(), result.User.ID)
		assert.True(t, found)
		assert.Equal(t, result.Token, cached)
	})

	t.Run("sequential logins overwrite the session entry", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registered := registerAnn(t, fixture)

		first, err := fixture.service.Login(context.Background(), LoginInput{Email: "ann@x.com", Password: "secret1"})
		require.NoError(t, err)
		second, err := fixture.service.Login(context.Background(), LoginInput{Email: "ann@x.com", Password: "secret1"})
		require.NoError(t, err)

		cached, _ := fixture.sessions.Get(context.Background(), registered.User.ID)
		assert.Equal(t, second.Token, cached)

		// The first login's token still verifies cryptographically, but
		// rotation rejects it.
		_, err = fixture.service.RefreshToken(context.Background(), first.Token)
		assert.True(t, apperr.HasCode(err, "STALE_TOKEN"))
	})
}

// # Refresh

func TestService_RefreshToken(t *testing.T) {
	t.Run("rotates the current token for a different one", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registered := registerAnn(t, fixture)

		result, err := fixture.service.RefreshToken(context.Background(), registered.Token)
		require.NoError(t, err)

		assert.NotEqual(t, registered.Token, result.Token)

		cached, _ := fixture.sessions.Get(context.Background(), registered.User.ID)
		assert.Equal(t, result.Token, cached)
	})

	t.Run("rejects garbage and tampered tokens", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registered := registerAnn(t, fixture)

		_, err := fixture.service.RefreshToken(context.Background(), "not-a-token")
		assert.True(t, apperr.HasCode(err, "INVALID_TOKEN"))

		_, err = fixture.service.RefreshToken(context.Background(), registered.Token+"x")
		assert.True(t, apperr.HasCode(err, "INVALID_TOKEN"))
	})

	t.Run("rejects a rotated-out token as stale", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registered := registerAnn(t, fixture)

		refreshed, err := fixture.service.RefreshToken(context.Background(), registered.Token)
		require.NoError(t, err)

		_, err = fixture.service.RefreshToken(context.Background(), registered.Token)
		assert.True(t, apperr.HasCode(err, "STALE_TOKEN"))

		// The freshly rotated token keeps working.
		_, err = fixture.service.RefreshToken(context.Background(), refreshed.Token)
		assert.NoError(t, err)
	})

	t.Run("rejects the pre-logout token after logout", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registered := registerAnn(t, fixture)

		fixture.service.Logout(context.Background(), registered.User.ID)

		_, err := fixture.service.RefreshToken(context.Background(), registered.Token)
		assert.True(t, apperr.HasCode(err, "STALE_TOKEN"))
	})

	t.Run("rejects tokens for deactivated accounts", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registered := registerAnn(t, fixture)
		fixture.users.setActive(registered.User.ID, false)

		_, err := fixture.service.RefreshToken(context.Background(), registered.Token)
		assert.True(t, apperr.HasCode(err, "USER_INACTIVE_OR_MISSING"))
	})
}

// # Logout

func TestService_Logout_Idempotent(t *testing.T) {
	fixture := newServiceFixture(t)
	registered := registerAnn(t, fixture)

	fixture.service.Logout(context.Background(), registered.User.ID)
	fixture.service.Logout(context.Background(), registered.User.ID) // second delete is a no-op

	_, found := fixture.sessions.Get(context.Background(), registered.User.ID)
	assert.False(t, found)
}

// # Profile

func TestService_GetProfile(t *testing.T) {
	fixture := newServiceFixture(t)
	registered := registerAnn(t, fixture)

	user, err := fixture.service.GetProfile(context.Background(), registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", user.Email)

	_, err = fixture.service.GetProfile(context.Background(), "missing-id")
	assert.True(t, apperr.IsNotFound(err))
}

func TestService_ProfileJSONExcludesPasswordHash(t *testing.T) {
	fixture := newServiceFixture(t)
	registered := registerAnn(t, fixture)

	payload, err := json.Marshal(registered.User)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.NotContains(t, decoded, "password")
	assert.NotContains(t, decoded, "password_hash")
	assert.NotContains(t, string(payload), registered.User.PasswordHash)
}

func TestService_UpdateProfile(t *testing.T) {
	t.Run("applies only the provided fields", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registered := registerAnn(t, fixture)

		user, err := fixture.service.UpdateProfile(context.Background(), registered.User.ID, UpdateProfileInput{
			Name: pointer.To("Ann Prod"),
		})
		require.NoError(t, err)

		assert.Equal(t, "Ann Prod", user.Name)
		assert.Equal(t, "ann@x.com", user.Email) // untouched
	})

	t.Run("merges preferences field-by-field", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registered := registerAnn(t, fixture)

		user, err := fixture.service.UpdateProfile(context.Background(), registered.User.ID, UpdateProfileInput{
			Preferences: &PreferencesPatch{Theme: pointer.To("dark")},
		})
		require.NoError(t, err)

		assert.Equal(t, "dark", user.Preferences.Theme)
		assert.True(t, user.Preferences.Notifications) // defaults survive the merge
		assert.Equal(t, "UTC", user.Preferences.Timezone)
	})

	t.Run("rejects an email held by another account", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registerAnn(t, fixture)

		other, err := fixture.service.Register(context.Background(), RegisterInput{
			Name:     "Bob",
			Email:    "bob@x.com",
			Password: "secret1",
		})
		require.NoError(t, err)

		_, err = fixture.service.UpdateProfile(context.Background(), other.User.ID, UpdateProfileInput{
			Email: pointer.To("ann@x.com"),
		})
		assert.True(t, apperr.HasCode(err, "EMAIL_TAKEN"))
	})

	t.Run("leaves the session untouched", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registered := registerAnn(t, fixture)

		_, err := fixture.service.UpdateProfile(context.Background(), registered.User.ID, UpdateProfileInput{
			Name: pointer.To("Ann Renamed"),
		})
		require.NoError(t, err)

		cached, found := fixture.sessions.Get(context.Background(), registered.User.ID)
		assert.True(t, found)
		assert.Equal(t, registered.Token, cached)
	})
}

// # Password Change

func TestService_ChangePassword(t *testing.T) {
	t.Run("rejects a wrong current password", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registered := registerAnn(t, fixture)

		err := fixture.service.ChangePassword(context.Background(), registered.User.ID, ChangePasswordInput{
			CurrentPassword: "wrong",
			NewPassword:     "freshpass1",
		})
		assert.True(t, apperr.HasCode(err, "INCORRECT_PASSWORD"))
	})

	t.Run("rotates the credential and forces re-authentication", func(t *testing.T) {
		fixture := newServiceFixture(t)
		registered := registerAnn(t, fixture)

		err := fixture.service.ChangePassword(context.Background(), registered.User.ID, ChangePasswordInput{
			CurrentPassword: "secret1",
			NewPassword:     "freshpass1",
		})
		require.NoError(t, err)

		// The pre-change token can no longer be refreshed.
		_, err = fixture.service.RefreshToken(context.Background(), registered.Token)
		assert.True(t, apperr.HasCode(err, "STALE_TOKEN"))

		// The old password is dead, the new one works.
		_, err = fixture.service.Login(context.Background(), LoginInput{Email: "ann@x.com", Password: "secret1"})
		assert.True(t, apperr.HasCode(err, "INVALID_CREDENTIALS"))

		result, err := fixture.service.Login(context.Background(), LoginInput{Email: "ann@x.com", Password: "freshpass1"})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
	})
}
