// Copyright (c) 2026 Subly. All rights reserved.

package account_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublyhq/subly/internal/platform/apperr"
	"github.com/sublyhq/subly/internal/platform/sec"
	"github.com/sublyhq/subly/internal/users/account"
	"github.com/sublyhq/subly/internal/users/auth"
	"github.com/sublyhq/subly/pkg/pagination"
)

// # Test Doubles

// stubAccountRepository serves and mutates a fixed set of accounts.
type stubAccountRepository struct {
	users   map[string]*auth.User
	deleted []string
}

func (r *stubAccountRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("Account")
}

func (r *stubAccountRepository) Update(_ context.Context, user *auth.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return apperr.NotFound("Account")
	}
	r.users[user.ID] = user
	return nil
}

func (r *stubAccountRepository) UpdateRole(_ context.Context, id, role string) error {
	user, ok := r.users[id]
	if !ok {
		return apperr.NotFound("Account")
	}
	user.Role = sec.UserRole(role)
	return nil
}

func (r *stubAccountRepository) SoftDelete(_ context.Context, id string) error {
	delete(r.users, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *stubAccountRepository) List(_ context.Context, _ pagination.Params) ([]auth.User, error) {
	out := make([]auth.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, nil
}

func (r *stubAccountRepository) Count(_ context.Context) (int, error) {
	return len(r.users), nil
}

// stubInvalidator records session invalidation calls.
type stubInvalidator struct {
	roleUpdates map[string]string
	destroyed   []string
}

func (s *stubInvalidator) UpdateRoleForUser(_ context.Context, userID, role string) error {
	s.roleUpdates[userID] = role
	return nil
}

func (s *stubInvalidator) DestroyAllForUser(_ context.Context, userID string) error {
	s.destroyed = append(s.destroyed, userID)
	return nil
}

// # Fixtures

func newTestService(t *testing.T) (*account.Service, *stubAccountRepository, *stubInvalidator) {
	t.Helper()
	repository := &stubAccountRepository{users: map[string]*auth.User{
		"u1": {ID: "u1", Username: "mika", Email: "mika@example.com", DisplayName: "Mika", Role: sec.RoleUser},
		"u2": {ID: "u2", Username: "noel", Email: "noel@example.com", DisplayName: "Noel", Role: sec.RoleSupport},
	}}
	invalidator := &stubInvalidator{roleUpdates: map[string]string{}}
	service := account.NewService(repository, invalidator, slog.Default())
	return service, repository, invalidator
}

// # Profile

/*
TestService_GetProfile verifies profile retrieval and the not-found path.
*/
func TestService_GetProfile(t *testing.T) {
	service, _, _ := newTestService(t)

	user, err := service.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "mika", user.Username)

	_, err = service.GetProfile(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

/*
TestService_UpdateProfile verifies that only provided fields change.
*/
func TestService_UpdateProfile(t *testing.T) {
	service, repository, _ := newTestService(t)

	name := "Mika R."
	user, err := service.UpdateProfile(context.Background(), "u1", account.UpdateProfileInput{DisplayName: &name})
	require.NoError(t, err)

	assert.Equal(t, "Mika R.", user.DisplayName)
	assert.Equal(t, "mika@example.com", user.Email)
	assert.Equal(t, "Mika R.", repository.users["u1"].DisplayName)

	// A nil field leaves the current value untouched.
	user, err = service.UpdateProfile(context.Background(), "u1", account.UpdateProfileInput{})
	require.NoError(t, err)
	assert.Equal(t, "Mika R.", user.DisplayName)
}

/*
TestService_DeleteAccount verifies that deletion soft-deletes the record and
revokes every live session of the user.
*/
func TestService_DeleteAccount(t *testing.T) {
	service, repository, invalidator := newTestService(t)

	require.NoError(t, service.DeleteAccount(context.Background(), "u1"))

	assert.Contains(t, repository.deleted, "u1")
	assert.Contains(t, invalidator.destroyed, "u1")
	_, err := service.GetProfile(context.Background(), "u1")
	require.Error(t, err)
}

// # Administration

/*
TestService_ListUsers verifies the page and total count wiring.
*/
func TestService_ListUsers(t *testing.T) {
	service, _, _ := newTestService(t)

	users, total, err := service.ListUsers(context.Background(), pagination.Params{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 2, total)
}

/*
TestService_ChangeRole verifies that a role change persists and propagates
into the live session store.
*/
func TestService_ChangeRole(t *testing.T) {
	service, repository, invalidator := newTestService(t)

	require.NoError(t, service.ChangeRole(context.Background(), "u1", "admin"))

	assert.Equal(t, sec.RoleAdmin, repository.users["u1"].Role)
	assert.Equal(t, "admin", invalidator.roleUpdates["u1"])
}

/*
TestService_ChangeRole_Invalid verifies that unknown roles are rejected
before any storage mutation.
*/
func TestService_ChangeRole_Invalid(t *testing.T) {
	service, repository, invalidator := newTestService(t)

	err := service.ChangeRole(context.Background(), "u1", "superuser")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	assert.Equal(t, sec.RoleUser, repository.users["u1"].Role)
	assert.Empty(t, invalidator.roleUpdates)
}

/*
TestService_ChangeRole_UnknownUser verifies the not-found path for a missing
target account.
*/
func TestService_ChangeRole_UnknownUser(t *testing.T) {
	service, _, invalidator := newTestService(t)

	err := service.ChangeRole(context.Background(), "ghost", "admin")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	assert.Empty(t, invalidator.roleUpdates)
}
