// Copyright (c) 2026 Subly. All rights reserved.

package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublyhq/subly/internal/platform/apperr"
	"github.com/sublyhq/subly/internal/platform/sec"
	"github.com/sublyhq/subly/internal/users/auth"
)

// # Test Doubles

// stubUserRepository serves a fixed set of users keyed by id, email, and username.
type stubUserRepository struct {
	users   map[string]*auth.User // keyed by ID
	created []*auth.User
}

func (r *stubUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User")
}

func (r *stubUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (r *stubUserRepository) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (r *stubUserRepository) Create(_ context.Context, user *auth.User) error {
	r.users[user.ID] = user
	r.created = append(r.created, user)
	return nil
}

func (r *stubUserRepository) UpdatePassword(_ context.Context, userID, newHash string) error {
	user, ok := r.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.PasswordHash = newHash
	return nil
}

// stubSessionStore records session operations in memory.
type stubSessionStore struct {
	sessions  map[string]*auth.Identity
	destroyed []string
}

func (s *stubSessionStore) Create(_ context.Context, identity *auth.Identity) (string, error) {
	id := "session-" + identity.UserID
	s.sessions[id] = identity
	return id, nil
}

func (s *stubSessionStore) Read(_ context.Context, sessionID string) (*auth.Identity, error) {
	if identity, ok := s.sessions[sessionID]; ok {
		return identity, nil
	}
	return nil, apperr.NoActiveSession()
}

func (s *stubSessionStore) Destroy(_ context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	s.destroyed = append(s.destroyed, sessionID)
	return nil
}

func (s *stubSessionStore) UpdateRoleForUser(_ context.Context, userID, role string) error {
	for _, identity := range s.sessions {
		if identity.UserID == userID {
			identity.Role = sec.UserRole(role)
		}
	}
	return nil
}

func (s *stubSessionStore) DestroyAllForUser(_ context.Context, userID string) error {
	for id, identity := range s.sessions {
		if identity.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

// stubResetTokenRepository keeps reset tokens in a plain map.
type stubResetTokenRepository struct {
	tokens map[string]string
}

func (r *stubResetTokenRepository) Set(_ context.Context, token, userID string, _ time.Duration) error {
	r.tokens[token] = userID
	return nil
}

func (r *stubResetTokenRepository) Consume(_ context.Context, token string) (string, error) {
	userID, ok := r.tokens[token]
	if !ok {
		return "", apperr.NotFound("Reset token is invalid or expired")
	}
	delete(r.tokens, token)
	return userID, nil
}

// stubTokenProvider returns a deterministic token and records its inputs.
type stubTokenProvider struct {
	lastUserID string
	lastRole   string
	fail       bool
}

func (p *stubTokenProvider) GenerateAccessToken(userID, _, role string, _ time.Duration) (string, error) {
	if p.fail {
		return "", errors.New("signing failed")
	}
	p.lastUserID = userID
	p.lastRole = role
	return "jwt-" + userID, nil
}

// # Fixtures

func newTestService(t *testing.T) (*auth.Service, *stubUserRepository, *stubSessionStore, *stubResetTokenRepository, *stubTokenProvider) {
	t.Helper()
	users := &stubUserRepository{users: map[string]*auth.User{}}
	sessions := &stubSessionStore{sessions: map[string]*auth.Identity{}}
	resets := &stubResetTokenRepository{tokens: map[string]string{}}
	tokens := &stubTokenProvider{}
	service := auth.NewService(users, sessions, resets, tokens, slog.Default())
	return service, users, sessions, resets, tokens
}

func seedUser(t *testing.T, users *stubUserRepository, id, username, email, password string) *auth.User {
	t.Helper()
	hash, err := sec.HashPassword(password)
	require.NoError(t, err)
	user := &auth.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         sec.RoleUser,
	}
	users.users[id] = user
	return user
}

// # Registration

/*
TestService_Register verifies that a new account is created with a server-set
role and a hashed password.
*/
func TestService_Register(t *testing.T) {
	service, users, _, _, _ := newTestService(t)

	user, err := service.Register(context.Background(), auth.RegisterInput{
		Username:    "mika",
		Email:       "mika@example.com",
		Password:    "s3cret-pass",
		DisplayName: "Mika",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, sec.RoleUser, user.Role)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("s3cret-pass", user.PasswordHash))
	assert.Len(t, users.created, 1)
}

/*
TestService_Register_Conflicts verifies that duplicate emails and usernames
are rejected with a conflict error.
*/
func TestService_Register_Conflicts(t *testing.T) {
	service, users, _, _, _ := newTestService(t)
	seedUser(t, users, "u1", "mika", "mika@example.com", "pw")

	tests := []struct {
		name  string
		input auth.RegisterInput
	}{
		{"duplicate_email", auth.RegisterInput{Username: "other", Email: "mika@example.com", Password: "pw"}},
		{"duplicate_username", auth.RegisterInput{Username: "mika", Email: "other@example.com", Password: "pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Register(context.Background(), tt.input)
			require.Error(t, err)
			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, "CONFLICT", appError.Code)
		})
	}
}

// # Authentication

/*
TestService_Login verifies the happy path: correct credentials yield a token,
a session id, and a future session expiry.
*/
func TestService_Login(t *testing.T) {
	service, users, sessions, _, tokens := newTestService(t)
	seedUser(t, users, "u1", "mika", "mika@example.com", "s3cret-pass")

	result, err := service.Login(context.Background(), auth.LoginInput{
		Login:    "mika@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	assert.Equal(t, "jwt-u1", result.AccessToken)
	assert.Equal(t, "u1", tokens.lastUserID)
	assert.Equal(t, "user", tokens.lastRole)
	assert.NotEmpty(t, result.SessionID)
	assert.True(t, result.SessionExpiresAt.After(time.Now()))

	identity, err := sessions.Read(context.Background(), result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UserID)
}

/*
TestService_Login_ByUsername verifies that the login field also resolves via
username when it is not an email.
*/
func TestService_Login_ByUsername(t *testing.T) {
	service, users, _, _, _ := newTestService(t)
	seedUser(t, users, "u1", "mika", "mika@example.com", "s3cret-pass")

	result, err := service.Login(context.Background(), auth.LoginInput{
		Login:    "mika",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", result.User.ID)
}

/*
TestService_Login_InvalidCredentials verifies that unknown users and wrong
passwords produce the same generic message, preventing account enumeration.
*/
func TestService_Login_InvalidCredentials(t *testing.T) {
	service, users, _, _, _ := newTestService(t)
	seedUser(t, users, "u1", "mika", "mika@example.com", "s3cret-pass")

	tests := []struct {
		name  string
		input auth.LoginInput
	}{
		{"unknown_user", auth.LoginInput{Login: "ghost@example.com", Password: "s3cret-pass"}},
		{"wrong_password", auth.LoginInput{Login: "mika@example.com", Password: "wrong"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Login(context.Background(), tt.input)
			require.Error(t, err)
			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, "UNAUTHORIZED", appError.Code)
			assert.Equal(t, "Invalid login credentials", appError.Message)
		})
	}
}

/*
TestService_Logout verifies that logout destroys the session and that the
session is no longer resolvable afterwards.
*/
func TestService_Logout(t *testing.T) {
	service, users, sessions, _, _ := newTestService(t)
	seedUser(t, users, "u1", "mika", "mika@example.com", "s3cret-pass")

	result, err := service.Login(context.Background(), auth.LoginInput{Login: "mika", Password: "s3cret-pass"})
	require.NoError(t, err)

	service.Logout(context.Background(), result.SessionID)
	assert.Contains(t, sessions.destroyed, result.SessionID)

	_, err = service.CurrentSession(context.Background(), result.SessionID)
	require.Error(t, err)
	assert.Equal(t, "NO_ACTIVE_SESSION", apperr.As(err).Code)
}

// # Password Recovery

/*
TestService_PasswordResetFlow verifies the full forgot-password round trip:
request, reset, token invalidation, and login with the new password.
*/
func TestService_PasswordResetFlow(t *testing.T) {
	service, users, _, resets, _ := newTestService(t)
	seedUser(t, users, "u1", "mika", "mika@example.com", "old-pass")

	token, err := service.RequestPasswordReset(context.Background(), "mika@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, service.ResetPassword(context.Background(), token, "new-pass"))

	// Token is single-use.
	assert.Empty(t, resets.tokens)
	err = service.ResetPassword(context.Background(), token, "another-pass")
	require.Error(t, err)

	_, err = service.Login(context.Background(), auth.LoginInput{Login: "mika", Password: "new-pass"})
	require.NoError(t, err)
}

/*
TestService_RequestPasswordReset_UnknownEmail verifies that an unknown email
yields an empty token and no error, hiding account existence.
*/
func TestService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	service, _, _, resets, _ := newTestService(t)

	token, err := service.RequestPasswordReset(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Empty(t, resets.tokens)
}

/*
TestService_ChangePassword verifies that the current password is required and
that the new hash takes effect.
*/
func TestService_ChangePassword(t *testing.T) {
	service, users, _, _, _ := newTestService(t)
	seedUser(t, users, "u1", "mika", "mika@example.com", "old-pass")

	err := service.ChangePassword(context.Background(), "u1", "wrong", "new-pass")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	require.NoError(t, service.ChangePassword(context.Background(), "u1", "old-pass", "new-pass"))

	_, err = service.Login(context.Background(), auth.LoginInput{Login: "mika", Password: "new-pass"})
	require.NoError(t, err)
}
