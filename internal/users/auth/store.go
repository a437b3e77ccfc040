// Copyright (c) 2026 Subly. All rights reserved.

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		UpdatePassword replaces only the user's password hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID, newHash string) error
}

// # Session Data Access

// SessionStore defines the contract for the server-side session records that
// back the cookie-delivered session id.
//
// # Concurrency
//
// Records are read and written independently per session id. Concurrent
// writes to the same id resolve last-write-wins; there is no cross-session
// locking because a session is never shared across identities.
type SessionStore interface {

	/*
		Create issues a new session for the given identity.

		Parameters:
		  - context: context.Context
		  - identity: *Identity

		Returns:
		  - string: Generated session id (the caller sets it as a cookie)
		  - error: Persistence failures
	*/
	Create(context context.Context, identity *Identity) (string, error)

	/*
		Read returns the identity stored under the session id.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - *Identity: Stored session record
		  - error: apperr.NoActiveSession if absent or expired
	*/
	Read(context context.Context, sessionID string) (*Identity, error)

	/*
		Destroy removes the session record.

		Description: Best-effort. The caller logs a failure but does not fail
		the logout response.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - error: Deletion failures
	*/
	Destroy(context context.Context, sessionID string) error

	/*
		UpdateRoleForUser rewrites the role on every live session record
		belonging to the user (e.g., after an admin role change).

		Parameters:
		  - context: context.Context
		  - userID: string
		  - role: string

		Returns:
		  - error: Persistence failures
	*/
	UpdateRoleForUser(context context.Context, userID, role string) error

	/*
		DestroyAllForUser removes every live session record of the user.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Deletion failures
	*/
	DestroyAllForUser(context context.Context, userID string) error
}

// # Volatile Data Access

// ResetTokenRepository defines the contract for storing volatile password reset tokens.
type ResetTokenRepository interface {

	/*
		Set stores a reset token associated with a userID for a limited duration.

		Parameters:
		  - context: context.Context
		  - token: string
		  - userID: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, token string, userID string, ttl time.Duration) error

	/*
		Consume retrieves the userID for a token and invalidates it in one
		atomic step, so a token redeems at most once even under concurrent
		attempts.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - string: UserID
		  - error: apperr.NotFound if absent, expired, or already consumed
	*/
	Consume(context context.Context, token string) (string, error)
}
