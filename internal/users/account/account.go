// Copyright (c) 2026 Subly. All rights reserved.

/*
Package account handles user profile management and administrative user control.

It provides functionalities for users to view and update their private identity
data, and for administrators to list accounts, adjust roles, and deactivate
members.

# Architecture

  - Domain: This package depends on the auth package for the User entity.
  - Security: Role changes propagate to the live session store so that active
    cookie sessions pick up the new permissions immediately.
*/
package account

import (
	"context"

	"github.com/sublyhq/subly/internal/users/auth"
	"github.com/sublyhq/subly/pkg/pagination"
)

// # Repository Contracts

// AccountRepository defines the persistence contract for user accounts.
type AccountRepository interface {
	/*
		FindByID retrieves a user record by their unique ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		Update modifies the mutable profile fields of an existing user.

		Parameters:
		  - context: context.Context
		  - user: *User (Hydrated entity with changes)

		Returns:
		  - error: Storage or constraint failures
	*/
	Update(context context.Context, user *auth.User) error

	/*
		UpdateRole reassigns the permission role of a user.

		Parameters:
		  - context: context.Context
		  - id: string
		  - role: string

		Returns:
		  - error: apperr.NotFound or execution failures
	*/
	UpdateRole(context context.Context, id, role string) error

	/*
		SoftDelete flags an account as logically deleted.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Execution failures
	*/
	SoftDelete(context context.Context, id string) error

	/*
		List retrieves a page of active user accounts ordered by creation time.

		Parameters:
		  - context: context.Context
		  - params: pagination.Params

		Returns:
		  - []auth.User: Page of accounts
		  - error: Retrieval failures
	*/
	List(context context.Context, params pagination.Params) ([]auth.User, error)

	/*
		Count returns the total number of active (non-deleted) accounts.

		Parameters:
		  - context: context.Context

		Returns:
		  - int: Total account count
		  - error: Retrieval failures
	*/
	Count(context context.Context) (int, error)
}

// SessionInvalidator propagates account-level changes into the live session
// store. Implemented by the auth package's Redis session store.
type SessionInvalidator interface {
	/*
		UpdateRoleForUser rewrites the role on every active session of a user.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - role: string

		Returns:
		  - error: Session store failures
	*/
	UpdateRoleForUser(context context.Context, userID, role string) error

	/*
		DestroyAllForUser terminates every active session of a user.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Session store failures
	*/
	DestroyAllForUser(context context.Context, userID string) error
}
