// Copyright (c) 2026 Subly. All rights reserved.

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sublyhq/subly/internal/platform/apperr"
	"github.com/sublyhq/subly/internal/platform/sec"
	"github.com/sublyhq/subly/internal/users/auth"
	"github.com/sublyhq/subly/pkg/pagination"
)

// # Service Layer

// Service orchestrates business logic for user accounts and administration.
//
// It ensures that profile updates, role changes, and account removal follow
// established business constraints and keep the live session store in sync.
type Service struct {
	accountRepository AccountRepository
	sessions          SessionInvalidator
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(
	accountRepo AccountRepository,
	sessions SessionInvalidator,
	logger *slog.Logger,
) *Service {
	return &Service{
		accountRepository: accountRepo,
		sessions:          sessions,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the full private identity of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: The hydrated user profile
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfileInput defines the mutable subset of user profile fields.
type UpdateProfileInput struct {
	DisplayName *string
}

/*
UpdateProfile applies a partial set of changes to a user's account metadata.

Description: Fetches the existing user state, overrides provided fields, and
synchronizes the change to persistent storage.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated user profile
  - error: Update or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {

	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	// Apply delta updates
	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}

	// Persist changes
	if err := service.accountRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.Info("user_profile_updated", slog.String("user_id", userID))

	return user, nil
}

/*
DeleteAccount performs an idempotent soft-deletion of a user account.

Description: Flags the account as deleted and immediately terminates all active
sessions to force a global sign-out.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution failures
*/
func (service *Service) DeleteAccount(context context.Context, userID string) error {

	if err := service.accountRepository.SoftDelete(context, userID); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	// Force global revocation of sessions for the deleted account
	if err := service.sessions.DestroyAllForUser(context, userID); err != nil {
		service.logger.Error("user_session_cleanup_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	service.logger.Warn("user_account_deleted", slog.String("user_id", userID))

	return nil
}

// # Administration

/*
ListUsers retrieves a page of user accounts with the total count.

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - []auth.User: Page of accounts
  - int: Total active account count
  - error: Retrieval failures
*/
func (service *Service) ListUsers(context context.Context, params pagination.Params) ([]auth.User, int, error) {
	users, err := service.accountRepository.List(context, params)
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_list_failed: %w", err)
	}

	total, err := service.accountRepository.Count(context)
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_count_failed: %w", err)
	}

	return users, total, nil
}

/*
ChangeRole reassigns a user's permission role.

Description: Persists the new role and rewrites the role on every active
session of the target user so that in-flight cookies immediately carry the
new permissions.

Parameters:
  - context: context.Context
  - userID: string
  - role: string

Returns:
  - error: Validation, storage, or session propagation failures
*/
func (service *Service) ChangeRole(context context.Context, userID, role string) error {

	// Reject unknown role identifiers before touching storage
	switch sec.UserRole(role) {
	case sec.RoleAdmin, sec.RoleSupport, sec.RoleUser:
	default:
		return apperr.ValidationError("Unknown role: " + role)
	}

	if err := service.accountRepository.UpdateRole(context, userID, role); err != nil {
		return err
	}

	// Propagate into the live session store
	if err := service.sessions.UpdateRoleForUser(context, userID, role); err != nil {
		return fmt.Errorf("account_service_role_propagation_failed: %w", err)
	}

	service.logger.Info("user_role_changed",
		slog.String("user_id", userID),
		slog.String("role", role),
	)

	return nil
}

/*
RemoveUser performs an administrative soft-deletion of a target account.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution failures
*/
func (service *Service) RemoveUser(context context.Context, userID string) error {
	return service.DeleteAccount(context, userID)
}
