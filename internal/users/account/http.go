// Copyright (c) 2026 Subly. All rights reserved.

/*
Package account provides the HTTP delivery layer for profile and admin management.

It implements the RESTful interface for users to interact with their account
data, and for administrators to manage the member base.

# Security

All endpoints in this package require an active authentication context. The
admin sub-router additionally enforces the admin role.
*/
package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sublyhq/subly/internal/platform/middleware"
	requestutil "github.com/sublyhq/subly/internal/platform/request"
	"github.com/sublyhq/subly/internal/platform/respond"
	"github.com/sublyhq/subly/internal/platform/sec"
	"github.com/sublyhq/subly/internal/platform/validate"
	"github.com/sublyhq/subly/pkg/pagination"
)

// Handler implements the HTTP layer for user account management.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	// Account Management
	router.Get("/me", handler.getMe)
	router.Patch("/me", handler.updateMe)
	router.Delete("/me", handler.deleteMe)

	return router
}

// AdminRoutes returns a [chi.Router] with administrative user management endpoints.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireRole(sec.RoleAdmin))

	router.Get("/users", handler.listUsers)
	router.Get("/users/{id}", handler.getUser)
	router.Patch("/users/{id}/role", handler.changeRole)
	router.Delete("/users/{id}", handler.deleteUser)

	return router
}

// # User Profile Endpoints

/*
GET /api/v1/me.

Description: Retrieves the full private profile of the authenticated user.

Response:
  - 200: User: Fully hydrated user profile
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// updateMeRequest defines the expected JSON payload for profile updates.
type updateMeRequest struct {
	DisplayName *string `json:"display_name"`
}

/*
PATCH /api/v1/me.

Description: Applies partial updates to the authenticated user's profile.

Request:
  - body: updateMeRequest (Partial JSON)

Response:
  - 200: User: The updated profile
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	if input.DisplayName != nil {
		v.MinLen("display_name", *input.DisplayName, 2).MaxLen("display_name", *input.DisplayName, 50)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		DisplayName: input.DisplayName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DELETE /api/v1/me.

Description: Performs a soft-deletion of the authenticated user's account
and signs out every active device.

Response:
  - 204: No Content: Account deleted successfully
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.DeleteAccount(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Administration Endpoints

/*
GET /api/v1/admin/users.

Description: Enumerates active member accounts with pagination metadata.

Request:
  - page: int (Query, default 1)
  - limit: int (Query, default 20, max 100)

Response:
  - 200: []User + Meta: Page of accounts
  - 403: ErrForbidden: Admin role required
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, total, err := handler.accountService.ListUsers(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/admin/users/{id}.

Description: Retrieves a specific member's full profile.

Request:
  - id: string (UUID)

Response:
  - 200: User: Full account entity
  - 400: ErrValidation: Malformed account id
  - 404: ErrNotFound: Unknown account
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	userID := chi.URLParam(request, "id")

	v := &validate.Validator{}
	if err := v.UUID("id", userID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// changeRoleRequest defines the payload for a role reassignment.
type changeRoleRequest struct {
	Role string `json:"role"`
}

/*
PATCH /api/v1/admin/users/{id}/role.

Description: Reassigns a member's role and propagates the change into
every one of their active sessions.

Request:
  - id: string (UUID)
  - body: changeRoleRequest (Role)

Response:
  - 200: Success: Role updated
  - 400: ErrValidation: Unknown role identifier
  - 404: ErrNotFound: Unknown account
*/
func (handler *Handler) changeRole(writer http.ResponseWriter, request *http.Request) {
	userID := chi.URLParam(request, "id")

	var input changeRoleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.UUID("id", userID).
		Required("role", input.Role).
		OneOf("role", input.Role, string(sec.RoleUser), string(sec.RoleSupport), string(sec.RoleAdmin))

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.ChangeRole(request.Context(), userID, input.Role); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		"message": "Role updated successfully",
	})
}

/*
DELETE /api/v1/admin/users/{id}.

Description: Administratively soft-deletes a member account and terminates
all of their sessions.

Request:
  - id: string (UUID)

Response:
  - 204: No Content: Account removed
  - 400: ErrValidation: Malformed account id
  - 403: ErrForbidden: Admin role required
*/
func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	userID := chi.URLParam(request, "id")

	v := &validate.Validator{}
	if err := v.UUID("id", userID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.RemoveUser(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
