// Copyright (c) 2026 Subly. All rights reserved.

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Identity) and logic for
authentication, session lifecycle, and account recovery.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import (
	"time"

	"github.com/sublyhq/subly/internal/platform/sec"
)

// # Domain Entities

// User represents a registered member of the Subly platform.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName  string       `json:"display_name"`
	Role         sec.UserRole `json:"role"`

	// StripeCustomerID links the account to the payment processor's customer
	// record. Empty until the first billing interaction.
	StripeCustomerID string `json:"stripe_customer_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Identity is the server-held session record mapped to a cookie-delivered
// session id. It mirrors the claims of the bearer-token path but lives
// independently of it.
type Identity struct {
	UserID   string       `json:"user_id"`
	Username string       `json:"username"`
	Role     sec.UserRole `json:"role"`
}

// IdentityOf builds the session-record view of a user.
func IdentityOf(user *User) *Identity {
	return &Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "display_name"
	FieldLogin           = "login"
	FieldToken           = "token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldAccessToken     = "access_token"
	FieldTokenType       = "token_type"
	FieldExpiresIn       = "expires_in"
	FieldUser            = "user"
	FieldMessage         = "message"
)
