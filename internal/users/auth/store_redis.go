// Copyright (c) 2026 Subly. All rights reserved.

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sublyhq/subly/internal/platform/apperr"
	"github.com/sublyhq/subly/internal/platform/constants"
	"github.com/sublyhq/subly/internal/platform/sec"
)

// # Session Store

// RedisSessionStore implements [SessionStore] using Redis.
//
// Each record lives under "auth:session:<id>" with the session TTL. A
// secondary set "auth:user_sessions:<userID>" indexes live session ids per
// user so role changes can rewrite them. Concurrent writes to the same id
// resolve last-write-wins; Redis serializes per-key commands.
type RedisSessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a new Redis-backed [SessionStore].
func NewSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

/*
Create generates a session id and persists the identity record with TTL.

Parameters:
  - context: context.Context
  - identity: *Identity

Returns:
  - string: Generated session id
  - error: Generation or persistence failures
*/
func (store *RedisSessionStore) Create(context context.Context, identity *Identity) (string, error) {

	// Generate an unguessable session identifier
	sessionID, err := sec.GenerateSecureToken(SessionIDLength)
	if err != nil {
		return "", fmt.Errorf("redis_session_create_id_failed: %w", err)
	}

	payload, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("redis_session_create_marshal_failed: %w", err)
	}

	// Store the record with TTL
	key := constants.RedisPrefixSession + sessionID
	if err := store.client.Set(context, key, payload, SessionTTL).Err(); err != nil {
		return "", fmt.Errorf("redis_session_create_set_failed: %w", err)
	}

	// Index the session under its owner for later role rewrites
	indexKey := constants.RedisPrefixUserSessions + identity.UserID
	if err := store.client.SAdd(context, indexKey, sessionID).Err(); err != nil {
		return "", fmt.Errorf("redis_session_create_index_failed: %w", err)
	}
	// Keep the index alive at least as long as its newest session.
	_ = store.client.Expire(context, indexKey, SessionTTL).Err()

	return sessionID, nil
}

/*
Read returns the identity stored under the session id.

Description: Returns apperr.NoActiveSession if the record is absent or expired.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - *Identity: Stored session record
  - error: apperr.NoActiveSession or connectivity errors
*/
func (store *RedisSessionStore) Read(context context.Context, sessionID string) (*Identity, error) {
	key := constants.RedisPrefixSession + sessionID

	payload, err := store.client.Get(context, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NoActiveSession()
		}
		return nil, fmt.Errorf("redis_session_read_failed: %w", err)
	}

	identity := &Identity{}
	if err := json.Unmarshal(payload, identity); err != nil {
		return nil, fmt.Errorf("redis_session_read_unmarshal_failed: %w", err)
	}

	return identity, nil
}

/*
Destroy removes the session record and its index entry.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: Deletion failures (caller treats as best-effort)
*/
func (store *RedisSessionStore) Destroy(context context.Context, sessionID string) error {
	key := constants.RedisPrefixSession + sessionID

	// Look up the owner first so the index entry can be cleaned too.
	// A missing record is fine: destroy is idempotent.
	if identity, err := store.Read(context, sessionID); err == nil {
		indexKey := constants.RedisPrefixUserSessions + identity.UserID
		_ = store.client.SRem(context, indexKey, sessionID).Err()
	}

	if err := store.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_session_destroy_failed: %w", err)
	}

	return nil
}

/*
UpdateRoleForUser rewrites the role on every live session record of the user.

Description: Preserves each record's remaining TTL. Index entries whose
record already expired are skipped.

Parameters:
  - context: context.Context
  - userID: string
  - role: string

Returns:
  - error: Persistence failures
*/
func (store *RedisSessionStore) UpdateRoleForUser(context context.Context, userID, role string) error {
	indexKey := constants.RedisPrefixUserSessions + userID

	sessionIDs, err := store.client.SMembers(context, indexKey).Result()
	if err != nil {
		return fmt.Errorf("redis_session_update_role_index_failed: %w", err)
	}

	for _, sessionID := range sessionIDs {
		identity, err := store.Read(context, sessionID)
		if err != nil {
			// Expired record: drop the stale index entry.
			_ = store.client.SRem(context, indexKey, sessionID).Err()
			continue
		}

		identity.Role = sec.UserRole(role)
		payload, err := json.Marshal(identity)
		if err != nil {
			return fmt.Errorf("redis_session_update_role_marshal_failed: %w", err)
		}

		// KeepTTL preserves the record's original expiry.
		key := constants.RedisPrefixSession + sessionID
		if err := store.client.Set(context, key, payload, redis.KeepTTL).Err(); err != nil {
			return fmt.Errorf("redis_session_update_role_set_failed: %w", err)
		}
	}

	return nil
}

/*
DestroyAllForUser removes every live session record of the user.

Description: Used on account deletion and administrative deactivation to
force a global sign-out.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Deletion failures
*/
func (store *RedisSessionStore) DestroyAllForUser(context context.Context, userID string) error {
	indexKey := constants.RedisPrefixUserSessions + userID

	sessionIDs, err := store.client.SMembers(context, indexKey).Result()
	if err != nil {
		return fmt.Errorf("redis_session_destroy_all_index_failed: %w", err)
	}

	for _, sessionID := range sessionIDs {
		key := constants.RedisPrefixSession + sessionID
		if err := store.client.Del(context, key).Err(); err != nil {
			return fmt.Errorf("redis_session_destroy_all_failed: %w", err)
		}
	}

	if err := store.client.Del(context, indexKey).Err(); err != nil {
		return fmt.Errorf("redis_session_destroy_all_index_cleanup_failed: %w", err)
	}

	return nil
}

// # Reset Token Repository

// RedisResetTokenRepository implements ResetTokenRepository using Redis.
//
// Tokens are keyed by their SHA-256 digest, never by the raw value, so a
// leaked store snapshot cannot be replayed against the API. The raw token
// exists only in the email sent to the user.
type RedisResetTokenRepository struct {
	client *redis.Client
}

// NewResetTokenRepository creates a new Redis-backed ResetTokenRepository.
func NewResetTokenRepository(client *redis.Client) *RedisResetTokenRepository {
	return &RedisResetTokenRepository{client: client}
}

// resetTokenKey derives the storage key from the raw token.
func resetTokenKey(token string) string {
	return constants.RedisPrefixResetToken + sec.HashToken(token)
}

/*
Set stores a reset token with its associated userID and TTL.

Parameters:
  - context: context.Context
  - token: string (Raw token; only its digest is persisted)
  - userID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisResetTokenRepository) Set(context context.Context, token string, userID string, ttl time.Duration) error {
	if err := repository.client.Set(context, resetTokenKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_set_failed: %w", err)
	}

	return nil
}

/*
Consume retrieves the userID for a token and invalidates it in one step.

Description: GETDEL makes redemption atomic; of two concurrent attempts with
the same token exactly one succeeds. Returns apperr.NotFound if the token is
absent, expired, or already consumed.

Parameters:
  - context: context.Context
  - token: string (Raw token)

Returns:
  - string: Original UserID
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisResetTokenRepository) Consume(context context.Context, token string) (string, error) {
	userID, err := repository.client.GetDel(context, resetTokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound("Reset token is invalid or expired")
		}
		return "", fmt.Errorf("redis_reset_token_consume_failed: %w", err)
	}

	return userID, nil
}
