// Copyright (c) 2026 Subly. All rights reserved.

package billing

import (
	"encoding/json"
	"strings"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/sublyhq/subly/internal/platform/apperr"
)

// # Webhook Verification

// Verifier validates inbound webhook payloads against the shared signing
// secret before any byte of the payload is trusted.
type Verifier struct {
	secret string
}

// NewVerifier constructs a [Verifier] for the configured webhook secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

/*
Verify checks the payload signature and decodes the typed event.

Description: Delegates the HMAC-SHA256 check (constant-time compare,
timestamp tolerance) to the processor SDK's vetted routine. If the
signature header carries multiple comma-separated signature sets, only the
first is used. Verification is a pure function of (payload, signature,
secret): the same triple always yields the same result.

Parameters:
  - payload: []byte (Raw request body, unmodified)
  - signatureHeader: string (Stripe-Signature header value)

Returns:
  - *Event: The decoded, trusted event
  - error: apperr.WebhookVerification carrying the underlying reason
*/
func (verifier *Verifier) Verify(payload []byte, signatureHeader string) (*Event, error) {
	signature := firstSignature(signatureHeader)

	if err := webhook.ValidatePayload(payload, signature, verifier.secret); err != nil {
		return nil, apperr.WebhookVerification(err)
	}

	event := &Event{}
	if err := json.Unmarshal(payload, event); err != nil {
		return nil, apperr.WebhookVerification(err)
	}

	return event, nil
}

// firstSignature reduces a multi-valued signature header to its first entry.
//
// Proxies occasionally fold repeated headers into one comma-joined value
// that still contains complete "t=...,v1=..." sets per entry. A single
// well-formed header passes through untouched.
func firstSignature(header string) string {
	if idx := strings.Index(header, ",t="); idx > 0 {
		return header[:idx]
	}
	return header
}
