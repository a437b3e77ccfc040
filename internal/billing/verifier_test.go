// Copyright (c) 2026 Subly. All rights reserved.

package billing_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublyhq/subly/internal/billing"
	"github.com/sublyhq/subly/internal/platform/apperr"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload produces a signature header the way the processor does:
// HMAC-SHA256 over "<timestamp>.<payload>" with the shared secret.
func signPayload(payload []byte, timestamp time.Time, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

var paymentIntentPayload = []byte(`{
	"id": "evt_1",
	"type": "payment_intent.succeeded",
	"data": {
		"object": {
			"id": "pi_123",
			"amount": 1999,
			"currency": "usd",
			"status": "succeeded"
		}
	}
}`)

/*
TestVerifier_Verify verifies that a correctly signed payload decodes into a
typed event.
*/
func TestVerifier_Verify(t *testing.T) {
	verifier := billing.NewVerifier(testWebhookSecret)
	header := signPayload(paymentIntentPayload, time.Now(), testWebhookSecret)

	event, err := verifier.Verify(paymentIntentPayload, header)
	require.NoError(t, err)

	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, billing.EventPaymentIntentSucceeded, event.Type)

	object, err := event.Object()
	require.NoError(t, err)
	intent, ok := object.(*billing.PaymentIntent)
	require.True(t, ok)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, int64(1999), intent.Amount)
	assert.Equal(t, "usd", intent.Currency)
}

/*
TestVerifier_Idempotent verifies that the same (payload, signature) pair
yields the same outcome when verified twice.
*/
func TestVerifier_Idempotent(t *testing.T) {
	verifier := billing.NewVerifier(testWebhookSecret)
	header := signPayload(paymentIntentPayload, time.Now(), testWebhookSecret)

	first, err := verifier.Verify(paymentIntentPayload, header)
	require.NoError(t, err)
	second, err := verifier.Verify(paymentIntentPayload, header)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Type, second.Type)
}

/*
TestVerifier_TamperedPayload verifies that flipping a single byte after
signing fails verification with the webhook error envelope.
*/
func TestVerifier_TamperedPayload(t *testing.T) {
	verifier := billing.NewVerifier(testWebhookSecret)
	header := signPayload(paymentIntentPayload, time.Now(), testWebhookSecret)

	tampered := make([]byte, len(paymentIntentPayload))
	copy(tampered, paymentIntentPayload)
	tampered[len(tampered)-2] ^= 0x01

	_, err := verifier.Verify(tampered, header)
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "WEBHOOK_VERIFICATION_ERROR", appError.Code)
	assert.Contains(t, appError.Message, "Webhook Error:")
}

/*
TestVerifier_InvalidSignature verifies rejection of garbage and wrong-secret
signature headers.
*/
func TestVerifier_InvalidSignature(t *testing.T) {
	verifier := billing.NewVerifier(testWebhookSecret)

	tests := []struct {
		name   string
		header string
	}{
		{"garbage", "not-a-signature"},
		{"empty", ""},
		{"wrong_secret", signPayload(paymentIntentPayload, time.Now(), "whsec_other")},
		{"stale_timestamp", signPayload(paymentIntentPayload, time.Now().Add(-time.Hour), testWebhookSecret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(paymentIntentPayload, tt.header)
			require.Error(t, err)
			assert.Equal(t, "WEBHOOK_VERIFICATION_ERROR", apperr.As(err).Code)
		})
	}
}

/*
TestVerifier_FoldedHeader verifies that a proxy-folded multi-signature header
is reduced to its first complete entry before verification.
*/
func TestVerifier_FoldedHeader(t *testing.T) {
	verifier := billing.NewVerifier(testWebhookSecret)

	valid := signPayload(paymentIntentPayload, time.Now(), testWebhookSecret)
	stale := signPayload(paymentIntentPayload, time.Now().Add(-2*time.Hour), "whsec_other")
	folded := valid + "," + stale

	event, err := verifier.Verify(paymentIntentPayload, folded)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
}
