// Copyright (c) 2026 Subly. All rights reserved.

package billing_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublyhq/subly/internal/billing"
)

func newEvent(t *testing.T, id, eventType, object string) *billing.Event {
	t.Helper()
	event := &billing.Event{ID: id, Type: eventType}
	event.Data.Raw = json.RawMessage(object)
	return event
}

/*
TestDispatcher_Dispatch verifies that known, unknown, and malformed events
are all acknowledged with {received: true}.
*/
func TestDispatcher_Dispatch(t *testing.T) {
	dispatcher := billing.NewDispatcher(slog.Default())

	tests := []struct {
		name  string
		event *billing.Event
	}{
		{
			"payment_intent_succeeded",
			newEvent(t, "evt_1", billing.EventPaymentIntentSucceeded,
				`{"id": "pi_1", "amount": 1999, "currency": "usd", "status": "succeeded"}`),
		},
		{
			"payment_method_attached",
			newEvent(t, "evt_2", billing.EventPaymentMethodAttached,
				`{"id": "pm_1", "type": "card", "customer": "cus_1"}`),
		},
		{
			"unknown_type",
			newEvent(t, "evt_3", "invoice.finalized", `{"id": "in_1"}`),
		},
		{
			"malformed_object",
			newEvent(t, "evt_4", billing.EventPaymentIntentSucceeded, `not-json`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := dispatcher.Dispatch(context.Background(), tt.event)
			assert.True(t, ack.Received)
		})
	}
}

/*
TestEvent_Object verifies the typed decoding of known event payloads and the
opaque wrapper for unknown types.
*/
func TestEvent_Object(t *testing.T) {
	t.Run("payment_intent", func(t *testing.T) {
		event := newEvent(t, "evt_1", billing.EventPaymentIntentSucceeded,
			`{"id": "pi_1", "amount": 500, "currency": "eur", "status": "succeeded"}`)

		object, err := event.Object()
		require.NoError(t, err)
		intent, ok := object.(*billing.PaymentIntent)
		require.True(t, ok)
		assert.Equal(t, "pi_1", intent.ID)
		assert.Equal(t, int64(500), intent.Amount)
		assert.Equal(t, "eur", intent.Currency)
		assert.Equal(t, "succeeded", intent.Status)
	})

	t.Run("payment_method", func(t *testing.T) {
		event := newEvent(t, "evt_2", billing.EventPaymentMethodAttached,
			`{"id": "pm_1", "type": "card", "customer": "cus_1"}`)

		object, err := event.Object()
		require.NoError(t, err)
		method, ok := object.(*billing.PaymentMethod)
		require.True(t, ok)
		assert.Equal(t, "pm_1", method.ID)
		assert.Equal(t, "card", method.Type)
		assert.Equal(t, "cus_1", method.Customer)
	})

	t.Run("unknown_type", func(t *testing.T) {
		event := newEvent(t, "evt_3", "invoice.finalized", `{"id": "in_1"}`)

		object, err := event.Object()
		require.NoError(t, err)
		unknown, ok := object.(billing.UnknownObject)
		require.True(t, ok)
		assert.Equal(t, "invoice.finalized", unknown.Type)
		assert.JSONEq(t, `{"id": "in_1"}`, string(unknown.Raw))
	})
}
