// Copyright (c) 2026 Subly. All rights reserved.

/*
Package billing integrates the platform with its payment processor.

It provides the outbound gateway adapter (checkout, subscriptions), the
inbound webhook verification path, and the event dispatch pipeline that
reacts to processor notifications.

# Architecture

  - Gateway: Pass-through adapter over the Stripe API client.
  - Verifier: HMAC signature validation of inbound webhook payloads.
  - Dispatcher: Exact-match routing of verified events to handlers.
*/
package billing

import "encoding/json"

// # Event Types

// Dot-namespaced processor event types this system recognizes.
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentMethodAttached  = "payment_method.attached"
)

// Event is a verified payment processor notification.
//
// The shape of Data.Raw depends on Type; use [Event.Object] to decode it into
// its typed variant instead of reaching into the raw JSON.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries the raw nested object of an event.
type EventData struct {
	Raw json.RawMessage `json:"object"`
}

// # Object Variants

// PaymentIntent is the data object of payment_intent.* events.
type PaymentIntent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// PaymentMethod is the data object of payment_method.* events.
type PaymentMethod struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Customer string `json:"customer"`
}

// UnknownObject is the catch-all variant for event types this system does
// not model. The raw bytes are preserved for logging and forensics.
type UnknownObject struct {
	Type string
	Raw  json.RawMessage
}

/*
Object decodes the event's data payload into its typed variant.

Description: Selects the variant by exact match on the event type's
namespace. Unrecognized types return an [UnknownObject] rather than an
error, since unknown events must never fail the webhook request.

Returns:
  - any: *PaymentIntent, *PaymentMethod, or UnknownObject
  - error: Malformed JSON in a recognized variant
*/
func (event *Event) Object() (any, error) {
	switch event.Type {
	case EventPaymentIntentSucceeded:
		intent := &PaymentIntent{}
		if err := json.Unmarshal(event.Data.Raw, intent); err != nil {
			return nil, err
		}
		return intent, nil

	case EventPaymentMethodAttached:
		method := &PaymentMethod{}
		if err := json.Unmarshal(event.Data.Raw, method); err != nil {
			return nil, err
		}
		return method, nil

	default:
		return UnknownObject{Type: event.Type, Raw: event.Data.Raw}, nil
	}
}
