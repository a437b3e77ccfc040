// Copyright (c) 2026 Subly. All rights reserved.

package billing

import (
	"context"
	"log/slog"
)

// # Event Dispatch

// Ack is the acknowledgment returned to the processor for every verified
// event, regardless of whether the event type was recognized.
type Ack struct {
	Received bool `json:"received"`
}

// EventHandler processes a single verified event. Handlers must not fail
// the webhook request; anything recoverable is logged and acknowledged.
type EventHandler func(context context.Context, event *Event)

// Dispatcher routes verified events to handlers by exact match on type.
//
// Unknown types take the unhandled path and are still acknowledged. Events
// are not deduplicated: redelivery of the same event id runs its handler
// again, so handlers must stay idempotent.
type Dispatcher struct {
	handlers map[string]EventHandler
	logger   *slog.Logger
}

// NewDispatcher constructs a [Dispatcher] with the built-in handler set.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	dispatcher := &Dispatcher{
		handlers: make(map[string]EventHandler),
		logger:   logger,
	}

	dispatcher.handlers[EventPaymentIntentSucceeded] = dispatcher.handlePaymentIntentSucceeded
	dispatcher.handlers[EventPaymentMethodAttached] = dispatcher.handlePaymentMethodAttached

	return dispatcher
}

/*
Dispatch routes a verified event to its handler and acknowledges it.

Description: Selects the handler by exact match on the dot-namespaced type.
Unrecognized types log an unhandled entry; they never produce an error.

Parameters:
  - context: context.Context
  - event: *Event (Already signature-verified)

Returns:
  - Ack: Always {received: true}
*/
func (dispatcher *Dispatcher) Dispatch(context context.Context, event *Event) Ack {
	handler, known := dispatcher.handlers[event.Type]
	if !known {
		dispatcher.logger.Info("billing_event_unhandled",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type),
		)
		return Ack{Received: true}
	}

	handler(context, event)

	return Ack{Received: true}
}

// handlePaymentIntentSucceeded acknowledges a completed payment.
func (dispatcher *Dispatcher) handlePaymentIntentSucceeded(context context.Context, event *Event) {
	object, err := event.Object()
	if err != nil {
		dispatcher.logger.Warn("billing_event_decode_failed",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type),
			slog.Any("error", err),
		)
		return
	}

	intent, ok := object.(*PaymentIntent)
	if !ok {
		return
	}

	dispatcher.logger.Info("billing_payment_intent_succeeded",
		slog.String("event_id", event.ID),
		slog.String("payment_intent_id", intent.ID),
		slog.Int64("amount", intent.Amount),
		slog.String("currency", intent.Currency),
	)
}

// handlePaymentMethodAttached acknowledges a newly attached payment method.
func (dispatcher *Dispatcher) handlePaymentMethodAttached(context context.Context, event *Event) {
	object, err := event.Object()
	if err != nil {
		dispatcher.logger.Warn("billing_event_decode_failed",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type),
			slog.Any("error", err),
		)
		return
	}

	method, ok := object.(*PaymentMethod)
	if !ok {
		return
	}

	dispatcher.logger.Info("billing_payment_method_attached",
		slog.String("event_id", event.ID),
		slog.String("payment_method_id", method.ID),
		slog.String("customer", method.Customer),
	)
}
