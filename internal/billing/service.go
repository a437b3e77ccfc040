// Copyright (c) 2026 Subly. All rights reserved.

package billing

import (
	"context"
	"log/slog"

	stripe "github.com/stripe/stripe-go/v82"
)

// # Service Layer

// Service orchestrates the billing use cases: outbound gateway calls on the
// authenticated path and webhook processing on the inbound path.
type Service struct {
	gateway    Gateway
	verifier   *Verifier
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewService constructs a new billing [Service].
func NewService(gateway Gateway, verifier *Verifier, dispatcher *Dispatcher, logger *slog.Logger) *Service {
	return &Service{
		gateway:    gateway,
		verifier:   verifier,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

/*
CreateCheckoutSession forwards a checkout request to the gateway.

Parameters:
  - context: context.Context
  - amount: int64
  - currency: string

Returns:
  - *stripe.CheckoutSession: Processor response, unmodified
  - error: Gateway failures, verbatim
*/
func (service *Service) CreateCheckoutSession(context context.Context, amount int64, currency string) (*stripe.CheckoutSession, error) {
	session, err := service.gateway.CreateCheckoutSession(context, amount, currency)
	if err != nil {
		return nil, err
	}

	service.logger.Info("billing_checkout_session_created",
		slog.String("session_id", session.ID),
		slog.Int64("amount", amount),
		slog.String("currency", currency),
	)

	return session, nil
}

/*
CreateSubscription forwards a subscription request to the gateway.

Parameters:
  - context: context.Context
  - customerID: string
  - priceID: string

Returns:
  - *stripe.Subscription: Processor response, unmodified
  - error: Gateway failures, verbatim
*/
func (service *Service) CreateSubscription(context context.Context, customerID, priceID string) (*stripe.Subscription, error) {
	subscription, err := service.gateway.CreateSubscription(context, customerID, priceID)
	if err != nil {
		return nil, err
	}

	service.logger.Info("billing_subscription_created",
		slog.String("subscription_id", subscription.ID),
		slog.String("customer_id", customerID),
	)

	return subscription, nil
}

/*
CancelSubscription forwards a cancellation request to the gateway.

Parameters:
  - context: context.Context
  - subscriptionID: string

Returns:
  - *stripe.Subscription: Processor response, unmodified
  - error: Gateway failures, verbatim
*/
func (service *Service) CancelSubscription(context context.Context, subscriptionID string) (*stripe.Subscription, error) {
	subscription, err := service.gateway.CancelSubscription(context, subscriptionID)
	if err != nil {
		return nil, err
	}

	service.logger.Info("billing_subscription_cancelled",
		slog.String("subscription_id", subscriptionID),
	)

	return subscription, nil
}

/*
HandleWebhook verifies an inbound payload and dispatches its event.

Parameters:
  - context: context.Context
  - payload: []byte (Raw request body)
  - signatureHeader: string (Stripe-Signature header value)

Returns:
  - Ack: {received: true} on success
  - error: apperr.WebhookVerification on signature or decode failure
*/
func (service *Service) HandleWebhook(context context.Context, payload []byte, signatureHeader string) (Ack, error) {
	event, err := service.verifier.Verify(payload, signatureHeader)
	if err != nil {
		return Ack{}, err
	}

	return service.dispatcher.Dispatch(context, event), nil
}
