// Copyright (c) 2026 Subly. All rights reserved.

package billing

import (
	"context"
	"errors"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/sublyhq/subly/internal/platform/apperr"
)

// # Gateway Contract

// Gateway is the outbound adapter to the payment processor.
//
// All three operations are verbatim pass-throughs: arguments are forwarded
// unmodified, responses are returned unmodified, and processor errors
// surface to the caller with their own message and status. There is no
// retry; a failed call fails the request.
type Gateway interface {
	/*
		CreateCheckoutSession opens a one-time payment checkout session.

		Parameters:
		  - context: context.Context
		  - amount: int64 (Smallest currency unit, forwarded as-is)
		  - currency: string (ISO code, forwarded as-is)

		Returns:
		  - *stripe.CheckoutSession: Processor response, unmodified
		  - error: apperr.Gateway carrying the processor's message
	*/
	CreateCheckoutSession(context context.Context, amount int64, currency string) (*stripe.CheckoutSession, error)

	/*
		CreateSubscription subscribes a customer to a recurring price.

		Parameters:
		  - context: context.Context
		  - customerID: string (Processor customer reference)
		  - priceID: string (Processor price reference)

		Returns:
		  - *stripe.Subscription: Processor response, unmodified
		  - error: apperr.Gateway carrying the processor's message
	*/
	CreateSubscription(context context.Context, customerID, priceID string) (*stripe.Subscription, error)

	/*
		CancelSubscription cancels a subscription immediately.

		Parameters:
		  - context: context.Context
		  - subscriptionID: string

		Returns:
		  - *stripe.Subscription: Processor response, unmodified
		  - error: apperr.Gateway carrying the processor's message
	*/
	CancelSubscription(context context.Context, subscriptionID string) (*stripe.Subscription, error)
}

// # Stripe Implementation

// StripeGateway implements [Gateway] over the official Stripe API client.
//
// Every call is wrapped in a configurable deadline (GATEWAY_TIMEOUT). A
// processor outage therefore fails the request after the deadline instead
// of hanging it. No retry is attempted on failure.
type StripeGateway struct {
	api        *client.API
	timeout    time.Duration
	successURL string
	cancelURL  string
}

// NewStripeGateway constructs a [StripeGateway] for the given secret key.
//
// The frontendBaseURL is used to build the checkout redirect targets.
func NewStripeGateway(secretKey, frontendBaseURL string, timeout time.Duration) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeGateway{
		api:        api,
		timeout:    timeout,
		successURL: frontendBaseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  frontendBaseURL + "/billing/cancelled",
	}
}

// CreateCheckoutSession opens a one-time payment checkout session.
//
// Amount and currency are forwarded without semantic validation; the
// processor is the source of truth for validity.
func (gateway *StripeGateway) CreateCheckoutSession(parent context.Context, amount int64, currency string) (*stripe.CheckoutSession, error) {
	callContext, cancel := context.WithTimeout(parent, gateway.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: callContext},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Subly one-time payment"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(gateway.successURL),
		CancelURL:  stripe.String(gateway.cancelURL),
	}

	session, err := gateway.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, wrapGatewayErr(err)
	}

	return session, nil
}

// CreateSubscription subscribes a customer to a recurring price.
func (gateway *StripeGateway) CreateSubscription(parent context.Context, customerID, priceID string) (*stripe.Subscription, error) {
	callContext, cancel := context.WithTimeout(parent, gateway.timeout)
	defer cancel()

	params := &stripe.SubscriptionParams{
		Params:   stripe.Params{Context: callContext},
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}

	subscription, err := gateway.api.Subscriptions.New(params)
	if err != nil {
		return nil, wrapGatewayErr(err)
	}

	return subscription, nil
}

// CancelSubscription cancels a subscription immediately.
func (gateway *StripeGateway) CancelSubscription(parent context.Context, subscriptionID string) (*stripe.Subscription, error) {
	callContext, cancel := context.WithTimeout(parent, gateway.timeout)
	defer cancel()

	params := &stripe.SubscriptionCancelParams{
		Params: stripe.Params{Context: callContext},
	}

	subscription, err := gateway.api.Subscriptions.Cancel(subscriptionID, params)
	if err != nil {
		return nil, wrapGatewayErr(err)
	}

	return subscription, nil
}

// wrapGatewayErr maps a Stripe client error to the domain error type.
//
// The processor's own message and HTTP status are preserved verbatim since
// the frontend treats them as part of the contract. Transport failures
// without a processor response fall back to 502.
func wrapGatewayErr(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return apperr.Gateway(stripeErr.HTTPStatusCode, stripeErr.Msg, err)
	}

	return apperr.Gateway(0, err.Error(), err)
}
