// Copyright (c) 2026 Subly. All rights reserved.

package billing

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sublyhq/subly/internal/platform/apperr"
	"github.com/sublyhq/subly/internal/platform/constants"
	"github.com/sublyhq/subly/internal/platform/middleware"
	requestutil "github.com/sublyhq/subly/internal/platform/request"
	"github.com/sublyhq/subly/internal/platform/respond"
	"github.com/sublyhq/subly/internal/platform/sec"
	"github.com/sublyhq/subly/internal/platform/validate"
)

// maxWebhookBodyBytes caps inbound webhook payloads. Stripe events stay far
// below this; anything larger is hostile.
const maxWebhookBodyBytes = 65536

// Handler implements the HTTP layer for the billing domain.
type Handler struct {
	billingService *Service
}

// NewHandler constructs a new billing [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{billingService: service}
}

// Routes returns a [chi.Router] configured with the payment endpoints.
//
// # Endpoints
//   - POST /create-checkout-session : Opens a checkout session (role: user).
//   - POST /create-subscription    : Starts a subscription (role: user).
//   - POST /cancel-subscription    : Cancels a subscription (role: user).
//   - POST /webhook                : Inbound processor notifications (signature auth).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Webhook path authenticates by signature, never by bearer token
	router.Post("/webhook", handler.webhook)

	// Gateway operations require an authenticated caller with the user role
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleUser))
		r.Post("/create-checkout-session", handler.createCheckoutSession)
		r.Post("/create-subscription", handler.createSubscription)
		r.Post("/cancel-subscription", handler.cancelSubscription)
	})

	return router
}

// # Request Payloads

type createCheckoutSessionRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type createSubscriptionRequest struct {
	CustomerID string `json:"customerId"`
	PriceID    string `json:"priceId"`
}

type cancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId"`
}

/*
CreateCheckoutSession opens a one-time payment checkout session.

POST /api/v1/payment/create-checkout-session

Description: Forwards amount and currency verbatim to the payment
processor and returns its session object unmodified. Amounts are not
semantically validated here; the processor is the source of truth.

Request:
  - Body: createCheckoutSessionRequest (Amount, Currency)

Response:
  - 200: stripe.CheckoutSession: Processor response
  - 401: MissingCredential/InvalidCredential: Authentication failure
  - 403: ErrForbidden: Caller lacks the user role
  - 4xx/502: GatewayError: Processor failure, message preserved
*/
func (handler *Handler) createCheckoutSession(writer http.ResponseWriter, request *http.Request) {
	if _, err := requestutil.RequiredClaims(request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createCheckoutSessionRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("currency", input.Currency)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.billingService.CreateCheckoutSession(request.Context(), input.Amount, input.Currency)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
CreateSubscription starts a recurring subscription for a customer.

POST /api/v1/payment/create-subscription

Request:
  - Body: createSubscriptionRequest (CustomerID, PriceID)

Response:
  - 200: stripe.Subscription: Processor response
  - 403: ErrForbidden: Caller lacks the user role
  - 4xx/502: GatewayError: Processor failure, message preserved
*/
func (handler *Handler) createSubscription(writer http.ResponseWriter, request *http.Request) {
	if _, err := requestutil.RequiredClaims(request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createSubscriptionRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("customerId", input.CustomerID).
		Required("priceId", input.PriceID)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	subscription, err := handler.billingService.CreateSubscription(request.Context(), input.CustomerID, input.PriceID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, subscription)
}

/*
CancelSubscription cancels an active subscription immediately.

POST /api/v1/payment/cancel-subscription

Request:
  - Body: cancelSubscriptionRequest (SubscriptionID)

Response:
  - 200: stripe.Subscription: Processor response
  - 403: ErrForbidden: Caller lacks the user role
  - 4xx/502: GatewayError: Processor failure, message preserved
*/
func (handler *Handler) cancelSubscription(writer http.ResponseWriter, request *http.Request) {
	if _, err := requestutil.RequiredClaims(request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input cancelSubscriptionRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("subscriptionId", input.SubscriptionID)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	subscription, err := handler.billingService.CancelSubscription(request.Context(), input.SubscriptionID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, subscription)
}

/*
Webhook receives signed event notifications from the payment processor.

POST /api/v1/payment/webhook

Description: Reads the raw body, verifies the Stripe-Signature header
against the shared secret, and dispatches the decoded event. The response
is the bare acknowledgment object, not the standard data envelope, because
the processor expects exactly {"received": true}.

Response:
  - 200: {"received": true}: Event verified and dispatched
  - 400: WebhookVerificationError: "Webhook Error: <reason>"
*/
func (handler *Handler) webhook(writer http.ResponseWriter, request *http.Request) {
	request.Body = http.MaxBytesReader(writer, request.Body, maxWebhookBodyBytes)

	payload, err := io.ReadAll(request.Body)
	if err != nil {
		respond.Error(writer, request, apperr.WebhookVerification(err))
		return
	}

	signature := request.Header.Get(constants.HeaderStripeSignature)

	ack, err := handler.billingService.HandleWebhook(request.Context(), payload, signature)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, ack)
}
