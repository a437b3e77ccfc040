// Copyright (c) 2026 Subly. All rights reserved.

package billing_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublyhq/subly/internal/billing"
	"github.com/sublyhq/subly/internal/platform/apperr"
	"github.com/sublyhq/subly/internal/platform/middleware"
	"github.com/sublyhq/subly/internal/platform/sec"
)

// # Test Doubles

// checkoutCall records the arguments of one gateway invocation.
type checkoutCall struct {
	amount   int64
	currency string
}

// mockGateway implements [billing.Gateway] and records every call.
type mockGateway struct {
	mu            sync.Mutex
	checkoutCalls []checkoutCall
	failWith      error
}

func (g *mockGateway) CreateCheckoutSession(_ context.Context, amount int64, currency string) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	g.checkoutCalls = append(g.checkoutCalls, checkoutCall{amount: amount, currency: currency})
	return &stripe.CheckoutSession{ID: fmt.Sprintf("cs_test_%d", len(g.checkoutCalls))}, nil
}

func (g *mockGateway) CreateSubscription(_ context.Context, customerID, priceID string) (*stripe.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	return &stripe.Subscription{ID: "sub_test_1", Customer: &stripe.Customer{ID: customerID}}, nil
}

func (g *mockGateway) CancelSubscription(_ context.Context, subscriptionID string) (*stripe.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	return &stripe.Subscription{ID: subscriptionID, Status: stripe.SubscriptionStatusCanceled}, nil
}

func (g *mockGateway) calls() []checkoutCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]checkoutCall, len(g.checkoutCalls))
	copy(out, g.checkoutCalls)
	return out
}

// staticVerifier accepts a fixed set of bearer tokens.
type staticVerifier struct {
	valid map[string]*sec.AuthClaims
}

func (v *staticVerifier) VerifyToken(tokenStr string) (*sec.AuthClaims, error) {
	if claims, ok := v.valid[tokenStr]; ok {
		return claims, nil
	}
	return nil, errors.New("token signature verification failed")
}

// # Fixtures

// newPaymentServer assembles the payment routes behind the real
// authentication middleware, mirroring the production router layout.
func newPaymentServer(t *testing.T, gateway billing.Gateway) (*httptest.Server, *staticVerifier) {
	t.Helper()

	verifier := billing.NewVerifier(testWebhookSecret)
	dispatcher := billing.NewDispatcher(slog.Default())
	service := billing.NewService(gateway, verifier, dispatcher, slog.Default())
	handler := billing.NewHandler(service)

	tokenVerifier := &staticVerifier{valid: map[string]*sec.AuthClaims{
		"user-token": {UserID: "u1", Username: "mika", Role: "user"},
	}}

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(tokenVerifier))
	router.Mount("/api/v1/payment", handler.Routes())

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, tokenVerifier
}

func postJSON(t *testing.T, url, bearer, body string) *http.Response {
	t.Helper()
	request, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	request.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}
	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	return response
}

func decodeBody(t *testing.T, response *http.Response, target any) {
	t.Helper()
	defer response.Body.Close()
	require.NoError(t, json.NewDecoder(response.Body).Decode(target))
}

// # Checkout Path

/*
TestPaymentAPI_CreateCheckoutSession verifies that an authenticated request
reaches the gateway with the submitted amount and currency and that the
processor response is passed through inside the data envelope.
*/
func TestPaymentAPI_CreateCheckoutSession(t *testing.T) {
	gateway := &mockGateway{}
	server, _ := newPaymentServer(t, gateway)

	response := postJSON(t, server.URL+"/api/v1/payment/create-checkout-session",
		"user-token", `{"amount": 1999, "currency": "usd"}`)

	assert.Equal(t, http.StatusOK, response.StatusCode)

	var body struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	decodeBody(t, response, &body)
	assert.Equal(t, "cs_test_1", body.Data.ID)

	calls := gateway.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, int64(1999), calls[0].amount)
	assert.Equal(t, "usd", calls[0].currency)
}

/*
TestPaymentAPI_Unauthenticated verifies that requests without a usable
credential never reach the gateway.
*/
func TestPaymentAPI_Unauthenticated(t *testing.T) {
	tests := []struct {
		name       string
		bearer     string
		wantStatus int
		wantCode   string
	}{
		{"no_credential", "", http.StatusUnauthorized, "MISSING_CREDENTIAL"},
		{"invalid_token", "forged-token", http.StatusUnauthorized, "INVALID_CREDENTIAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &mockGateway{}
			server, _ := newPaymentServer(t, gateway)

			response := postJSON(t, server.URL+"/api/v1/payment/create-checkout-session",
				tt.bearer, `{"amount": 1999, "currency": "usd"}`)

			assert.Equal(t, tt.wantStatus, response.StatusCode)

			var body struct {
				Code string `json:"code"`
			}
			decodeBody(t, response, &body)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Empty(t, gateway.calls(), "gateway must not be invoked")
		})
	}
}

/*
TestPaymentAPI_InsufficientRole verifies that a valid identity whose role
does not reach the user level is rejected before the gateway.
*/
func TestPaymentAPI_InsufficientRole(t *testing.T) {
	gateway := &mockGateway{}
	server, tokenVerifier := newPaymentServer(t, gateway)
	tokenVerifier.valid["odd-token"] = &sec.AuthClaims{UserID: "u9", Username: "odd", Role: "ghost"}

	response := postJSON(t, server.URL+"/api/v1/payment/create-checkout-session",
		"odd-token", `{"amount": 1999, "currency": "usd"}`)

	assert.Equal(t, http.StatusForbidden, response.StatusCode)

	var body struct {
		Code string `json:"code"`
	}
	decodeBody(t, response, &body)
	assert.Equal(t, "FORBIDDEN", body.Code)
	assert.Empty(t, gateway.calls())
}

/*
TestPaymentAPI_GatewayError verifies that processor failures surface with
the processor's status and message preserved.
*/
func TestPaymentAPI_GatewayError(t *testing.T) {
	gateway := &mockGateway{failWith: apperr.Gateway(
		http.StatusPaymentRequired, "Your card was declined.", errors.New("card_declined"),
	)}
	server, _ := newPaymentServer(t, gateway)

	response := postJSON(t, server.URL+"/api/v1/payment/create-checkout-session",
		"user-token", `{"amount": 1999, "currency": "usd"}`)

	assert.Equal(t, http.StatusPaymentRequired, response.StatusCode)

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	decodeBody(t, response, &body)
	assert.Equal(t, "GATEWAY_ERROR", body.Code)
	assert.Equal(t, "Your card was declined.", body.Error)
}

/*
TestPaymentAPI_ConcurrentCheckouts verifies that concurrent checkout
requests each reach the gateway exactly once with their own arguments.
*/
func TestPaymentAPI_ConcurrentCheckouts(t *testing.T) {
	gateway := &mockGateway{}
	server, _ := newPaymentServer(t, gateway)

	amounts := []int64{100, 200, 300, 400, 500}

	var wg sync.WaitGroup
	for _, amount := range amounts {
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			response := postJSON(t, server.URL+"/api/v1/payment/create-checkout-session",
				"user-token", fmt.Sprintf(`{"amount": %d, "currency": "usd"}`, amount))
			assert.Equal(t, http.StatusOK, response.StatusCode)
			response.Body.Close()
		}(amount)
	}
	wg.Wait()

	calls := gateway.calls()
	require.Len(t, calls, len(amounts))

	seen := map[int64]int{}
	for _, call := range calls {
		seen[call.amount]++
		assert.Equal(t, "usd", call.currency)
	}
	for _, amount := range amounts {
		assert.Equal(t, 1, seen[amount], "amount %d must reach the gateway exactly once", amount)
	}
}

// # Subscription Path

/*
TestPaymentAPI_CreateSubscription verifies the camelCase request contract
and the envelope of the subscription response.
*/
func TestPaymentAPI_CreateSubscription(t *testing.T) {
	gateway := &mockGateway{}
	server, _ := newPaymentServer(t, gateway)

	response := postJSON(t, server.URL+"/api/v1/payment/create-subscription",
		"user-token", `{"customerId": "cus_1", "priceId": "price_1"}`)

	assert.Equal(t, http.StatusOK, response.StatusCode)

	var body struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	decodeBody(t, response, &body)
	assert.Equal(t, "sub_test_1", body.Data.ID)
}

/*
TestPaymentAPI_ValidationErrors verifies that missing required fields are
rejected before the gateway is reached.
*/
func TestPaymentAPI_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{"subscription_missing_customer", "/create-subscription", `{"priceId": "price_1"}`},
		{"subscription_missing_price", "/create-subscription", `{"customerId": "cus_1"}`},
		{"cancel_missing_id", "/cancel-subscription", `{}`},
		{"checkout_missing_currency", "/create-checkout-session", `{"amount": 100}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &mockGateway{}
			server, _ := newPaymentServer(t, gateway)

			response := postJSON(t, server.URL+"/api/v1/payment"+tt.path, "user-token", tt.body)

			assert.Equal(t, http.StatusBadRequest, response.StatusCode)

			var body struct {
				Code string `json:"code"`
			}
			decodeBody(t, response, &body)
			assert.Equal(t, "VALIDATION_ERROR", body.Code)
			assert.Empty(t, gateway.calls())
		})
	}
}

// # Webhook Path

/*
TestPaymentAPI_Webhook verifies that a correctly signed webhook is
acknowledged with the bare {"received": true} object.
*/
func TestPaymentAPI_Webhook(t *testing.T) {
	gateway := &mockGateway{}
	server, _ := newPaymentServer(t, gateway)

	header := signPayload(paymentIntentPayload, time.Now(), testWebhookSecret)

	request, err := http.NewRequest(http.MethodPost,
		server.URL+"/api/v1/payment/webhook", strings.NewReader(string(paymentIntentPayload)))
	require.NoError(t, err)
	request.Header.Set("Stripe-Signature", header)

	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, response.StatusCode)

	var ack map[string]any
	decodeBody(t, response, &ack)
	assert.Equal(t, map[string]any{"received": true}, ack)
}

/*
TestPaymentAPI_Webhook_BadSignature verifies that a tampered or unsigned
payload is rejected with the webhook error contract.
*/
func TestPaymentAPI_Webhook_BadSignature(t *testing.T) {
	gateway := &mockGateway{}
	server, _ := newPaymentServer(t, gateway)

	tests := []struct {
		name      string
		signature string
	}{
		{"missing_header", ""},
		{"wrong_secret", signPayload(paymentIntentPayload, time.Now(), "whsec_other")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request, err := http.NewRequest(http.MethodPost,
				server.URL+"/api/v1/payment/webhook", strings.NewReader(string(paymentIntentPayload)))
			require.NoError(t, err)
			if tt.signature != "" {
				request.Header.Set("Stripe-Signature", tt.signature)
			}

			response, err := http.DefaultClient.Do(request)
			require.NoError(t, err)

			assert.Equal(t, http.StatusBadRequest, response.StatusCode)

			var body struct {
				Error string `json:"error"`
				Code  string `json:"code"`
			}
			decodeBody(t, response, &body)
			assert.Equal(t, "WEBHOOK_VERIFICATION_ERROR", body.Code)
			assert.True(t, strings.HasPrefix(body.Error, "Webhook Error:"))
		})
	}
}
