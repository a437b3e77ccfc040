// Copyright (c) 2026 Subly. All rights reserved.

package account_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublyhq/subly/internal/platform/middleware"
	"github.com/sublyhq/subly/internal/platform/sec"
	"github.com/sublyhq/subly/internal/users/account"
)

// adminVerifier accepts a single admin bearer token.
type adminVerifier struct{}

func (adminVerifier) VerifyToken(tokenStr string) (*sec.AuthClaims, error) {
	if tokenStr == "admin-token" {
		return &sec.AuthClaims{UserID: "a1", Username: "root", Role: "admin"}, nil
	}
	return nil, errors.New("token signature verification failed")
}

// newAdminServer mounts the admin routes behind real authentication,
// mirroring the production router layout.
func newAdminServer(t *testing.T) *httptest.Server {
	t.Helper()

	service, _, _ := newTestService(t)
	handler := account.NewHandler(service)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(adminVerifier{}))
	router.Mount("/api/v1/admin", handler.AdminRoutes())

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func adminDo(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	request, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	request.Header.Set("Authorization", "Bearer admin-token")
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	return response
}

func adminErrorCode(t *testing.T, response *http.Response) string {
	t.Helper()
	defer response.Body.Close()
	var envelope struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&envelope))
	return envelope.Code
}

/*
TestAdminAPI_MalformedID verifies that a non-UUID account id is rejected as a
validation error before the service is reached.
*/
func TestAdminAPI_MalformedID(t *testing.T) {
	server := newAdminServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"get_user", http.MethodGet, "/users/not-a-uuid", ""},
		{"change_role", http.MethodPatch, "/users/not-a-uuid/role", `{"role": "admin"}`},
		{"delete_user", http.MethodDelete, "/users/not-a-uuid", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := adminDo(t, tt.method, server.URL+"/api/v1/admin"+tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, response.StatusCode)
			assert.Equal(t, "VALIDATION_ERROR", adminErrorCode(t, response))
		})
	}
}

/*
TestAdminAPI_UnknownID verifies that a well-formed but unknown account id
surfaces as not found, distinct from the malformed-id rejection.
*/
func TestAdminAPI_UnknownID(t *testing.T) {
	server := newAdminServer(t)

	response := adminDo(t, http.MethodGet,
		server.URL+"/api/v1/admin/users/0192b5e8-0000-7000-8000-000000000000", "")

	assert.Equal(t, http.StatusNotFound, response.StatusCode)
	assert.Equal(t, "NOT_FOUND", adminErrorCode(t, response))
}
