package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orders-api/internal/auth"
	"orders-api/internal/handler"
	"orders-api/internal/metrics"
	"orders-api/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRouter wires handlers without services; only requests rejected
// before reaching a service are exercised here.
func newTestRouter(t *testing.T, health func(context.Context) error) (http.Handler, *auth.TokenService) {
	t.Helper()
	logger := zerolog.Nop()
	tokens := auth.NewTokenService("router-test-secret", time.Hour)

	h := Handlers{
		Countries:  handler.NewReferenceHandler[model.Country]("country", nil, logger),
		States:     handler.NewReferenceHandler[model.State]("state", nil, logger),
		Cities:     handler.NewReferenceHandler[model.City]("city", nil, logger),
		Categories: handler.NewReferenceHandler[model.Category]("category", nil, logger),
		Products:   handler.NewProductHandler(nil, logger),
		Carts:      handler.NewCartHandler(nil, logger),
		Orders:     handler.NewOrderHandler(nil, logger),
		Accounts:   handler.NewAccountHandler(nil, logger),
	}
	opts := Options{
		Tokens:  tokens,
		Metrics: metrics.New(),
		Health:  health,
	}
	return New(h, opts, logger), tokens
}

func bearer(t *testing.T, tokens *auth.TokenService, role model.UserType) string {
	t.Helper()
	token, err := tokens.IssueAccessToken(&model.User{Email: "someone@example.com", UserType: role})
	require.NoError(t, err)
	return "Bearer " + token.Token
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, func(context.Context) error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	r, _ = newTestRouter(t, func(context.Context) error { return errors.New("connection refused") })
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unhealthy")
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "orders_http_requests_total")
}

func TestRouteGuards(t *testing.T) {
	r, tokens := newTestRouter(t, nil)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		role           model.UserType
		expectedStatus int
	}{
		{name: "anonymous order list", method: http.MethodGet, path: "/api/orders", expectedStatus: http.StatusUnauthorized},
		{name: "anonymous checkout", method: http.MethodPost, path: "/api/orders", body: `{}`, expectedStatus: http.StatusUnauthorized},
		{name: "anonymous cart", method: http.MethodGet, path: "/api/temporalOrders/my", expectedStatus: http.StatusUnauthorized},
		{name: "anonymous profile", method: http.MethodGet, path: "/api/accounts", expectedStatus: http.StatusUnauthorized},
		{name: "anonymous change password", method: http.MethodPost, path: "/api/accounts/changePassword", body: `{}`, expectedStatus: http.StatusUnauthorized},
		{name: "anonymous country create", method: http.MethodPost, path: "/api/countries", body: `{"name":"Chile"}`, expectedStatus: http.StatusUnauthorized},
		{name: "user country create", method: http.MethodPost, path: "/api/countries", body: `{"name":"Chile"}`, role: model.UserTypeUser, expectedStatus: http.StatusForbidden},
		{name: "user product delete", method: http.MethodDelete, path: "/api/products/1", role: model.UserTypeUser, expectedStatus: http.StatusForbidden},
		{name: "user account list", method: http.MethodGet, path: "/api/accounts/all", role: model.UserTypeUser, expectedStatus: http.StatusForbidden},
		{name: "admin country invalid body", method: http.MethodPost, path: "/api/countries", body: `not json`, role: model.UserTypeAdmin, expectedStatus: http.StatusBadRequest},
		{name: "admin category missing name", method: http.MethodPut, path: "/api/categories", body: `{"id":1}`, role: model.UserTypeAdmin, expectedStatus: http.StatusBadRequest},
		{name: "user cart line bad id", method: http.MethodGet, path: "/api/temporalOrders/abc", role: model.UserTypeUser, expectedStatus: http.StatusBadRequest},
		{name: "user order bad id", method: http.MethodGet, path: "/api/orders/abc", role: model.UserTypeUser, expectedStatus: http.StatusBadRequest},
		{name: "anonymous product bad id", method: http.MethodGet, path: "/api/products/abc", expectedStatus: http.StatusBadRequest},
		{name: "confirm email without token", method: http.MethodGet, path: "/api/accounts/ConfirmEmail?userId=1", expectedStatus: http.StatusBadRequest},
		{name: "unknown route", method: http.MethodGet, path: "/api/unknown", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.role != "" {
				req.Header.Set("Authorization", bearer(t, tokens, tt.role))
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestPreflight(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
