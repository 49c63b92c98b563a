package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"orders-api/internal/auth"
	"orders-api/internal/middleware"
	"orders-api/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	buyerEmail = "buyer@example.com"
	adminEmail = "admin@example.com"
)

// withURLParams attaches chi route parameters to req.
func withURLParams(req *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// withClaims authenticates req as email with role.
func withClaims(req *http.Request, email string, role model.UserType) *http.Request {
	return req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{Email: email, Role: role}))
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedCode    string
		expectedMessage string
	}{
		{
			name:            "not found",
			err:             model.NotFound("product"),
			expectedStatus:  http.StatusNotFound,
			expectedCode:    model.ErrCodeNotFound,
			expectedMessage: "product does not exist",
		},
		{
			name:            "business rule",
			err:             model.InsufficientStock("Mouse"),
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    model.ErrCodeInsufficientStock,
			expectedMessage: "sorry, we do not have enough stock of Mouse; take a smaller quantity",
		},
		{
			name:            "wrapped domain error",
			err:             fmt.Errorf("checkout: %w", model.ErrEmptyCart),
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    model.ErrCodeEmptyCart,
			expectedMessage: "there are no items in the order",
		},
		{
			name:            "unauthorised",
			err:             model.ErrUnauthorised,
			expectedStatus:  http.StatusUnauthorized,
			expectedCode:    model.ErrCodeUnauthorised,
			expectedMessage: "authentication required",
		},
		{
			name:            "unexpected error is not leaked",
			err:             errors.New("pq: connection refused to 10.0.0.3"),
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    model.ErrCodeInternalError,
			expectedMessage: "an unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *http.Request
			h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r
				writeServiceError(w, r, tt.err, zerolog.Nop())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			req.Header.Set(middleware.RequestIDHeader, "corr-1")
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			require.NotNil(t, seen)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			body := decodeErrorBody(t, w)
			assert.Equal(t, tt.expectedCode, body.Error)
			assert.Equal(t, tt.expectedMessage, body.Message)
			assert.Equal(t, "corr-1", body.CorrelationID)
		})
	}
}

func TestPaginationFromQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		expected  model.Pagination
		expectErr bool
	}{
		{
			name:     "defaults",
			query:    "",
			expected: model.Pagination{Page: 1, RecordsNumber: 10},
		},
		{
			name:  "all parameters",
			query: "?id=3&page=2&recordsnumber=25&filter=%20lap%20&categoryFilter=tec",
			expected: model.Pagination{
				ID:             3,
				Page:           2,
				RecordsNumber:  25,
				Filter:         "lap",
				CategoryFilter: "tec",
			},
		},
		{
			name:     "page size is capped",
			query:    "?recordsnumber=5000",
			expected: model.Pagination{Page: 1, RecordsNumber: 100},
		},
		{
			name:      "invalid page",
			query:     "?page=abc",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/products"+tt.query, nil)

			p, err := paginationFromQuery(req)

			if tt.expectErr {
				assert.ErrorIs(t, err, model.ValidationFailed(""))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedCode string
		contains     string
	}{
		{name: "valid", body: `{"email":"a@b.co","password":"123456"}`},
		{name: "malformed json", body: `{"email":`, expectedCode: model.ErrCodeInvalidJSON},
		{name: "missing field", body: `{"email":"a@b.co"}`, expectedCode: model.ErrCodeValidationFailed, contains: "Password failed on required"},
		{name: "bad email", body: `{"email":"nope","password":"123456"}`, expectedCode: model.ErrCodeValidationFailed, contains: "Email failed on email"},
		{name: "short password", body: `{"email":"a@b.co","password":"123"}`, expectedCode: model.ErrCodeValidationFailed, contains: "Password failed on min=6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var dst model.LoginRequest
			err := decode(w, req, &dst)

			if tt.expectedCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "a@b.co", dst.Email)
				return
			}
			de, ok := model.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, tt.expectedCode, de.Code)
			assert.Contains(t, de.Message, tt.contains)
		})
	}
}

func TestDecodeOptional(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expected     model.CheckoutRequest
		expectedCode string
	}{
		{name: "empty body", body: ""},
		{name: "remarks", body: `{"remarks":"ring twice"}`, expected: model.CheckoutRequest{Remarks: "ring twice"}},
		{name: "malformed json", body: `{"remarks":`, expectedCode: model.ErrCodeInvalidJSON},
		{name: "too long", body: `{"remarks":"` + strings.Repeat("x", 501) + `"}`, expectedCode: model.ErrCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var dst model.CheckoutRequest
			err := decodeOptional(w, req, &dst)

			if tt.expectedCode == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, dst)
				return
			}
			de, ok := model.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, tt.expectedCode, de.Code)
		})
	}
}

func TestValidator_SingleLine(t *testing.T) {
	req := model.UserUpdateRequest{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Document:    "1010",
		PhoneNumber: "300",
		Address:     "Calle 1",
		CityID:      1,
	}
	require.NoError(t, validate.Struct(req))

	for _, name := range []string{"Ada\r\nBcc: x@example.com", "Ada\nX", "Ada\rX"} {
		req.FirstName = name
		err := validationError(validate.Struct(req))
		de, ok := model.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, model.ErrCodeValidationFailed, de.Code)
		assert.Contains(t, de.Message, "FirstName failed on singleline")
	}
}

func TestCaller(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := caller(req)
	assert.ErrorIs(t, err, model.ErrUnauthorised)

	c, err := caller(withClaims(req, adminEmail, model.UserTypeAdmin))
	require.NoError(t, err)
	assert.Equal(t, adminEmail, c.Email)
	assert.True(t, c.IsAdmin())
}
