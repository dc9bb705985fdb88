package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler(t *testing.T, expectAccount int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if expectAccount != 0 {
			id, ok := AccountID(r.Context())
			assert.True(t, ok)
			assert.Equal(t, expectAccount, id)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware(t *testing.T) {
	jwtService := NewJWTService(testSecret)
	seller, _ := jwtService.GenerateJWT(42, RoleSeller, time.Now().Add(time.Hour))

	tests := []struct {
		name         string
		header       string
		expectedCode int
	}{
		{name: "Valid token", header: "Bearer " + seller, expectedCode: http.StatusOK},
		{name: "Missing header", header: "", expectedCode: http.StatusUnauthorized},
		{name: "Wrong scheme", header: "Basic " + seller, expectedCode: http.StatusUnauthorized},
		{name: "Invalid token", header: "Bearer nope", expectedCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/user/balance", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			Middleware(jwtService)(okHandler(t, 42)).ServeHTTP(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestAdminOnly(t *testing.T) {
	tests := []struct {
		name         string
		role         any
		expectedCode int
	}{
		{name: "Admin", role: RoleAdmin, expectedCode: http.StatusOK},
		{name: "Seller", role: RoleSeller, expectedCode: http.StatusForbidden},
		{name: "No role", role: nil, expectedCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/admin/payouts/1/approve", nil)
			if tt.role != nil {
				r = r.WithContext(context.WithValue(r.Context(), RoleKey, tt.role))
			}
			w := httptest.NewRecorder()

			AdminOnly(okHandler(t, 0)).ServeHTTP(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestInternalToken(t *testing.T) {
	hasher := &HashService{}
	hash, err := hasher.HashToken("order-module-secret")
	assert.NoError(t, err)

	tests := []struct {
		name         string
		configured   string
		token        string
		expectedCode int
	}{
		{name: "Matching token", configured: hash, token: "order-module-secret", expectedCode: http.StatusOK},
		{name: "Wrong token", configured: hash, token: "guess", expectedCode: http.StatusUnauthorized},
		{name: "Missing token", configured: hash, token: "", expectedCode: http.StatusUnauthorized},
		{name: "Nothing configured", configured: "", token: "order-module-secret", expectedCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/internal/orders/1/paid", nil)
			if tt.token != "" {
				r.Header.Set(InternalTokenHeader, tt.token)
			}
			w := httptest.NewRecorder()

			InternalToken(hasher, tt.configured)(okHandler(t, 0)).ServeHTTP(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	handler := limiter.Middleware(okHandler(t, 0))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodGet, "/api/user/balance", nil)
		r = r.WithContext(context.WithValue(r.Context(), AccountIDKey, int64(7)))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// other callers have their own bucket
	r := httptest.NewRequest(http.MethodGet, "/api/user/balance", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}
