package payouts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/settlement/internal/domain"
	"github.com/GlebRadaev/settlement/internal/dto"
	"github.com/GlebRadaev/settlement/pkg/auth"
)

func NewMock(t *testing.T) (*PayoutHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	return New(service), service
}

func request(method, target, body string, accountID int64, payoutID string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	ctx := context.WithValue(r.Context(), auth.AccountIDKey, accountID)
	if payoutID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", payoutID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return r.WithContext(ctx)
}

var bank = domain.PayoutMethod{Type: domain.PayoutMethodBank, IBAN: "DE89370400440532013000"}

func TestCreatePayoutHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Payout requested",
			body: `{"amount":2500,"method":{"type":"bank","iban":"DE89370400440532013000"}}`,
			prepareMock: func() {
				service.EXPECT().CreatePayoutRequest(gomock.Any(), int64(1), int64(2500), bank).
					Return(&domain.PayoutRequest{ID: 7, AccountID: 1, Amount: 2500, Method: bank, Status: domain.PayoutPending}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:          "Malformed body",
			body:          `{"amount":`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "invalid request body",
		},
		{
			name:         "Non-positive amount",
			body:         `{"amount":-5,"method":{"type":"bank","iban":"DE89370400440532013000"}}`,
			prepareMock:  func() {},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name: "Insufficient balance",
			body: `{"amount":2500,"method":{"type":"bank","iban":"DE89370400440532013000"}}`,
			prepareMock: func() {
				service.EXPECT().CreatePayoutRequest(gomock.Any(), int64(1), int64(2500), bank).
					Return(nil, &domain.InsufficientBalanceError{Available: 1234, Requested: 2500})
			},
			expectedCode:  http.StatusPaymentRequired,
			expectedError: "available: 12.34",
		},
		{
			name: "Method rejected by the service",
			body: `{"amount":2500,"method":{"type":"paypal","email":"nope"}}`,
			prepareMock: func() {
				service.EXPECT().CreatePayoutRequest(gomock.Any(), int64(1), int64(2500), domain.PayoutMethod{Type: "paypal", Email: "nope"}).
					Return(nil, domain.NewValidationError("method.email", "invalid email"))
			},
			expectedCode:  http.StatusUnprocessableEntity,
			expectedError: "invalid email",
		},
		{
			name: "Internal server error",
			body: `{"amount":2500,"method":{"type":"bank","iban":"DE89370400440532013000"}}`,
			prepareMock: func() {
				service.EXPECT().CreatePayoutRequest(gomock.Any(), int64(1), int64(2500), bank).Return(nil, errors.New("error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			handler.CreatePayout(w, request(http.MethodPost, "/api/user/payouts", tt.body, 1, ""))

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
			if tt.expectedCode == http.StatusCreated {
				var body dto.PayoutResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Equal(t, "****3000", body.Destination)
				assert.Equal(t, "PENDING", body.Status)
			}
		})
	}
}

func TestGetPayoutsHandler(t *testing.T) {
	handler, service := NewMock(t)

	service.EXPECT().ListPayouts(gomock.Any(), int64(1)).
		Return([]domain.PayoutRequest{{ID: 7, AccountID: 1, Amount: 2500, Method: bank, Status: domain.PayoutCompleted}}, nil)
	w := httptest.NewRecorder()
	handler.GetPayouts(w, request(http.MethodGet, "/api/user/payouts", "", 1, ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"COMPLETED"`)

	service.EXPECT().ListPayouts(gomock.Any(), int64(2)).Return(nil, nil)
	w = httptest.NewRecorder()
	handler.GetPayouts(w, request(http.MethodGet, "/api/user/payouts", "", 2, ""))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGetPayoutHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name         string
		payoutID     string
		prepareMock  func()
		expectedCode int
	}{
		{
			name:     "Own payout",
			payoutID: "7",
			prepareMock: func() {
				service.EXPECT().GetPayout(gomock.Any(), int64(7)).Return(&domain.PayoutRequest{ID: 7, AccountID: 1, Method: bank}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:     "Someone else's payout",
			payoutID: "8",
			prepareMock: func() {
				service.EXPECT().GetPayout(gomock.Any(), int64(8)).Return(&domain.PayoutRequest{ID: 8, AccountID: 2, Method: bank}, nil)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "Malformed id",
			payoutID:     "seven",
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:     "Unknown payout",
			payoutID: "9",
			prepareMock: func() {
				service.EXPECT().GetPayout(gomock.Any(), int64(9)).Return(nil, domain.NotFoundf("payout 9"))
			},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			handler.GetPayout(w, request(http.MethodGet, "/api/user/payouts/"+tt.payoutID, "", 1, tt.payoutID))
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestCreatePayoutHandler_SurvivesClientDisconnect(t *testing.T) {
	handler, service := NewMock(t)

	service.EXPECT().CreatePayoutRequest(gomock.Any(), int64(1), int64(2500), bank).
		DoAndReturn(func(ctx context.Context, _, _ int64, _ domain.PayoutMethod) (*domain.PayoutRequest, error) {
			assert.NoError(t, ctx.Err())
			return &domain.PayoutRequest{ID: 7, AccountID: 1, Amount: 2500, Method: bank, Status: domain.PayoutPending}, nil
		})

	r := request(http.MethodPost, "/api/user/payouts", `{"amount":2500,"method":{"type":"bank","iban":"DE89370400440532013000"}}`, 1, "")
	ctx, cancel := context.WithCancel(r.Context())
	cancel()
	w := httptest.NewRecorder()
	handler.CreatePayout(w, r.WithContext(ctx))
	assert.Equal(t, http.StatusCreated, w.Code)
}
