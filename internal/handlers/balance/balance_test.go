package balance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/settlement/internal/domain"
	"github.com/GlebRadaev/settlement/internal/dto"
	"github.com/GlebRadaev/settlement/internal/service/payoutservice"
	"github.com/GlebRadaev/settlement/pkg/auth"
)

func NewMock(t *testing.T) (*BalanceHandler, *MockLedger, *MockPayouts) {
	ctrl := gomock.NewController(t)
	ledger := NewMockLedger(ctrl)
	payouts := NewMockPayouts(ctrl)
	return New(ledger, payouts), ledger, payouts
}

func withAccount(r *http.Request, id int64) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), auth.AccountIDKey, id))
}

func TestGetBalanceHandler(t *testing.T) {
	handler, _, payouts := NewMock(t)

	tests := []struct {
		name         string
		prepareMock  func()
		expectedCode int
		expectedBody dto.BalanceResponseDTO
	}{
		{
			name: "Successful retrieval",
			prepareMock: func() {
				payouts.EXPECT().Balance(gomock.Any(), int64(1)).
					Return(&payoutservice.Balance{AccountID: 1, Current: 5000, Reserved: 1500, Available: 3500}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: dto.BalanceResponseDTO{Current: 5000, Reserved: 1500, Available: 3500},
		},
		{
			name: "Account not opened",
			prepareMock: func() {
				payouts.EXPECT().Balance(gomock.Any(), int64(1)).Return(nil, domain.NotFoundf("account 1"))
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "Internal server error",
			prepareMock: func() {
				payouts.EXPECT().Balance(gomock.Any(), int64(1)).Return(nil, errors.New("error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := withAccount(httptest.NewRequest(http.MethodGet, "/api/user/balance", nil), 1)
			w := httptest.NewRecorder()
			handler.GetBalance(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				var body dto.BalanceResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Equal(t, tt.expectedBody, body)
			}
		})
	}
}

func TestGetBalanceHandler_Unauthorized(t *testing.T) {
	handler, _, _ := NewMock(t)
	w := httptest.NewRecorder()
	handler.GetBalance(w, httptest.NewRequest(http.MethodGet, "/api/user/balance", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetTransactionsHandler(t *testing.T) {
	handler, ledger, _ := NewMock(t)
	createdAt := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		query        string
		prepareMock  func()
		expectedCode int
		expectedBody []dto.TransactionResponseDTO
	}{
		{
			name:  "Paged history",
			query: "?limit=10&offset=20",
			prepareMock: func() {
				ledger.EXPECT().GetTransactionHistory(gomock.Any(), int64(1), 10, 20).
					Return([]domain.Transaction{{
						ID: 5, Type: domain.TxCommissionEarned, Amount: 3000,
						Status: domain.TxStatusCompleted, ReferenceID: "2377225624", CreatedAt: createdAt,
					}}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: []dto.TransactionResponseDTO{{
				ID: 5, Type: "COMMISSION_EARNED", Amount: 3000, Status: "COMPLETED",
				ReferenceID: "2377225624", CreatedAt: createdAt,
			}},
		},
		{
			name:  "Defaults left to the service",
			query: "",
			prepareMock: func() {
				ledger.EXPECT().GetTransactionHistory(gomock.Any(), int64(1), 0, 0).Return(nil, nil)
			},
			expectedCode: http.StatusNoContent,
		},
		{
			name:         "Malformed limit",
			query:        "?limit=ten",
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Malformed offset",
			query:        "?offset=-x",
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:  "Unknown account",
			query: "",
			prepareMock: func() {
				ledger.EXPECT().GetTransactionHistory(gomock.Any(), int64(1), 0, 0).Return(nil, domain.NotFoundf("account 1"))
			},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := withAccount(httptest.NewRequest(http.MethodGet, "/api/user/transactions"+tt.query, nil), 1)
			w := httptest.NewRecorder()
			handler.GetTransactions(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedBody != nil {
				var body []dto.TransactionResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Equal(t, tt.expectedBody, body)
			}
		})
	}
}
