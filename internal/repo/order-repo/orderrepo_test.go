package orderrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"

	"github.com/GlebRadaev/settlement/internal/domain"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	t.Cleanup(mockDB.Close)
	return New(mockDB), mockDB
}

func TestRepository_FindByOrderNumber(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta(`SELECT id, order_number, buyer_id, total_amount, status, paid_at FROM orders WHERE order_number = $1`)
	paidAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name        string
		orderNumber string
		mockSetup   func()
		expectErr   bool
		result      *domain.Order
	}{
		{
			name:        "Order found",
			orderNumber: "ORD-1",
			mockSetup: func() {
				rows := pgxmock.NewRows([]string{"id", "order_number", "buyer_id", "total_amount", "status", "paid_at"}).
					AddRow(int64(1), "ORD-1", int64(10), int64(100000), "PAID", &paidAt)
				mock.ExpectQuery(query).WithArgs("ORD-1").WillReturnRows(rows)
			},
			result: &domain.Order{
				ID:          1,
				OrderNumber: "ORD-1",
				BuyerID:     10,
				TotalAmount: 100000,
				Status:      domain.OrderStatusPaid,
				PaidAt:      &paidAt,
			},
		},
		{
			name:        "Order not found",
			orderNumber: "ORD-404",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs("ORD-404").WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name:        "Database error",
			orderNumber: "ORD-1",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs("ORD-1").WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.FindByOrderNumber(context.Background(), tt.orderNumber)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.result, result)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
