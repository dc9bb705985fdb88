package ledgerrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlebRadaev/settlement/internal/domain"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)
	return New(mockDB), mockDB
}

var (
	accountColumns = []string{"account_id", "current_balance", "created_at", "updated_at"}
	txColumns      = []string{"id", "account_id", "type", "amount", "status", "reference_id", "created_at", "updated_at"}
	now            = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
)

func TestRepository_LockAccount(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta(`FROM accounts WHERE account_id = $1 FOR UPDATE`)

	tests := []struct {
		name      string
		accountID int64
		mockSetup func()
		expectErr bool
		result    *domain.Account
	}{
		{
			name:      "Locks existing account",
			accountID: 7,
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs(int64(7)).
					WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(int64(7), int64(5000), now, now))
			},
			result: &domain.Account{AccountID: 7, CurrentBalance: 5000, CreatedAt: now, UpdatedAt: now},
		},
		{
			name:      "Missing account returns nil",
			accountID: 8,
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(int64(8)).WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name:      "Database error",
			accountID: 9,
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(int64(9)).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.LockAccount(context.Background(), tt.accountID)

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

func TestRepository_CreateAccount(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO accounts (account_id, current_balance) VALUES ($1, 0) ON CONFLICT (account_id)`)).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(int64(3), int64(0), now, now))

	account, err := repo.CreateAccount(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), account.AccountID)
	assert.Equal(t, int64(0), account.CurrentBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetBalance(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta(`UPDATE accounts SET current_balance = $1, updated_at = NOW() WHERE account_id = $2`)

	tests := []struct {
		name      string
		mockSetup func()
		expectErr error
	}{
		{
			name: "Updates balance",
			mockSetup: func() {
				mock.ExpectExec(query).WithArgs(int64(4200), int64(1)).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "Unknown account",
			mockSetup: func() {
				mock.ExpectExec(query).WithArgs(int64(4200), int64(1)).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			expectErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			err := repo.SetBalance(context.Background(), 1, 4200)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_FindTransaction(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta(`FROM ledger_transactions WHERE account_id = $1 AND reference_id = $2 AND type = $3`)

	t.Run("Existing key", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(int64(1), "ORD-1", "COMMISSION_EARNED").
			WillReturnRows(pgxmock.NewRows(txColumns).
				AddRow(int64(10), int64(1), "COMMISSION_EARNED", int64(3000), "COMPLETED", "ORD-1", now, now))

		tx, err := repo.FindTransaction(context.Background(), 1, "ORD-1", domain.TxCommissionEarned)
		require.NoError(t, err)
		assert.Equal(t, &domain.Transaction{
			ID:          10,
			AccountID:   1,
			Type:        domain.TxCommissionEarned,
			Amount:      3000,
			Status:      domain.TxStatusCompleted,
			ReferenceID: "ORD-1",
			CreatedAt:   now,
			UpdatedAt:   now,
		}, tx)
	})

	t.Run("Unknown key", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(int64(1), "ORD-2", "COMMISSION_EARNED").
			WillReturnError(pgx.ErrNoRows)

		tx, err := repo.FindTransaction(context.Background(), 1, "ORD-2", domain.TxCommissionEarned)
		assert.NoError(t, err)
		assert.Nil(t, tx)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertTransaction(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO ledger_transactions (account_id, type, amount, status, reference_id)`)).
		WithArgs(int64(1), "PAYOUT_REQUESTED", int64(5000), "PENDING", "payout:4").
		WillReturnRows(pgxmock.NewRows(txColumns).
			AddRow(int64(11), int64(1), "PAYOUT_REQUESTED", int64(5000), "PENDING", "payout:4", now, now))

	tx, err := repo.InsertTransaction(context.Background(), &domain.Transaction{
		AccountID:   1,
		Type:        domain.TxPayoutRequested,
		Amount:      5000,
		Status:      domain.TxStatusPending,
		ReferenceID: "payout:4",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), tx.ID)
	assert.Equal(t, domain.TxStatusPending, tx.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateTransactionStatus(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta(`UPDATE ledger_transactions SET status = $1, updated_at = NOW() WHERE id = $2 AND status = 'PENDING'`)

	mock.ExpectExec(query).WithArgs("COMPLETED", int64(11)).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.UpdateTransactionStatus(context.Background(), 11, domain.TxStatusCompleted))

	mock.ExpectExec(query).WithArgs("CANCELLED", int64(11)).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err := repo.UpdateTransactionStatus(context.Background(), 11, domain.TxStatusCancelled)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListTransactions(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM ledger_transactions WHERE account_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`)).
		WithArgs(int64(1), 50, 0).
		WillReturnRows(pgxmock.NewRows(txColumns).
			AddRow(int64(2), int64(1), "PAYOUT_COMPLETED", int64(1000), "COMPLETED", "payout:1", now, now).
			AddRow(int64(1), int64(1), "COMMISSION_EARNED", int64(3000), "COMPLETED", "ORD-1", now, now))

	txs, err := repo.ListTransactions(context.Background(), 1, 50, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, domain.TxPayoutCompleted, txs[0].Type)
	assert.Equal(t, int64(2000), domain.ReplayBalance(txs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListAccountIDs(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT account_id FROM accounts WHERE account_id > $1 ORDER BY account_id LIMIT $2`)).
		WithArgs(int64(0), 2).
		WillReturnRows(pgxmock.NewRows([]string{"account_id"}).AddRow(int64(1)).AddRow(int64(5)))

	ids, err := repo.ListAccountIDs(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 5}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ReplayBalance(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM ledger_transactions WHERE account_id = $1 AND status = 'COMPLETED'`)).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(2400)))

	balance, err := repo.ReplayBalance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2400), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}
