package ledgerrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/settlement/internal/domain"
	"github.com/GlebRadaev/settlement/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

const transactionColumns = `id, account_id, type, amount, status, reference_id, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(&account.AccountID, &account.CurrentBalance, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		tx             domain.Transaction
		txType, status string
	)
	err := row.Scan(&tx.ID, &tx.AccountID, &txType, &tx.Amount, &status, &tx.ReferenceID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}
	tx.Type = domain.TransactionType(txType)
	tx.Status = domain.TransactionStatus(status)
	return &tx, nil
}

func (r *Repository) CreateAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	query := `
        INSERT INTO accounts (account_id, current_balance)
        VALUES ($1, 0)
        ON CONFLICT (account_id) DO UPDATE SET account_id = EXCLUDED.account_id
        RETURNING account_id, current_balance, created_at, updated_at
    `
	account, err := scanAccount(r.db.QueryRow(ctx, query, accountID))
	if err != nil {
		zap.L().Error("failed to create account", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return account, nil
}

func (r *Repository) GetAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	query := `
        SELECT account_id, current_balance, created_at, updated_at
        FROM accounts
        WHERE account_id = $1
    `
	account, err := scanAccount(r.db.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get account", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return account, nil
}

// LockAccount takes the row lock that serializes every balance mutation of
// the account. Must run inside a transaction.
func (r *Repository) LockAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	query := `
        SELECT account_id, current_balance, created_at, updated_at
        FROM accounts
        WHERE account_id = $1
        FOR UPDATE
    `
	account, err := scanAccount(r.db.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to lock account", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return account, nil
}

// SetBalance writes current_balance. Only the ledger service calls it, after
// appending the transaction that justifies the new value.
func (r *Repository) SetBalance(ctx context.Context, accountID int64, balance int64) error {
	query := `
        UPDATE accounts
        SET current_balance = $1, updated_at = NOW()
        WHERE account_id = $2
    `
	tag, err := r.db.Exec(ctx, query, balance, accountID)
	if err != nil {
		zap.L().Error("failed to set balance", zap.Int64("account_id", accountID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("account %d", accountID)
	}
	return nil
}

func (r *Repository) ListAccountIDs(ctx context.Context, afterID int64, limit uint32) ([]int64, error) {
	query := `
        SELECT account_id
        FROM accounts
        WHERE account_id > $1
        ORDER BY account_id
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, afterID, int(limit))
	if err != nil {
		zap.L().Error("failed to list accounts", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			zap.L().Error("failed to scan account id", zap.Error(err))
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) FindTransaction(ctx context.Context, accountID int64, referenceID string, txType domain.TransactionType) (*domain.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM ledger_transactions
        WHERE account_id = $1 AND reference_id = $2 AND type = $3
    `
	tx, err := scanTransaction(r.db.QueryRow(ctx, query, accountID, referenceID, string(txType)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to find transaction", zap.String("reference_id", referenceID), zap.Error(err))
		return nil, err
	}
	return tx, nil
}

func (r *Repository) LockTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM ledger_transactions
        WHERE id = $1
        FOR UPDATE
    `
	tx, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to lock transaction", zap.Int64("transaction_id", id), zap.Error(err))
		return nil, err
	}
	return tx, nil
}

func (r *Repository) InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	query := `
        INSERT INTO ledger_transactions (account_id, type, amount, status, reference_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING ` + transactionColumns
	inserted, err := scanTransaction(r.db.QueryRow(ctx, query,
		tx.AccountID, string(tx.Type), tx.Amount, string(tx.Status), tx.ReferenceID))
	if err != nil {
		zap.L().Error("failed to insert transaction", zap.String("reference_id", tx.ReferenceID), zap.Error(err))
		return nil, err
	}
	return inserted, nil
}

func (r *Repository) UpdateTransactionStatus(ctx context.Context, id int64, status domain.TransactionStatus) error {
	query := `
        UPDATE ledger_transactions
        SET status = $1, updated_at = NOW()
        WHERE id = $2 AND status = 'PENDING'
    `
	tag, err := r.db.Exec(ctx, query, string(status), id)
	if err != nil {
		zap.L().Error("failed to update transaction status", zap.Int64("transaction_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.InvalidStatef("transaction %d is not pending", id)
	}
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, accountID int64, limit, offset int) ([]domain.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM ledger_transactions
        WHERE account_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.db.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		zap.L().Error("failed to fetch transactions", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			zap.L().Error("failed to scan transaction row", zap.Error(err))
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

// ReplayBalance sums the completed log the same way domain.ReplayBalance does.
func (r *Repository) ReplayBalance(ctx context.Context, accountID int64) (int64, error) {
	query := `
        SELECT COALESCE(SUM(CASE
            WHEN type IN ('COMMISSION_EARNED', 'REFUND', 'ADJUSTMENT') THEN amount
            WHEN type IN ('PAYOUT_COMPLETED', 'STORAGE_FEE_CHARGED') THEN -amount
            ELSE 0 END), 0)::BIGINT
        FROM ledger_transactions
        WHERE account_id = $1 AND status = 'COMPLETED'
    `
	var balance int64
	if err := r.db.QueryRow(ctx, query, accountID).Scan(&balance); err != nil {
		zap.L().Error("failed to replay balance", zap.Int64("account_id", accountID), zap.Error(err))
		return 0, err
	}
	return balance, nil
}
