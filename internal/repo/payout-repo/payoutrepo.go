package payoutrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

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

const payoutColumns = `id, account_id, amount, method, status, processed_by, processed_at, notes, created_at`

func scanPayout(row pgx.Row) (*domain.PayoutRequest, error) {
	var (
		p      domain.PayoutRequest
		method []byte
		status string
	)
	err := row.Scan(&p.ID, &p.AccountID, &p.Amount, &method, &status, &p.ProcessedBy, &p.ProcessedAt, &p.Notes, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(method, &p.Method); err != nil {
		return nil, err
	}
	p.Status = domain.PayoutStatus(status)
	return &p, nil
}

func collectPayouts(rows pgx.Rows) ([]domain.PayoutRequest, error) {
	defer rows.Close()

	var payouts []domain.PayoutRequest
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			zap.L().Error("failed to scan payout row", zap.Error(err))
			return nil, err
		}
		payouts = append(payouts, *p)
	}
	return payouts, rows.Err()
}

func (r *Repository) Create(ctx context.Context, payout *domain.PayoutRequest) (*domain.PayoutRequest, error) {
	method, err := json.Marshal(payout.Method)
	if err != nil {
		return nil, err
	}
	query := `
        INSERT INTO payout_requests (account_id, amount, method, status)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + payoutColumns
	created, err := scanPayout(r.db.QueryRow(ctx, query, payout.AccountID, payout.Amount, method, string(domain.PayoutPending)))
	if err != nil {
		zap.L().Error("can't save payout request", zap.Int64("account_id", payout.AccountID), zap.Error(err))
		return nil, err
	}
	return created, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*domain.PayoutRequest, error) {
	query := `
        SELECT ` + payoutColumns + `
        FROM payout_requests
        WHERE id = $1
    `
	return r.getOne(ctx, query, id)
}

// Lock serializes approve and reject of the same request.
func (r *Repository) Lock(ctx context.Context, id int64) (*domain.PayoutRequest, error) {
	query := `
        SELECT ` + payoutColumns + `
        FROM payout_requests
        WHERE id = $1
        FOR UPDATE
    `
	return r.getOne(ctx, query, id)
}

func (r *Repository) getOne(ctx context.Context, query string, id int64) (*domain.PayoutRequest, error) {
	p, err := scanPayout(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to fetch payout request", zap.Int64("payout_id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *Repository) ListByAccount(ctx context.Context, accountID int64) ([]domain.PayoutRequest, error) {
	query := `
        SELECT ` + payoutColumns + `
        FROM payout_requests
        WHERE account_id = $1
        ORDER BY created_at DESC, id DESC
    `
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		zap.L().Error("failed to fetch payout requests", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return collectPayouts(rows)
}

func (r *Repository) ListPendingOlderThan(ctx context.Context, before time.Time, limit uint32) ([]domain.PayoutRequest, error) {
	query := `
        SELECT ` + payoutColumns + `
        FROM payout_requests
        WHERE status = 'PENDING' AND created_at < $1
        ORDER BY created_at, id
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, before, int(limit))
	if err != nil {
		zap.L().Error("failed to fetch pending payouts", zap.Error(err))
		return nil, err
	}
	return collectPayouts(rows)
}

// SumReserved is the amount held by requests that have not reached a
// terminal state.
func (r *Repository) SumReserved(ctx context.Context, accountID int64) (int64, error) {
	query := `
        SELECT COALESCE(SUM(amount), 0)::BIGINT
        FROM payout_requests
        WHERE account_id = $1 AND status IN ('PENDING', 'APPROVED')
    `
	var reserved int64
	if err := r.db.QueryRow(ctx, query, accountID).Scan(&reserved); err != nil {
		zap.L().Error("failed to sum reserved payouts", zap.Int64("account_id", accountID), zap.Error(err))
		return 0, err
	}
	return reserved, nil
}

// UpdateStatus moves the request from one status to the next. It fails with
// ErrInvalidState when the row is no longer in the expected status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to domain.PayoutStatus, processedBy int64, notes string) error {
	query := `
        UPDATE payout_requests
        SET status = $1, processed_by = $2, processed_at = NOW(), notes = $3
        WHERE id = $4 AND status = $5
    `
	tag, err := r.db.Exec(ctx, query, string(to), processedBy, notes, id, string(from))
	if err != nil {
		zap.L().Error("failed to update payout status", zap.Int64("payout_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.InvalidStatef("payout %d is not %s", id, from)
	}
	return nil
}
