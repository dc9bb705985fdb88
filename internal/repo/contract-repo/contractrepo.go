package contractrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const foreignKeyViolation = "23503"

const (
	contractColumns = `id, account_id, storage_start_date, released_at, pallet_count, fee_per_pallet_per_day`
	feeColumns      = `id, contract_id, billing_period_end, days_charged, amount, created_at`
)

func scanContract(row pgx.Row) (*domain.StorageContract, error) {
	var c domain.StorageContract
	err := row.Scan(&c.ID, &c.AccountID, &c.StorageStartDate, &c.ReleasedAt, &c.PalletCount, &c.FeePerPalletPerDay)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanFee(row pgx.Row) (*domain.StorageFee, error) {
	var f domain.StorageFee
	err := row.Scan(&f.ID, &f.ContractID, &f.BillingPeriodEnd, &f.DaysCharged, &f.Amount, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func collectContracts(rows pgx.Rows) ([]domain.StorageContract, error) {
	defer rows.Close()

	var contracts []domain.StorageContract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			zap.L().Error("failed to scan contract row", zap.Error(err))
			return nil, err
		}
		contracts = append(contracts, *c)
	}
	return contracts, rows.Err()
}

func (r *Repository) Create(ctx context.Context, c *domain.StorageContract) (*domain.StorageContract, error) {
	query := `
        INSERT INTO storage_contracts (account_id, storage_start_date, pallet_count, fee_per_pallet_per_day)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + contractColumns
	created, err := scanContract(r.db.QueryRow(ctx, query, c.AccountID, c.StorageStartDate, c.PalletCount, c.FeePerPalletPerDay))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, domain.NotFoundf("account %d", c.AccountID)
		}
		zap.L().Error("failed to create storage contract", zap.Int64("account_id", c.AccountID), zap.Error(err))
		return nil, err
	}
	return created, nil
}

// Release stops accrual on the given date. A contract is released once.
func (r *Repository) Release(ctx context.Context, id int64, releasedAt time.Time) error {
	query := `
        UPDATE storage_contracts
        SET released_at = $1
        WHERE id = $2 AND released_at IS NULL
    `
	tag, err := r.db.Exec(ctx, query, releasedAt, id)
	if err != nil {
		zap.L().Error("failed to release storage contract", zap.Int64("contract_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.AlreadyProcessedf("contract %d is already released", id)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*domain.StorageContract, error) {
	query := `
        SELECT ` + contractColumns + `
        FROM storage_contracts
        WHERE id = $1
    `
	return r.getOne(ctx, query, id)
}

// Lock serializes settlements of one contract.
func (r *Repository) Lock(ctx context.Context, id int64) (*domain.StorageContract, error) {
	query := `
        SELECT ` + contractColumns + `
        FROM storage_contracts
        WHERE id = $1
        FOR UPDATE
    `
	return r.getOne(ctx, query, id)
}

func (r *Repository) getOne(ctx context.Context, query string, id int64) (*domain.StorageContract, error) {
	c, err := scanContract(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to fetch storage contract", zap.Int64("contract_id", id), zap.Error(err))
		return nil, err
	}
	return c, nil
}

// ListByAccount returns the contracts of the account that had started by asOf.
func (r *Repository) ListByAccount(ctx context.Context, accountID int64, asOf time.Time) ([]domain.StorageContract, error) {
	query := `
        SELECT ` + contractColumns + `
        FROM storage_contracts
        WHERE account_id = $1 AND storage_start_date <= $2
        ORDER BY id
    `
	rows, err := r.db.Query(ctx, query, accountID, asOf)
	if err != nil {
		zap.L().Error("failed to list storage contracts", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return collectContracts(rows)
}

// ListFreePeriodEnding returns unreleased contracts whose free period ends in
// [from, to).
func (r *Repository) ListFreePeriodEnding(ctx context.Context, freeDays int, from, to time.Time, limit uint32) ([]domain.StorageContract, error) {
	query := `
        SELECT ` + contractColumns + `
        FROM storage_contracts
        WHERE released_at IS NULL
          AND storage_start_date + $1::INTEGER >= $2::DATE
          AND storage_start_date + $1::INTEGER < $3::DATE
        ORDER BY id
        LIMIT $4
    `
	rows, err := r.db.Query(ctx, query, freeDays, from, to, int(limit))
	if err != nil {
		zap.L().Error("failed to list contracts leaving free period", zap.Error(err))
		return nil, err
	}
	return collectContracts(rows)
}

func (r *Repository) SumDaysCharged(ctx context.Context, contractID int64) (int, error) {
	query := `
        SELECT COALESCE(SUM(days_charged), 0)::INTEGER
        FROM storage_fees
        WHERE contract_id = $1
    `
	var days int
	if err := r.db.QueryRow(ctx, query, contractID).Scan(&days); err != nil {
		zap.L().Error("failed to sum charged days", zap.Int64("contract_id", contractID), zap.Error(err))
		return 0, err
	}
	return days, nil
}

func (r *Repository) GetFee(ctx context.Context, contractID int64, billingPeriodEnd time.Time) (*domain.StorageFee, error) {
	query := `
        SELECT ` + feeColumns + `
        FROM storage_fees
        WHERE contract_id = $1 AND billing_period_end = $2
    `
	fee, err := scanFee(r.db.QueryRow(ctx, query, contractID, billingPeriodEnd))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to fetch storage fee", zap.Int64("contract_id", contractID), zap.Error(err))
		return nil, err
	}
	return fee, nil
}

func (r *Repository) InsertFee(ctx context.Context, fee *domain.StorageFee) (*domain.StorageFee, error) {
	query := `
        INSERT INTO storage_fees (contract_id, billing_period_end, days_charged, amount)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + feeColumns
	inserted, err := scanFee(r.db.QueryRow(ctx, query, fee.ContractID, fee.BillingPeriodEnd, fee.DaysCharged, fee.Amount))
	if err != nil {
		zap.L().Error("failed to insert storage fee",
			zap.Int64("contract_id", fee.ContractID),
			zap.Time("billing_period_end", fee.BillingPeriodEnd),
			zap.Error(err))
		return nil, err
	}
	return inserted, nil
}
