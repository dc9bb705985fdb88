package commissionrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
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

const recordColumns = `id, order_id, beneficiary_id, program, tier, rate_applied::TEXT, amount, status, created_at, paid_at`

func scanRecord(row pgx.Row) (*domain.CommissionRecord, error) {
	var (
		rec                   domain.CommissionRecord
		program, rate, status string
	)
	err := row.Scan(&rec.ID, &rec.OrderID, &rec.BeneficiaryID, &program, &rec.Tier, &rate, &rec.Amount, &status, &rec.CreatedAt, &rec.PaidAt)
	if err != nil {
		return nil, err
	}
	rec.RateApplied, err = decimal.NewFromString(rate)
	if err != nil {
		return nil, err
	}
	rec.Program = domain.Program(program)
	rec.Status = domain.CommissionStatus(status)
	return &rec, nil
}

func collectRecords(rows pgx.Rows) ([]domain.CommissionRecord, error) {
	defer rows.Close()

	var records []domain.CommissionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			zap.L().Error("failed to scan commission record", zap.Error(err))
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Create inserts a pending record. When the (order, beneficiary) pair already
// exists the stored record is returned and created is false.
func (r *Repository) Create(ctx context.Context, rec *domain.CommissionRecord) (*domain.CommissionRecord, bool, error) {
	query := `
        INSERT INTO commission_records (order_id, beneficiary_id, program, tier, rate_applied, amount, status)
        VALUES ($1, $2, $3, $4, $5::NUMERIC, $6, $7)
        ON CONFLICT (order_id, beneficiary_id) DO NOTHING
        RETURNING ` + recordColumns
	created, err := scanRecord(r.db.QueryRow(ctx, query,
		rec.OrderID, rec.BeneficiaryID, string(rec.Program), rec.Tier, rec.RateApplied.String(), rec.Amount, string(domain.CommissionPending)))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		zap.L().Error("failed to create commission record",
			zap.String("order_id", rec.OrderID),
			zap.Int64("beneficiary_id", rec.BeneficiaryID),
			zap.Error(err))
		return nil, false, err
	}

	existing, err := r.get(ctx, rec.OrderID, rec.BeneficiaryID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *Repository) get(ctx context.Context, orderID string, beneficiaryID int64) (*domain.CommissionRecord, error) {
	query := `
        SELECT ` + recordColumns + `
        FROM commission_records
        WHERE order_id = $1 AND beneficiary_id = $2
    `
	rec, err := scanRecord(r.db.QueryRow(ctx, query, orderID, beneficiaryID))
	if err != nil {
		zap.L().Error("failed to get commission record",
			zap.String("order_id", orderID),
			zap.Int64("beneficiary_id", beneficiaryID),
			zap.Error(err))
		return nil, err
	}
	return rec, nil
}

// Lock re-reads the record under a row lock so concurrent payers see its
// latest status.
func (r *Repository) Lock(ctx context.Context, id int64) (*domain.CommissionRecord, error) {
	query := `
        SELECT ` + recordColumns + `
        FROM commission_records
        WHERE id = $1
        FOR UPDATE
    `
	rec, err := scanRecord(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to lock commission record", zap.Int64("commission_id", id), zap.Error(err))
		return nil, err
	}
	return rec, nil
}

func (r *Repository) MarkPaid(ctx context.Context, id int64) error {
	query := `
        UPDATE commission_records
        SET status = 'PAID', paid_at = NOW()
        WHERE id = $1 AND status = 'PENDING'
    `
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		zap.L().Error("failed to mark commission paid", zap.Int64("commission_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.AlreadyProcessedf("commission %d is not pending", id)
	}
	return nil
}

func (r *Repository) ListByOrder(ctx context.Context, orderID string) ([]domain.CommissionRecord, error) {
	query := `
        SELECT ` + recordColumns + `
        FROM commission_records
        WHERE order_id = $1
        ORDER BY tier, id
    `
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		zap.L().Error("failed to list commissions by order", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}
	return collectRecords(rows)
}

// ListPending returns the oldest pending records created before the cutoff.
func (r *Repository) ListPending(ctx context.Context, createdBefore time.Time, limit uint32) ([]domain.CommissionRecord, error) {
	query := `
        SELECT ` + recordColumns + `
        FROM commission_records
        WHERE status = 'PENDING' AND created_at < $1
        ORDER BY created_at, id
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, createdBefore, int(limit))
	if err != nil {
		zap.L().Error("failed to list pending commissions", zap.Error(err))
		return nil, err
	}
	return collectRecords(rows)
}
