package referralrepo

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

// GetReferrer returns who referred userID within the program, or nil.
func (r *Repository) GetReferrer(ctx context.Context, userID int64, program domain.Program) (*int64, error) {
	query := `
        SELECT referrer_id
        FROM referrals
        WHERE user_id = $1 AND program = $2
    `
	var referrerID int64
	err := r.db.QueryRow(ctx, query, userID, string(program)).Scan(&referrerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't get referrer",
			zap.Int64("user_id", userID),
			zap.String("program", string(program)),
			zap.Error(err))
		return nil, err
	}
	return &referrerID, nil
}
