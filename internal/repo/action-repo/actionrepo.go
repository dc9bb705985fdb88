package actionrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/settlement/internal/domain"
	"github.com/GlebRadaev/settlement/internal/pg"
)

// Repository records one-off actions taken on an entity so periodic jobs
// perform each of them at most once.
type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

// Claim reports whether this caller is the first to perform the action.
func (r *Repository) Claim(ctx context.Context, entityType string, entityID int64, actionType string, at time.Time) (bool, error) {
	query := `
        INSERT INTO action_log (entity_type, entity_id, action_type, performed_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (entity_type, entity_id, action_type) DO NOTHING
    `
	tag, err := r.db.Exec(ctx, query, entityType, entityID, actionType, at)
	if err != nil {
		zap.L().Error("failed to claim action",
			zap.String("entity_type", entityType),
			zap.Int64("entity_id", entityID),
			zap.String("action_type", actionType),
			zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) LastAction(ctx context.Context, entityType string, entityID int64) (*domain.ActionLogEntry, error) {
	query := `
        SELECT id, entity_type, entity_id, action_type, performed_at
        FROM action_log
        WHERE entity_type = $1 AND entity_id = $2
        ORDER BY performed_at DESC, id DESC
        LIMIT 1
    `
	var entry domain.ActionLogEntry
	err := r.db.QueryRow(ctx, query, entityType, entityID).
		Scan(&entry.ID, &entry.EntityType, &entry.EntityID, &entry.ActionType, &entry.PerformedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("failed to fetch last action",
			zap.String("entity_type", entityType),
			zap.Int64("entity_id", entityID),
			zap.Error(err))
		return nil, err
	}
	return &entry, nil
}
