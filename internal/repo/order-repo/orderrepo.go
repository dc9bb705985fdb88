package orderrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/settlement/internal/domain"
	"github.com/GlebRadaev/settlement/internal/pg"
)

// Repository reads orders owned by the order module. Nothing here writes.
type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := `
        SELECT id, order_number, buyer_id, total_amount, status, paid_at
        FROM orders
        WHERE order_number = $1
    `
	row := r.db.QueryRow(ctx, query, orderNumber)

	var order domain.Order
	err := row.Scan(&order.ID, &order.OrderNumber, &order.BuyerID, &order.TotalAmount, &order.Status, &order.PaidAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find order", zap.String("order_number", orderNumber), zap.Error(err))
		return nil, err
	}
	return &order, nil
}
