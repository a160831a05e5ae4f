package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"venue-cms/internal/models"
	"venue-cms/internal/order"
)

type DB struct {
	Bun *bun.DB
}

// InsertOrder writes the order row and every ticket line in one
// transaction, so a half-written order can never be observed.
func (d *DB) InsertOrder(ctx context.Context, o *models.Order) error {
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(o).Exec(ctx); err != nil {
			return err
		}
		if len(o.Tickets) > 0 {
			if _, err := tx.NewInsert().Model(&o.Tickets).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && (strings.Contains(err.Error(), "duplicate key value") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")) {
		return order.ErrDuplicateOrderNumber
	}
	return err
}

func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	err := d.Bun.NewSelect().
		Model(&o).
		Relation("Tickets", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Where("\"order\".id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (d *DB) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var o models.Order
	err := d.Bun.NewSelect().
		Model(&o).
		Relation("Tickets", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Where("\"order\".order_number = ?", number).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (d *DB) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Relation("Tickets", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Where("\"order\".user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (d *DB) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Relation("Tickets", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (d *DB) UpdateOrderStatus(ctx context.Context, id, status, paymentStatus string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", status).
		Set("payment_status = ?", paymentStatus).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}
