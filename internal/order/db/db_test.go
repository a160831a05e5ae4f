package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"venue-cms/internal/models"
	"venue-cms/internal/order"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Order)(nil),
		(*models.OrderTicket)(nil),
	} {
		_, err := bunDB.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}
	return &DB{Bun: bunDB}
}

func sampleOrder(id, number string) *models.Order {
	return &models.Order{
		ID:            id,
		OrderNumber:   number,
		UserID:        "u1",
		UserEmail:     "buyer@example.com",
		UserName:      "Buyer",
		ShowID:        "show-1",
		ShowTitle:     "Evening Gala",
		ShowDate:      time.Date(2026, 10, 1, 19, 30, 0, 0, time.UTC),
		TicketsTotal:  110,
		TotalAmount:   110,
		Status:        models.OrderStatusConfirmed,
		PaymentStatus: models.PaymentStatusPaid,
		CreatedAt:     time.Now().UTC(),
		Tickets: []models.OrderTicket{
			{ID: id + "-t0", OrderID: id, TierLabel: "General", TierPrice: 25, Quantity: 2, Subtotal: 50, Position: 0},
			{ID: id + "-t1", OrderID: id, TierLabel: "VIP", TierPrice: 60, Quantity: 1, Subtotal: 60, Position: 1},
		},
	}
}

func TestInsertAndGetOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertOrder(ctx, sampleOrder("ord-1", "000000010001")))

	got, err := db.GetOrderByID(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "000000010001", got.OrderNumber)
	require.Len(t, got.Tickets, 2)
	assert.Equal(t, "General", got.Tickets[0].TierLabel)
	assert.Equal(t, "VIP", got.Tickets[1].TierLabel)
}

func TestInsertOrderDuplicateNumber(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertOrder(ctx, sampleOrder("ord-1", "000000010001")))

	err := db.InsertOrder(ctx, sampleOrder("ord-2", "000000010001"))
	assert.ErrorIs(t, err, order.ErrDuplicateOrderNumber)

	// The duplicate's tickets must not survive the rolled-back insert.
	_, err = db.GetOrderByID(ctx, "ord-2")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestGetOrderByNumber(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertOrder(ctx, sampleOrder("ord-1", "000000010001")))

	got, err := db.GetOrderByNumber(ctx, "000000010001")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", got.ID)

	_, err = db.GetOrderByNumber(ctx, "999999999999")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestListOrdersByUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := sampleOrder("ord-1", "000000010001")
	second := sampleOrder("ord-2", "000000010002")
	second.UserID = "u2"
	require.NoError(t, db.InsertOrder(ctx, first))
	require.NoError(t, db.InsertOrder(ctx, second))

	mine, err := db.ListOrdersByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "ord-1", mine[0].ID)

	all, err := db.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateOrderStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertOrder(ctx, sampleOrder("ord-1", "000000010001")))
	require.NoError(t, db.UpdateOrderStatus(ctx, "ord-1", models.OrderStatusCancelled, models.PaymentStatusRefunded))

	got, err := db.GetOrderByID(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.Equal(t, models.PaymentStatusRefunded, got.PaymentStatus)

	err = db.UpdateOrderStatus(ctx, "missing", models.OrderStatusCancelled, models.PaymentStatusRefunded)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}
