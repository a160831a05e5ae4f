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

	"venue-cms/internal/giftcard"
	"venue-cms/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	_, err = bunDB.NewCreateTable().Model((*models.GiftCard)(nil)).Exec(context.Background())
	require.NoError(t, err)
	return &DB{Bun: bunDB}
}

func seedCard(t *testing.T, db *DB, code string, balance float64) {
	t.Helper()
	require.NoError(t, db.InsertGiftCard(context.Background(), &models.GiftCard{
		ID:             "gc-" + code,
		Code:           code,
		Balance:        balance,
		InitialBalance: balance,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}))
}

func TestInsertGiftCardDuplicateCode(t *testing.T) {
	db := newTestDB(t)
	seedCard(t, db, "ABCD1234", 100)

	err := db.InsertGiftCard(context.Background(), &models.GiftCard{
		ID: "gc-2", Code: "ABCD1234", Balance: 50, InitialBalance: 50, Active: true,
		CreatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, giftcard.ErrCodeExists)
}

func TestDecrementBalanceConditional(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedCard(t, db, "ABCD1234", 50)

	ok, err := db.DecrementBalance(ctx, "ABCD1234", 30)
	require.NoError(t, err)
	assert.True(t, ok)

	// Remaining 20 cannot cover another 30: the row must stay untouched.
	ok, err = db.DecrementBalance(ctx, "ABCD1234", 30)
	require.NoError(t, err)
	assert.False(t, ok)

	card, err := db.GetGiftCardByCode(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, 20.0, card.Balance)
}

func TestIncrementBalanceRestores(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedCard(t, db, "ABCD1234", 50)

	ok, err := db.DecrementBalance(ctx, "ABCD1234", 50)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, db.IncrementBalance(ctx, "ABCD1234", 50))
	card, err := db.GetGiftCardByCode(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, 50.0, card.Balance)
}

func TestGetGiftCardMissing(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetGiftCardByCode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, giftcard.ErrCardNotFound)
}
