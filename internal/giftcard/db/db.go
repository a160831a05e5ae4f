package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"venue-cms/internal/giftcard"
	"venue-cms/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) InsertGiftCard(ctx context.Context, card *models.GiftCard) error {
	_, err := d.Bun.NewInsert().Model(card).Exec(ctx)
	if err != nil && (strings.Contains(err.Error(), "duplicate key value") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")) {
		return giftcard.ErrCodeExists
	}
	return err
}

func (d *DB) GetGiftCardByCode(ctx context.Context, code string) (*models.GiftCard, error) {
	var card models.GiftCard
	err := d.Bun.NewSelect().
		Model(&card).
		Where("code = ?", code).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, giftcard.ErrCardNotFound
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (d *DB) ListGiftCards(ctx context.Context) ([]models.GiftCard, error) {
	var cards []models.GiftCard
	err := d.Bun.NewSelect().
		Model(&cards).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// DecrementBalance relies on the conditional WHERE to stay correct under
// concurrent reserves: the row is only updated when the balance covers the
// amount.
func (d *DB) DecrementBalance(ctx context.Context, code string, amount float64) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.GiftCard)(nil)).
		Set("balance = balance - ?", amount).
		Set("updated_at = ?", time.Now().UTC()).
		Where("code = ? AND balance >= ?", code, amount).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (d *DB) IncrementBalance(ctx context.Context, code string, amount float64) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.GiftCard)(nil)).
		Set("balance = balance + ?", amount).
		Set("updated_at = ?", time.Now().UTC()).
		Where("code = ?", code).
		Exec(ctx)
	return err
}
