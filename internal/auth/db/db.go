package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"venue-cms/internal/auth"
	"venue-cms/internal/models"
)

// DB implements auth.UserStore and auth.TokenStore on top of bun.
type DB struct {
	Bun *bun.DB
}

// ---------------- USERS ----------------

func (d *DB) CreateUser(ctx context.Context, user *models.User) error {
	_, err := d.Bun.NewInsert().Model(user).Exec(ctx)
	if isUniqueViolation(err) {
		return auth.ErrEmailExists
	}
	return err
}

func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (d *DB) UpdateUser(ctx context.Context, user *models.User) error {
	_, err := d.Bun.NewUpdate().
		Model(user).
		Column("name", "role", "is_active", "password_hash", "phone", "id_number", "updated_at").
		Where("id = ?", user.ID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteUser(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// ---------------- REFRESH TOKENS ----------------

func (d *DB) StoreRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	_, err := d.Bun.NewInsert().Model(token).Exec(ctx)
	return err
}

func (d *DB) GetRefreshToken(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := d.Bun.NewSelect().
		Model(&token).
		Where("token_hash = ?", hash).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (d *DB) DeleteRefreshToken(ctx context.Context, hash string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.RefreshToken)(nil)).
		Where("token_hash = ?", hash).
		Exec(ctx)
	return err
}

func (d *DB) DeleteExpiredTokens(ctx context.Context) error {
	_, err := d.Bun.NewDelete().
		Model((*models.RefreshToken)(nil)).
		Where("expires_at < ?", time.Now().UTC()).
		Exec(ctx)
	return err
}

// isUniqueViolation matches unique-index errors from both Postgres and the
// SQLite driver used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
