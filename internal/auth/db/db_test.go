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

	"venue-cms/internal/auth"
	"venue-cms/internal/models"
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
		(*models.User)(nil),
		(*models.RefreshToken)(nil),
	} {
		_, err := bunDB.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}
	return &DB{Bun: bunDB}
}

func sampleUser(id, email string) *models.User {
	return &models.User{
		ID:           id,
		Name:         "Jamie",
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Role:         models.RoleEditor,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, sampleUser("u1", "jamie@example.com")))

	err := db.CreateUser(ctx, sampleUser("u2", "jamie@example.com"))
	assert.ErrorIs(t, err, auth.ErrEmailExists)
}

func TestGetUserByEmailAndID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, sampleUser("u1", "jamie@example.com")))

	byEmail, err := db.GetUserByEmail(ctx, "jamie@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	byID, err := db.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "jamie@example.com", byID.Email)

	_, err = db.GetUserByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, sampleUser("u1", "jamie@example.com")))
	token := &models.RefreshToken{
		ID:        "rt1",
		UserID:    "u1",
		TokenHash: "deadbeef",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.StoreRefreshToken(ctx, token))

	got, err := db.GetRefreshToken(ctx, "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	require.NoError(t, db.DeleteRefreshToken(ctx, "deadbeef"))
	_, err = db.GetRefreshToken(ctx, "deadbeef")
	assert.ErrorIs(t, err, auth.ErrTokenNotFound)
}

func TestDeleteExpiredTokens(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, sampleUser("u1", "jamie@example.com")))
	require.NoError(t, db.StoreRefreshToken(ctx, &models.RefreshToken{
		ID: "rt-old", UserID: "u1", TokenHash: "old",
		ExpiresAt: time.Now().UTC().Add(-time.Hour), CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, db.StoreRefreshToken(ctx, &models.RefreshToken{
		ID: "rt-new", UserID: "u1", TokenHash: "new",
		ExpiresAt: time.Now().UTC().Add(time.Hour), CreatedAt: time.Now().UTC(),
	}))

	require.NoError(t, db.DeleteExpiredTokens(ctx))

	_, err := db.GetRefreshToken(ctx, "old")
	assert.ErrorIs(t, err, auth.ErrTokenNotFound)
	_, err = db.GetRefreshToken(ctx, "new")
	assert.NoError(t, err)
}
