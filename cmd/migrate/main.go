package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"venue-cms/internal/auth"
	"venue-cms/internal/config"
	"venue-cms/internal/database/migrations"
	"venue-cms/internal/logger"
	"venue-cms/internal/models"
	"venue-cms/internal/utils"
)

// Usage:
//
//	migrate up          apply pending migrations
//	migrate down        roll back all migrations
//	migrate seed-admin  create the initial admin from ADMIN_EMAIL/ADMIN_PASSWORD
func main() {
	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())

	switch command {
	case "up":
		if err := runner.MigrateUp(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migration up failed: %v", err))
		}
		log.Info("DATABASE", "Migrations applied")
	case "down":
		if err := runner.MigrateDown(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migration down failed: %v", err))
		}
		log.Info("DATABASE", "Migrations rolled back")
	case "seed-admin":
		if err := seedAdmin(context.Background(), bunDB, cfg); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Admin seed failed: %v", err))
		}
		log.Info("DATABASE", "Admin user ready")
	default:
		log.Fatal("APP", fmt.Sprintf("Unknown command %q (want up, down or seed-admin)", command))
	}
}

// seedAdmin inserts the bootstrap admin account. Running it twice is a
// no-op thanks to the conflict clause on email.
func seedAdmin(ctx context.Context, bunDB *bun.DB, cfg *config.Config) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}

	hash, err := auth.HashPassword(password, cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &models.User{
		ID:           utils.NewID(),
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	_, err = bunDB.NewInsert().
		Model(admin).
		On("CONFLICT (email) DO NOTHING").
		Exec(ctx)
	return err
}
