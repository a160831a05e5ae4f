package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"venue-cms/internal/audit"
	audit_api "venue-cms/internal/audit/api"
	audit_db "venue-cms/internal/audit/db"
	"venue-cms/internal/auth"
	auth_api "venue-cms/internal/auth/api"
	auth_db "venue-cms/internal/auth/db"
	"venue-cms/internal/catalog"
	catalog_api "venue-cms/internal/catalog/api"
	catalog_db "venue-cms/internal/catalog/db"
	"venue-cms/internal/config"
	"venue-cms/internal/database/migrations"
	"venue-cms/internal/giftcard"
	giftcard_api "venue-cms/internal/giftcard/api"
	giftcard_db "venue-cms/internal/giftcard/db"
	"venue-cms/internal/kafka"
	"venue-cms/internal/logger"
	"venue-cms/internal/models"
	"venue-cms/internal/order"
	order_api "venue-cms/internal/order/api"
	order_db "venue-cms/internal/order/db"
	"venue-cms/internal/order/qr"
)

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting venue CMS initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := connectDatabase(cfg, log)
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.MigrateUp(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
	if version, ok, err := runner.Version(); err == nil && ok {
		log.Info("DATABASE", fmt.Sprintf("Schema at version %d", version))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("REDIS", fmt.Sprintf("Redis unreachable, login throttling disabled: %v", err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Info("REDIS", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))
		}
	} else {
		log.Info("REDIS", "REDIS_ADDR not set, login throttling disabled")
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		brokers := []string{cfg.Kafka.Addr}
		if err := kafka.EnsureTopicsExist(brokers); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer = kafka.NewProducer(brokers, log)
		defer producer.Close()
		log.Info("KAFKA", "Kafka producer initialized")
	} else {
		log.Info("KAFKA", "KAFKA_ADDR not set, order events disabled")
	}

	// Stores and services.
	authStore := &auth_db.DB{Bun: bunDB}
	auditService := audit.NewService(&audit_db.DB{Bun: bunDB}, log)
	authService := auth.NewService(authStore, authStore, auditService, cfg.Auth, log)
	catalogService := catalog.NewService(&catalog_db.DB{Bun: bunDB}, auditService, cfg.Catalog, log)
	giftCardService := giftcard.NewService(&giftcard_db.DB{Bun: bunDB}, auditService, log)

	orderService := &order.Service{
		Store:     &order_db.DB{Bun: bunDB},
		Shows:     catalogService,
		GiftCards: giftCardService,
		Audit:     auditService,
		Logger:    log,
		PassKey:   qr.Key(cfg.Auth.JWTSecret),
	}
	if producer != nil {
		orderService.Publisher = producer
	}

	authHandler := auth_api.NewHandler(authService, log)
	catalogHandler := catalog_api.NewHandler(catalogService)
	giftCardHandler := giftcard_api.NewHandler(giftCardService)
	orderHandler := order_api.NewHandler(orderService)
	auditHandler := audit_api.NewHandler(auditService)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// --- Public routes ---
	r.With(auth.LoginRateLimit(redisClient, cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow, log)).
		Post("/api/auth/login", authHandler.Login)
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/refresh", authHandler.Refresh)

	r.Get("/api/shows", catalogHandler.ListPublicShows)
	r.Get("/api/shows/{slug}", catalogHandler.GetPublicShow)
	r.Get("/api/pages/{slug}", catalogHandler.GetPublicPage)
	r.Get("/api/settings", catalogHandler.GetSettings)
	r.Get("/api/faq", catalogHandler.ListPublicFAQ)

	// --- Authenticated routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.JWTSecret, authStore, log))

		r.Post("/api/auth/logout", authHandler.Logout)
		r.Get("/api/auth/me", authHandler.Me)
		r.Get("/api/gift-cards/{code}/balance", giftCardHandler.GetBalance)

		r.Route("/api/orders", func(r chi.Router) {
			r.Post("/", orderHandler.Create)
			r.Get("/my", orderHandler.ListMine)
			r.Get("/by-number/{orderNumber}", orderHandler.GetByNumber)
			r.Get("/{orderId}", orderHandler.Get)
			r.Post("/{orderId}/cancel", orderHandler.Cancel)
			r.Get("/{orderId}/qr", orderHandler.Pass)
		})

		// --- Editor + admin content management ---
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin, models.RoleEditor))

			r.Route("/api/admin/shows", func(r chi.Router) {
				r.Get("/", catalogHandler.ListShows)
				r.Post("/", catalogHandler.CreateShow)
				r.Get("/{showId}", catalogHandler.GetShow)
				r.Put("/{showId}", catalogHandler.UpdateShow)
				r.Delete("/{showId}", catalogHandler.DeleteShow)
			})
			r.Route("/api/admin/pages", func(r chi.Router) {
				r.Get("/", catalogHandler.ListPages)
				r.Post("/", catalogHandler.CreatePage)
				r.Put("/{pageId}", catalogHandler.UpdatePage)
				r.Delete("/{pageId}", catalogHandler.DeletePage)
			})
			r.Route("/api/admin/faq", func(r chi.Router) {
				r.Get("/", catalogHandler.ListFAQ)
				r.Post("/", catalogHandler.CreateFAQ)
				r.Put("/{faqId}", catalogHandler.UpdateFAQ)
				r.Delete("/{faqId}", catalogHandler.DeleteFAQ)
			})
		})

		// --- Admin only ---
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))

			r.Route("/api/admin/users", func(r chi.Router) {
				r.Get("/", authHandler.ListUsers)
				r.Post("/", authHandler.CreateUser)
				r.Put("/{userId}", authHandler.UpdateUser)
				r.Delete("/{userId}", authHandler.DeleteUser)
			})
			r.Route("/api/admin/gift-cards", func(r chi.Router) {
				r.Get("/", giftCardHandler.List)
				r.Post("/", giftCardHandler.Create)
			})
			r.Put("/api/admin/settings", catalogHandler.UpdateSettings)
			r.Get("/api/admin/orders", orderHandler.ListAll)
			r.Get("/api/admin/audit", auditHandler.List)
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Server listening on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("Server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("APP", "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP", fmt.Sprintf("Graceful shutdown failed: %v", err))
	}
}

func connectDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err == nil {
			err = sqldb.Ping()
		}
		if err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("PostgreSQL connection failed: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Could not connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}
