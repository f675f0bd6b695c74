package main

import (
	"context"
	"log"
	"log/slog"
	"net/url"
	"os"

	"github.com/hasibdev/bazario/internal/gateway"
	"github.com/hasibdev/bazario/internal/gateway/middleware"
	"github.com/hasibdev/bazario/internal/modules/notification"
	"github.com/hasibdev/bazario/internal/modules/order"
	"github.com/hasibdev/bazario/internal/realtime"
	"github.com/hasibdev/bazario/internal/shared/infrastructure/config"
	"github.com/hasibdev/bazario/internal/shared/infrastructure/database"
	"github.com/hasibdev/bazario/pkg/migration"
	"github.com/razorpay/razorpay-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := migration.AutoMigrate(databaseURL(cfg.Database), migrationsPath(), logger); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}

	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.Close()
	log.Println("Database connected successfully")

	// Redis only accelerates the default notification list view; the server
	// runs without it.
	var cache *redis.Client
	if c, err := database.NewRedis(cfg.Redis); err != nil {
		log.Printf("Redis unavailable, list caching disabled: %v", err)
	} else {
		cache = c
		defer cache.Close()
	}

	var rzpClient *razorpay.Client
	if cfg.Razorpay.KeyID != "" {
		rzpClient = razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	}

	hub := realtime.NewHub()
	go hub.Run()

	notificationModule := notification.NewModule(db, hub, cache)
	orderModule := order.NewModule(db, notificationModule.Service(), cfg.Payment.Timeout, rzpClient, cfg.Razorpay.KeySecret)

	// Re-arm payment windows for orders placed before the last shutdown.
	if err := orderModule.Service().ResumeWatchdogs(context.Background()); err != nil {
		log.Printf("Could not resume payment watchdogs: %v", err)
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	mux := gateway.SetupRoutes(gateway.RouterConfig{
		AuthMiddleware:      authMiddleware,
		NotificationHandler: notificationModule.HTTPHandler(),
		OrderHandler:        orderModule.HTTPHandler(),
	})

	handler := middleware.CORSMiddleware(middleware.PrometheusMiddleware(mux), cfg.Server.AllowedOrigins)

	server := gateway.NewServer(cfg.Server.Port, handler)
	server.OnShutdown(hub.Stop)
	server.OnShutdown(orderModule.Service().Shutdown)

	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func databaseURL(cfg database.PostgresConfig) string {
	return "postgres://" + url.QueryEscape(cfg.User) + ":" + url.QueryEscape(cfg.Password) +
		"@" + cfg.Host + ":" + cfg.Port + "/" + cfg.DBName + "?sslmode=" + cfg.SSLMode
}

func migrationsPath() string {
	if p := os.Getenv("MIGRATIONS_PATH"); p != "" {
		return p
	}
	return "migrations"
}
