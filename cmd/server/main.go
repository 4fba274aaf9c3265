package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcapi "iotkit-rental-backend/internal/api/grpc"
	httpapi "iotkit-rental-backend/internal/api/http"
	"iotkit-rental-backend/internal/config"
	"iotkit-rental-backend/internal/events"
	"iotkit-rental-backend/internal/idempotency"
	"iotkit-rental-backend/internal/logger"
	"iotkit-rental-backend/internal/repository/postgres"
	"iotkit-rental-backend/internal/security"
	"iotkit-rental-backend/internal/service"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.EnableRollbar(cfg.Rollbar.Token, cfg.Rollbar.Environment, cfg.Server.Host)
	defer logger.CloseRollbar()
	logger.Info("Starting IoT kit rental backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http", cfg.GetServerAddress(), "grpc", cfg.GetGRPCAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)

	// Integrations degrade to logging-only fallbacks when not configured
	publisher := events.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	defer publisher.Close()

	idem, closeRedis := newIdempotencyStore(cfg.Redis)
	defer closeRedis()

	emailSvc := service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)

	// Initialize Services
	repos := store.Repositories
	services := httpapi.Services{
		Settlement:   service.NewSettlementService(repos, store, emailSvc, publisher, idem),
		Penalty:      service.NewPenaltyService(repos, store, emailSvc, publisher),
		Policy:       service.NewPolicyService(repos.Policies),
		Refund:       service.NewRefundService(repos, store, emailSvc, publisher, cfg.Billing.LateFeePerDay),
		Notification: service.NewNotificationService(repos.Notifications),
		Wallet:       service.NewWalletService(repos.Wallets),
	}

	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	router := httpapi.NewRouter(httpapi.NewHandlers(services, db), tokenManager)

	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC health and reflection
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	grpcServer, healthServer := grpcapi.NewServer()
	go grpcapi.WatchDatabase(ctx, healthServer, db, 15*time.Second)

	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}
	go func() {
		logger.Info("gRPC health server listening", "address", cfg.GetGRPCAddress())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", "error", err)
		}
	}()

	go func() {
		logger.Info("HTTP API listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("Server stopped")
}

func newIdempotencyStore(cfg config.RedisConfig) (idempotency.Store, func()) {
	if cfg.URL == "" {
		logger.Warn("Redis URL not set, idempotency keys are not enforced")
		return idempotency.NoopStore{}, func() {}
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		logger.Error("Invalid Redis URL, idempotency keys are not enforced", "error", err)
		return idempotency.NoopStore{}, func() {}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Redis unreachable, idempotency keys are not enforced", "error", err)
		_ = client.Close()
		return idempotency.NoopStore{}, func() {}
	}
	logger.Info("Redis idempotency store connected", "prefix", cfg.KeyPrefix)

	store := idempotency.NewRedisStore(client, cfg.KeyPrefix,
		time.Duration(cfg.IdempotencyTTLMinutes)*time.Minute,
		time.Duration(cfg.IdempotencyLockSeconds)*time.Second)
	return store, func() { _ = client.Close() }
}
