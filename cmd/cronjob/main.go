package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/lib/pq"

	"iotkit-rental-backend/internal/config"
	"iotkit-rental-backend/internal/jobs"
	"iotkit-rental-backend/internal/logger"
	"iotkit-rental-backend/internal/repository/postgres"
	"iotkit-rental-backend/internal/scheduler"
	"iotkit-rental-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run one job and exit: "+strings.Join(scheduler.JobNames(), ", "))
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
	logger.Info("Starting IoT kit rental cronjob runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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
	emailService := service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)

	jobRunner := jobs.NewJobRunner(store.Repositories, emailService, cfg)

	cronScheduler := scheduler.NewScheduler(jobRunner)

	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := cronScheduler.RunNow(*runOnce); err != nil {
			logger.Error("Job run failed", "job", *runOnce, "error", err)
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped")
}
