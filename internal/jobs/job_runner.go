package jobs

import (
	"time"

	"iotkit-rental-backend/internal/config"
	"iotkit-rental-backend/internal/logger"
	"iotkit-rental-backend/internal/repository"
	"iotkit-rental-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	repos    repository.Repositories
	emailSvc service.EmailService
	config   *config.Config
	now      func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(repos repository.Repositories, emailSvc service.EmailService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		repos:    repos,
		emailSvc: emailSvc,
		config:   cfg,
		now:      time.Now,
	}
}

// Config exposes the configuration the jobs were built with.
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.MarkOverdueBorrowings()
	jr.SendPenaltyReminders()
}
