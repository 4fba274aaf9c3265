package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"iotkit-rental-backend/internal/jobs"
	"iotkit-rental-backend/internal/logger"
)

// Job names accepted by RunNow and used as cron entry labels.
const (
	JobMarkOverdueBorrowings = "mark-overdue-borrowings"
	JobSendPenaltyReminders  = "send-penalty-reminders"
	JobAllNightly            = "all-nightly"
)

type job struct {
	name string
	spec string
	run  func()
}

// Scheduler runs the nightly borrowing and penalty jobs on cron schedules
// taken from the scheduler config section.
type Scheduler struct {
	cron    *cron.Cron
	runner  *jobs.JobRunner
	entries map[string]cron.EntryID
}

func NewScheduler(runner *jobs.JobRunner) *Scheduler {
	// UTC, seconds precision; a run still in progress makes the next tick a no-op
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron:    c,
		runner:  runner,
		entries: make(map[string]cron.EntryID),
	}
	s.register()
	return s
}

func (s *Scheduler) jobs() []job {
	cfg := s.runner.Config().Scheduler
	return []job{
		{name: JobMarkOverdueBorrowings, spec: cfg.MarkOverdueBorrowings, run: s.runner.MarkOverdueBorrowings},
		{name: JobSendPenaltyReminders, spec: cfg.SendPenaltyReminders, run: s.runner.SendPenaltyReminders},
	}
}

func (s *Scheduler) register() {
	for _, j := range s.jobs() {
		id, err := s.cron.AddFunc(j.spec, j.run)
		if err != nil {
			logger.Error("Failed to register cron job", "job", j.name, "schedule", j.spec, "error", err)
			continue
		}
		s.entries[j.name] = id
	}
	logger.Info("Cron jobs registered", "count", len(s.entries))
}

// RunNow runs one job, or every nightly job for JobAllNightly, on the calling goroutine.
func (s *Scheduler) RunNow(name string) error {
	if name == JobAllNightly {
		s.runner.RunAllNightlyJobs()
		return nil
	}
	for _, j := range s.jobs() {
		if j.name == name {
			j.run()
			return nil
		}
	}
	return fmt.Errorf("unknown job %q (available: %s)", name, strings.Join(JobNames(), ", "))
}

// JobNames lists the names RunNow accepts.
func JobNames() []string {
	names := []string{JobMarkOverdueBorrowings, JobSendPenaltyReminders, JobAllNightly}
	sort.Strings(names)
	return names
}

// NextRuns reports the next activation of every registered job. Times are
// zero until the scheduler has started.
func (s *Scheduler) NextRuns() map[string]time.Time {
	next := make(map[string]time.Time, len(s.entries))
	for name, id := range s.entries {
		next[name] = s.cron.Entry(id).Next
	}
	return next
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for name, at := range s.NextRuns() {
		logger.Info("Cron job scheduled", "job", name, "next_run", at)
	}
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("Cron scheduler stopped")
}
