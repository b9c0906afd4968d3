package cron

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"refbot/internal/repository"
)

// Scheduler manages the bot's periodic maintenance jobs.
type Scheduler struct {
	cron   *cron.Cron
	stats  *repository.StatsRepository
	logger *zap.Logger
}

// New creates a new cron scheduler.
func New(stats *repository.StatsRepository, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		stats:  stats,
		logger: logger,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	// Reset the daily registration counter at midnight
	s.cron.AddFunc("0 0 0 * * *", func() {
		s.logger.Debug("Running: daily stats reset")
		s.resetDailyStats()
	})

	s.cron.Start()
}

// Stop stops the scheduler and returns a context that is done once
// running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) resetDailyStats() {
	if err := s.stats.ResetTodayUsers(); err != nil {
		s.logger.Error("failed to reset daily stats", zap.Error(err))
		return
	}
	s.logger.Info("Daily stats reset")
}
