// Package scheduler runs the daily refresh job on a fixed UTC wall-clock
// time.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Refresher is the job the scheduler runs.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler triggers a refresh once per day.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	at        string // "HH:MM", UTC
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a Scheduler that refreshes daily at the given UTC time.
func New(refresher Refresher, at string, timeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		at:        at,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the daily job and starts the scheduler in the background.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Day().At(s.at).Do(func() {
		s.logger.Info("scheduled refresh starting", "at", s.at)

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.refresher.Refresh(ctx); err != nil {
			s.logger.Error("scheduled refresh failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels future jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
