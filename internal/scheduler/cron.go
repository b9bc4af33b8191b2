package scheduler

import (
	"context"
	"fmt"

	"github.com/amaumene/traktcache/internal/controllers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	syncCtrl  *controllers.SyncController
	flagsCtrl *controllers.FlagController
	logger    *logrus.Logger
}

// NewScheduler creates a new scheduler. schedule is a standard five-field
// cron spec for the unresolved retry job.
func NewScheduler(
	schedule string,
	syncCtrl *controllers.SyncController,
	flagsCtrl *controllers.FlagController,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		schedule:  schedule,
		syncCtrl:  syncCtrl,
		flagsCtrl: flagsCtrl,
		logger:    logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.WithField("schedule", s.schedule).Info("Starting scheduler")

	// Retry movies that were stored without metadata
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runRetryUnresolved()
	})
	if err != nil {
		return fmt.Errorf("failed to add retry job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// runRetryUnresolved executes the retry job
func (s *Scheduler) runRetryUnresolved() {
	s.logger.Info("Running scheduled retry of unresolved movies")
	ctx := context.Background()

	ids, err := s.flagsCtrl.UnresolvedMovieIDs(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list unresolved movies")
		return
	}

	if len(ids) == 0 {
		s.logger.Debug("No unresolved movies to retry")
		return
	}

	list := s.syncCtrl.Sync(ctx, ids)
	s.logger.WithFields(logrus.Fields{
		"unresolved": len(ids),
		"resolved":   list.Len(),
	}).Info("Retry job completed")
}
