package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/goshowarr/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs periodic store-observation jobs. It only reads;
// episode creation belongs to the external ingester.
type Scheduler struct {
	cron     *cron.Cron
	db       *models.Database
	loc      *time.Location
	schedule string
	logger   *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(db *models.Database, loc *time.Location, schedule string, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		db:       db,
		loc:      loc,
		schedule: schedule,
		logger:   logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runStats()
	})
	if err != nil {
		return fmt.Errorf("failed to add stats job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	// Log a first snapshot immediately
	go s.runStats()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runStats logs a snapshot of the episode store
func (s *Scheduler) runStats() {
	total, err := s.db.CountEpisodes()
	if err != nil {
		s.logger.WithError(err).Error("Stats job failed to count episodes")
		return
	}

	fields := logrus.Fields{"total_episodes": total}

	latest, err := s.db.LatestEpisode(0)
	switch {
	case err == nil:
		fields["latest_showtime"] = latest.Showtime.In(s.loc).Format(time.RFC3339)
	case !errors.Is(err, models.ErrNotFound):
		s.logger.WithError(err).Error("Stats job failed to get latest episode")
		return
	}

	current, err := s.db.EpisodeAt(time.Now())
	switch {
	case err == nil:
		fields["broadcasting"] = current.Showtime.In(s.loc).Format("2006-01-02")
	case !errors.Is(err, models.ErrNotFound):
		s.logger.WithError(err).Error("Stats job failed to get current episode")
		return
	}

	s.logger.WithFields(fields).Info("Episode store snapshot")
}
