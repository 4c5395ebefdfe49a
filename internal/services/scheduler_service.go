package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// SchedulerService runs the periodic background jobs of the sync daemon:
// pushing pending diet entries and keeping the weather cache warm.
type SchedulerService struct {
	scheduler gocron.Scheduler
	diet      *DietService
	weather   *WeatherService
	logger    *slog.Logger

	latitude  float64
	longitude float64
}

// NewSchedulerService creates a scheduler for the given services. The
// coordinates are the user's home location used for weather refreshes.
func NewSchedulerService(diet *DietService, weather *WeatherService, latitude, longitude float64, logger *slog.Logger) (*SchedulerService, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SchedulerService{
		scheduler: scheduler,
		diet:      diet,
		weather:   weather,
		logger:    logger,
		latitude:  latitude,
		longitude: longitude,
	}, nil
}

// Start registers the periodic jobs and starts the scheduler.
func (s *SchedulerService) Start(syncInterval, weatherInterval time.Duration) error {
	if s.diet != nil && syncInterval > 0 {
		_, err := s.scheduler.NewJob(
			gocron.DurationJob(syncInterval),
			gocron.NewTask(s.runDietSync),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule diet sync: %w", err)
		}
	}

	if s.weather != nil && weatherInterval > 0 {
		_, err := s.scheduler.NewJob(
			gocron.DurationJob(weatherInterval),
			gocron.NewTask(s.refreshWeather),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule weather refresh: %w", err)
		}
	}

	s.scheduler.Start()
	s.logger.Info("scheduler started",
		"sync_interval", syncInterval,
		"weather_interval", weatherInterval)
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *SchedulerService) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *SchedulerService) runDietSync() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	synced, err := s.diet.SyncPending(ctx)
	if err != nil {
		s.logger.Warn("scheduled diet sync failed", "synced", synced, "error", err)
		return
	}
	if synced > 0 {
		s.logger.Info("scheduled diet sync pushed entries", "synced", synced)
	}
}

func (s *SchedulerService) refreshWeather() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if weather := s.weather.Current(ctx, s.latitude, s.longitude); weather == nil {
		s.logger.Warn("scheduled weather refresh failed")
	}
}
