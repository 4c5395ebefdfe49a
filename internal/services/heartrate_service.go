package services

import (
	"context"
	"log/slog"
	"time"

	"vitalog/internal/baas"
	"vitalog/internal/localstore"
	"vitalog/internal/models"
)

// heartRateTable is the backend table mirroring local measurements.
const heartRateTable = "heart_rate_readings"

// HeartRateService records and reads heart-rate measurements. The local
// history cache is authoritative for reads; the backend insert is
// best-effort and never blocks recording.
type HeartRateService struct {
	store   *localstore.HeartRateStore
	client  *baas.Client
	auth    *AuthService
	metrics *Metrics
	logger  *slog.Logger
}

// NewHeartRateService creates a new heart-rate service
func NewHeartRateService(store *localstore.HeartRateStore, client *baas.Client, auth *AuthService, metrics *Metrics, logger *slog.Logger) *HeartRateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HeartRateService{
		store:   store,
		client:  client,
		auth:    auth,
		metrics: metrics,
		logger:  logger,
	}
}

// Record stores a new measurement locally and mirrors it to the backend
// when a session is available. The local append always happens first.
func (s *HeartRateService) Record(ctx context.Context, reading models.HeartRateReading) models.HeartRateReading {
	s.store.Append(reading)
	s.metrics.RecordCacheAppend(localstore.KeyHeartRateHistory)

	token := s.auth.AccessToken()
	if token == "" || s.client == nil {
		return reading
	}

	_, err := s.client.Table(heartRateTable, token).Insert(ctx, []models.HeartRateReading{reading})
	if err != nil {
		s.logger.Warn("remote heart-rate insert failed, kept locally", "error", err)
	}
	return reading
}

// History returns up to limit readings, most recent first. limit <= 0
// returns the full retained history.
func (s *HeartRateService) History(limit int) []models.HeartRateReading {
	s.metrics.RecordCacheRead(localstore.KeyHeartRateHistory)
	return s.store.LoadAll(limit)
}

// Latest returns the most recent reading if it is younger than maxAge.
// Used as the resting-rate fallback on screens that need a value before a
// fresh measurement completes.
func (s *HeartRateService) Latest(maxAge time.Duration) (models.HeartRateReading, bool) {
	s.metrics.RecordCacheRead(localstore.KeyHeartRateHistory)
	return s.store.LatestWithin(maxAge)
}

// ForDate returns the readings taken on the given local calendar day.
func (s *HeartRateService) ForDate(date time.Time) []models.HeartRateReading {
	s.metrics.RecordCacheRead(localstore.KeyHeartRateHistory)
	return s.store.ForDate(date)
}

// Weekly returns seven day-buckets of readings, today first.
func (s *HeartRateService) Weekly() [][]models.HeartRateReading {
	s.metrics.RecordCacheRead(localstore.KeyHeartRateHistory)
	return s.store.Weekly()
}

// Delete removes a reading from the local history.
func (s *HeartRateService) Delete(id string) {
	s.store.Delete(id)
}

// Clear wipes the local heart-rate history, including the legacy record.
func (s *HeartRateService) Clear() {
	s.store.Clear()
}
