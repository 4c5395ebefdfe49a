package localstore

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"vitalog/internal/kvstore"
	"vitalog/internal/models"
)

// Storage keys for the heart-rate history. KeyLastHeartRate is the
// superseded single-reading record, kept only for the one-time migration.
const (
	KeyHeartRateHistory = "heart_rate_history"
	KeyLastHeartRate    = "last_heart_rate"
)

// DefaultHeartRateCap is the retention cap applied when none is configured.
const DefaultHeartRateCap = 200

// HeartRateStore is the heart-rate variant of the history cache.
type HeartRateStore struct {
	*History[models.HeartRateReading]
}

// NewHeartRateStore creates the heart-rate history over kv. cap <= 0 falls
// back to DefaultHeartRateCap.
func NewHeartRateStore(kv kvstore.Store, clock clockwork.Clock, cap int, logger *slog.Logger) *HeartRateStore {
	if cap <= 0 {
		cap = DefaultHeartRateCap
	}
	return &HeartRateStore{
		History: New(Config[models.HeartRateReading]{
			Store:        kv,
			Clock:        clock,
			Key:          KeyHeartRateHistory,
			Cap:          cap,
			LegacyKey:    KeyLastHeartRate,
			LegacyDecode: decodeLegacyHeartRate,
			Logger:       logger,
		}),
	}
}

// decodeLegacyHeartRate converts the old two-field record into a history
// entry with a fresh id and no metadata.
func decodeLegacyHeartRate(data []byte) (models.HeartRateReading, bool) {
	var legacy models.LegacyHeartRate
	if err := json.Unmarshal(data, &legacy); err != nil {
		return models.HeartRateReading{}, false
	}
	return models.HeartRateReading{
		ID:         uuid.New().String(),
		BPM:        legacy.BPM,
		MeasuredAt: legacy.MeasuredAt,
	}, true
}
