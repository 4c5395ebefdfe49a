package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"vitalog/internal/baas"
	"vitalog/internal/localstore"
	"vitalog/internal/models"
)

// dietTable is the backend table holding synced diet entries.
const dietTable = "diet_entries"

// syncBatchSize caps how many entries one sync push carries.
const syncBatchSize = 50

// DietService manages the diet log: entries are written to the local
// history immediately and pushed to the backend by SyncPending. Reads come
// from the local history only.
type DietService struct {
	store   *localstore.DietStore
	client  *baas.Client
	auth    *AuthService
	metrics *Metrics
	logger  *slog.Logger
}

// NewDietService creates a new diet service
func NewDietService(store *localstore.DietStore, client *baas.Client, auth *AuthService, metrics *Metrics, logger *slog.Logger) *DietService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DietService{
		store:   store,
		client:  client,
		auth:    auth,
		metrics: metrics,
		logger:  logger,
	}
}

// Log appends a new entry to the local diet history.
func (s *DietService) Log(entry models.DietEntry) models.DietEntry {
	entry.Synced = false
	s.store.Append(entry)
	s.metrics.RecordCacheAppend(localstore.KeyDietHistory)
	return entry
}

// Update replaces the stored entry with the same id. Editing an entry
// makes it pending again so the edit reaches the backend.
func (s *DietService) Update(entry models.DietEntry) {
	entry.Synced = false
	s.store.Update(entry)
}

// Delete removes an entry locally and, when a session is available,
// best-effort from the backend.
func (s *DietService) Delete(ctx context.Context, id string) {
	s.store.Delete(id)

	token := s.auth.AccessToken()
	if token == "" || s.client == nil {
		return
	}
	filters := url.Values{"id": {"eq." + id}}
	if err := s.client.Table(dietTable, token).Delete(ctx, filters); err != nil {
		s.logger.Warn("remote diet delete failed", "entry_id", id, "error", err)
	}
}

// Entries returns up to limit entries, most recent first.
func (s *DietService) Entries(limit int) []models.DietEntry {
	s.metrics.RecordCacheRead(localstore.KeyDietHistory)
	return s.store.LoadAll(limit)
}

// ForDate returns the entries logged on the given local calendar day.
func (s *DietService) ForDate(date time.Time) []models.DietEntry {
	s.metrics.RecordCacheRead(localstore.KeyDietHistory)
	return s.store.ForDate(date)
}

// Weekly returns seven day-buckets of entries, today first.
func (s *DietService) Weekly() [][]models.DietEntry {
	s.metrics.RecordCacheRead(localstore.KeyDietHistory)
	return s.store.Weekly()
}

// CaloriesForDate sums the calories logged on the given day.
func (s *DietService) CaloriesForDate(date time.Time) int {
	total := 0
	for _, entry := range s.ForDate(date) {
		total += entry.Calories
	}
	return total
}

// Pending returns the entries the backend has not acknowledged yet.
func (s *DietService) Pending() []models.DietEntry {
	return s.store.Unsynced()
}

// SyncPending pushes unsynced entries to the backend and marks the ids the
// backend acknowledged. Entries the backend did not acknowledge stay
// pending for the next cycle. Returns the number of entries synced.
func (s *DietService) SyncPending(ctx context.Context) (int, error) {
	pending := s.store.Unsynced()
	if len(pending) == 0 {
		return 0, nil
	}

	token := s.auth.AccessToken()
	if token == "" {
		return 0, fmt.Errorf("no active session")
	}

	s.metrics.RecordSyncBatch()

	synced := 0
	for start := 0; start < len(pending); start += syncBatchSize {
		end := start + syncBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		acked, err := s.pushBatch(ctx, token, batch)
		if len(acked) > 0 {
			s.store.MarkSynced(acked)
			synced += len(acked)
			s.metrics.RecordSynced(len(acked))
		}
		if err != nil {
			s.metrics.RecordSyncFailure()
			s.logger.Warn("diet sync batch failed", "synced", synced, "error", err)
			return synced, err
		}
	}

	s.logger.Info("diet sync complete", "synced", synced)
	return synced, nil
}

// pushBatch upserts one batch and returns the ids present in the backend's
// returned representations. Only those ids count as acknowledged.
func (s *DietService) pushBatch(ctx context.Context, token string, batch []models.DietEntry) ([]string, error) {
	rows, err := s.client.Table(dietTable, token).Upsert(ctx, batch)
	if err != nil {
		return nil, err
	}

	acked := make([]string, 0, len(rows))
	for _, row := range rows {
		if id, ok := row["id"].(string); ok && id != "" {
			acked = append(acked, id)
		}
	}
	return acked, nil
}

// Clear wipes the local diet history.
func (s *DietService) Clear() {
	s.store.Clear()
}
