package localstore

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"vitalog/internal/kvstore"
	"vitalog/internal/models"
)

// KeyDietHistory is the storage key for the diet log. The diet variant has
// no legacy predecessor.
const KeyDietHistory = "diet_log_history"

// DefaultDietCap is the retention cap applied when none is configured.
const DefaultDietCap = 500

// DietStore is the diet-log variant of the history cache. On top of the
// shared history operations it tracks which entries the backend has
// acknowledged.
type DietStore struct {
	*History[models.DietEntry]
}

// NewDietStore creates the diet history over kv. cap <= 0 falls back to
// DefaultDietCap.
func NewDietStore(kv kvstore.Store, clock clockwork.Clock, cap int, logger *slog.Logger) *DietStore {
	if cap <= 0 {
		cap = DefaultDietCap
	}
	return &DietStore{
		History: New(Config[models.DietEntry]{
			Store:  kv,
			Clock:  clock,
			Key:    KeyDietHistory,
			Cap:    cap,
			Logger: logger,
		}),
	}
}

// MarkSynced flips the synced flag for every entry whose id is in ids.
// The collection is persisted once after all updates.
func (s *DietStore) MarkSynced(ids []string) {
	if len(ids) == 0 {
		return
	}
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	s.Modify(func(items []models.DietEntry) ([]models.DietEntry, bool) {
		changed := false
		for i := range items {
			if idSet[items[i].ID] && !items[i].Synced {
				items[i].Synced = true
				changed = true
			}
		}
		return items, changed
	})
}

// Unsynced returns the entries the backend has not acknowledged yet.
func (s *DietStore) Unsynced() []models.DietEntry {
	var out []models.DietEntry
	for _, entry := range s.LoadAll(0) {
		if !entry.Synced {
			out = append(out, entry)
		}
	}
	return out
}
