// Package localstore implements the offline history caches: capped,
// time-ordered collections of timestamped readings persisted through a
// key-value store.
//
// The caches are a best-effort convenience layer, never the system of
// record. Per that contract, no public method returns an error: reads
// degrade to empty or absent, writes that cannot be encoded or persisted
// are logged and skipped, and mutations targeting an unknown id complete
// as no-ops.
package localstore

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"vitalog/internal/kvstore"
)

// Record is a single timestamped reading kept in a history cache.
type Record interface {
	// RecordID returns the unique, immutable identifier of the reading.
	RecordID() string

	// RecordTime returns when the reading was measured or logged,
	// not when it was inserted.
	RecordTime() time.Time
}

// Config configures a History store.
type Config[T Record] struct {
	// Store is the persisted key-value backend. Required.
	Store kvstore.Store

	// Clock supplies "now" for recency and calendar-day reads. Required.
	Clock clockwork.Clock

	// Key is the canonical storage key for the serialized collection.
	Key string

	// Cap is the maximum number of records retained. Appends beyond the
	// cap evict the oldest-by-position entries.
	Cap int

	// LegacyKey, when non-empty, names the superseded single-reading key.
	// On first read, if Key is absent and LegacyKey holds a value that
	// LegacyDecode accepts, a one-element history is synthesized from it.
	LegacyKey    string
	LegacyDecode func(data []byte) (T, bool)

	// Logger receives diagnostics for swallowed failures. Defaults to
	// slog.Default scoped to Key.
	Logger *slog.Logger
}

// History is a persisted, capped, append-optimized collection of records.
// Every mutating operation is a full read-modify-write of the collection,
// serialized by a per-store mutex so concurrent writers cannot lose updates.
type History[T Record] struct {
	kv           kvstore.Store
	clock        clockwork.Clock
	key          string
	legacyKey    string
	legacyDecode func(data []byte) (T, bool)
	cap          int
	logger       *slog.Logger

	mu       sync.Mutex
	migrated bool
}

// New creates a history store over cfg.Store. It does not touch storage;
// migration runs lazily before the first read.
func New[T Record](cfg Config[T]) *History[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("store_key", cfg.Key)
	}
	return &History[T]{
		kv:           cfg.Store,
		clock:        cfg.Clock,
		key:          cfg.Key,
		legacyKey:    cfg.LegacyKey,
		legacyDecode: cfg.LegacyDecode,
		cap:          cfg.Cap,
		logger:       logger,
	}
}

// Cap returns the configured retention cap.
func (h *History[T]) Cap() int { return h.cap }

// LoadAll returns the stored collection sorted by record time descending,
// truncated to limit. limit <= 0 means the configured cap. Returns an empty
// slice when nothing is stored or the stored bytes cannot be decoded.
func (h *History[T]) LoadAll(limit int) []T {
	h.mu.Lock()
	defer h.mu.Unlock()

	items := h.load()
	sortByTimeDesc(items)

	if limit <= 0 {
		limit = h.cap
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Append inserts r at the most-recent position and re-applies the cap,
// dropping the oldest-by-position entries. Evicted entries are permanently
// discarded.
func (h *History[T]) Append(r T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	items := h.load()
	items = append([]T{r}, items...)
	if h.cap > 0 && len(items) > h.cap {
		items = items[:h.cap]
	}
	h.persist(items)
}

// Update replaces the first entry whose id matches r. When no entry
// matches, nothing is rewritten.
func (h *History[T]) Update(r T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	items := h.load()
	for i := range items {
		if items[i].RecordID() == r.RecordID() {
			items[i] = r
			h.persist(items)
			return
		}
	}
}

// Delete removes every entry whose id matches. Absent ids are a no-op.
func (h *History[T]) Delete(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	items := h.load()
	kept := items[:0]
	removed := false
	for _, item := range items {
		if item.RecordID() == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if removed {
		h.persist(kept)
	}
}

// ForDate returns the entries whose record time falls on the same local
// calendar day as date, sorted by record time descending.
func (h *History[T]) ForDate(date time.Time) []T {
	all := h.LoadAll(0)
	var out []T
	for _, item := range all {
		if sameLocalDay(item.RecordTime(), date) {
			out = append(out, item)
		}
	}
	return out
}

// Weekly returns seven buckets covering the 7 days ending today inclusive.
// Bucket 0 is today, bucket 6 the oldest day.
func (h *History[T]) Weekly() [][]T {
	now := h.clock.Now()
	buckets := make([][]T, 7)
	for offset := 0; offset < 7; offset++ {
		buckets[offset] = h.ForDate(now.AddDate(0, 0, -offset))
	}
	return buckets
}

// LatestWithin returns the value of the most recent reading, but only when
// its record time is within maxAge of now. Stale readings are withheld so
// the app never presents an old fallback value as current.
func (h *History[T]) LatestWithin(maxAge time.Duration) (T, bool) {
	var zero T

	h.mu.Lock()
	items := h.load()
	h.mu.Unlock()

	if len(items) == 0 {
		return zero, false
	}

	sortByTimeDesc(items)
	latest := items[0]

	age := h.clock.Now().Sub(latest.RecordTime())
	if age < 0 {
		age = -age
	}
	if age > maxAge {
		return zero, false
	}
	return latest, true
}

// Clear removes the persisted collection and the legacy key, if any.
func (h *History[T]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.kv.Remove(h.key); err != nil {
		h.logger.Warn("failed to clear history", "error", err)
	}
	if h.legacyKey != "" {
		if err := h.kv.Remove(h.legacyKey); err != nil {
			h.logger.Warn("failed to clear legacy key", "error", err)
		}
	}
	h.migrated = false
}

// Modify loads the collection, applies fn, and persists the result when fn
// reports a change. fn receives the stored collection in stored order and
// runs under the store mutex; it must not call back into the store.
func (h *History[T]) Modify(fn func(items []T) ([]T, bool)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	items := h.load()
	updated, changed := fn(items)
	if changed {
		h.persist(updated)
	}
}

// load reads and decodes the stored collection, running the legacy
// migration first. Failures are logged and reported as an empty collection.
// Caller must hold h.mu.
func (h *History[T]) load() []T {
	h.ensureMigrated()

	data, ok, err := h.kv.Get(h.key)
	if err != nil {
		h.logger.Warn("failed to read history", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		// Treated as absence, not corruption: the cache is never the
		// system of record.
		h.logger.Warn("failed to decode history, treating as empty", "error", err)
		return nil
	}
	return items
}

// persist encodes and stores the full collection via atomic replace.
// Failures leave the prior value untouched. Caller must hold h.mu.
func (h *History[T]) persist(items []T) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		h.logger.Warn("failed to encode history, write skipped", "error", err)
		return
	}
	if err := h.kv.Set(h.key, data); err != nil {
		h.logger.Warn("failed to persist history, write skipped", "error", err)
	}
}

// ensureMigrated synthesizes a one-element history from the legacy
// single-reading record, once. The canonical key's presence (even holding
// an empty list) is the durable migration marker; the in-process flag only
// short-circuits the repeated storage check. Caller must hold h.mu.
func (h *History[T]) ensureMigrated() {
	if h.migrated || h.legacyKey == "" || h.legacyDecode == nil {
		return
	}

	if _, ok, err := h.kv.Get(h.key); err != nil || ok {
		h.migrated = ok
		return
	}

	legacy, ok, err := h.kv.Get(h.legacyKey)
	if err != nil || !ok {
		h.migrated = err == nil
		return
	}

	record, ok := h.legacyDecode(legacy)
	if !ok {
		h.logger.Warn("legacy record unreadable, skipping migration")
		h.migrated = true
		return
	}

	h.persist([]T{record})
	h.migrated = true
	h.logger.Info("migrated legacy reading into history", "legacy_key", h.legacyKey)
}

func sortByTimeDesc[T Record](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RecordTime().After(items[j].RecordTime())
	})
}

func sameLocalDay(a, b time.Time) bool {
	y1, m1, d1 := a.Local().Date()
	y2, m2, d2 := b.Local().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
