package localstore

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"vitalog/internal/kvstore"
	"vitalog/internal/models"
)

func newTestKV(t *testing.T) *kvstore.BadgerStore {
	t.Helper()
	store, err := kvstore.OpenInMemory()
	if err != nil {
		t.Fatalf("Failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testClockAt(t time.Time) clockwork.Clock {
	return clockwork.NewFakeClockAt(t)
}

// noon on a fixed day, in the local timezone so calendar-day filtering
// behaves the same everywhere
var testNow = time.Date(2026, 8, 24, 12, 0, 0, 0, time.Local)

func reading(bpm int, measuredAt time.Time) models.HeartRateReading {
	r := models.NewHeartRateReading(bpm, measuredAt)
	return r
}

func TestAppendCapInvariant(t *testing.T) {
	kv := newTestKV(t)
	store := NewHeartRateStore(kv, testClockAt(testNow), 3, nil)

	for i := 1; i <= 5; i++ {
		store.Append(reading(60+i, testNow.Add(time.Duration(i)*time.Minute)))

		got := len(store.LoadAll(0))
		want := i
		if want > 3 {
			want = 3
		}
		if got != want {
			t.Errorf("After %d appends: expected %d stored, got %d", i, want, got)
		}
	}

	// The three most recently appended readings survive, sorted by
	// measuredAt descending.
	items := store.LoadAll(0)
	wantBPM := []int{65, 64, 63}
	for i, want := range wantBPM {
		if items[i].BPM != want {
			t.Errorf("items[%d]: expected bpm %d, got %d", i, want, items[i].BPM)
		}
	}
}

func TestLoadAllLimit(t *testing.T) {
	kv := newTestKV(t)
	store := NewHeartRateStore(kv, testClockAt(testNow), 10, nil)

	for i := 0; i < 6; i++ {
		store.Append(reading(70+i, testNow.Add(time.Duration(i)*time.Minute)))
	}

	if got := len(store.LoadAll(4)); got != 4 {
		t.Errorf("Expected 4 readings with limit 4, got %d", got)
	}
	if got := len(store.LoadAll(0)); got != 6 {
		t.Errorf("Expected 6 readings with no limit, got %d", got)
	}
}

func TestLegacyMigration(t *testing.T) {
	kv := newTestKV(t)

	legacy, _ := json.Marshal(models.LegacyHeartRate{
		BPM:        72,
		MeasuredAt: models.NewTimestamp(testNow.Add(-time.Hour)),
	})
	if err := kv.Set(KeyLastHeartRate, legacy); err != nil {
		t.Fatalf("Failed to seed legacy key: %v", err)
	}

	store := NewHeartRateStore(kv, testClockAt(testNow), 200, nil)

	first := store.LoadAll(0)
	if len(first) != 1 {
		t.Fatalf("Expected 1 migrated reading, got %d", len(first))
	}
	if first[0].BPM != 72 {
		t.Errorf("Expected migrated bpm 72, got %d", first[0].BPM)
	}
	if first[0].ID == "" {
		t.Error("Migrated reading should have a fresh id")
	}

	// Canonical key is now populated: clearing the legacy key must not
	// affect subsequent reads, and migration must not re-fire.
	if _, ok, _ := kv.Get(KeyHeartRateHistory); !ok {
		t.Fatal("Canonical key should be populated after migration")
	}
	if err := kv.Remove(KeyLastHeartRate); err != nil {
		t.Fatalf("Failed to remove legacy key: %v", err)
	}

	second := store.LoadAll(0)
	if len(second) != 1 || second[0].ID != first[0].ID {
		t.Errorf("Expected identical result on second load, got %+v", second)
	}
}

func TestMigrationSkippedWhenCanonicalExists(t *testing.T) {
	kv := newTestKV(t)

	clock := testClockAt(testNow)
	store := NewHeartRateStore(kv, clock, 200, nil)
	store.Append(reading(80, testNow))

	legacy, _ := json.Marshal(models.LegacyHeartRate{BPM: 55, MeasuredAt: models.NewTimestamp(testNow)})
	if err := kv.Set(KeyLastHeartRate, legacy); err != nil {
		t.Fatalf("Failed to seed legacy key: %v", err)
	}

	// Fresh store instance so the in-process flag is cold.
	reopened := NewHeartRateStore(kv, clock, 200, nil)
	items := reopened.LoadAll(0)
	if len(items) != 1 || items[0].BPM != 80 {
		t.Errorf("Migration should not fire when canonical key exists, got %+v", items)
	}
}

func TestLatestWithin(t *testing.T) {
	tests := []struct {
		name     string
		age      time.Duration
		maxAge   time.Duration
		expectOK bool
	}{
		{"23h old within 24h window", 23 * time.Hour, 24 * time.Hour, true},
		{"25h old outside 24h window", 25 * time.Hour, 24 * time.Hour, false},
		{"exactly at the boundary", 24 * time.Hour, 24 * time.Hour, true},
		{"fresh reading", time.Minute, 24 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := newTestKV(t)
			store := NewHeartRateStore(kv, testClockAt(testNow), 200, nil)
			store.Append(reading(64, testNow.Add(-tt.age)))

			got, ok := store.LatestWithin(tt.maxAge)
			if ok != tt.expectOK {
				t.Fatalf("Expected ok=%v, got ok=%v", tt.expectOK, ok)
			}
			if ok && got.BPM != 64 {
				t.Errorf("Expected bpm 64, got %d", got.BPM)
			}
		})
	}
}

func TestLatestWithinEmpty(t *testing.T) {
	kv := newTestKV(t)
	store := NewHeartRateStore(kv, testClockAt(testNow), 200, nil)

	if _, ok := store.LatestWithin(24 * time.Hour); ok {
		t.Error("Expected absent result on empty history")
	}
}

func TestForDateAndWeekly(t *testing.T) {
	kv := newTestKV(t)
	store := NewHeartRateStore(kv, testClockAt(testNow), 200, nil)

	today9 := time.Date(2026, 8, 24, 9, 0, 0, 0, time.Local)
	today18 := time.Date(2026, 8, 24, 18, 0, 0, 0, time.Local)
	yesterday10 := time.Date(2026, 8, 23, 10, 0, 0, 0, time.Local)

	store.Append(reading(61, today9))
	store.Append(reading(62, today18))
	store.Append(reading(63, yesterday10))

	today := store.ForDate(testNow)
	if len(today) != 2 {
		t.Fatalf("Expected 2 readings for today, got %d", len(today))
	}
	if today[0].BPM != 62 || today[1].BPM != 61 {
		t.Errorf("Expected today's readings sorted descending [62 61], got [%d %d]",
			today[0].BPM, today[1].BPM)
	}

	weekly := store.Weekly()
	if len(weekly) != 7 {
		t.Fatalf("Expected 7 weekly buckets, got %d", len(weekly))
	}
	if len(weekly[0]) != 2 {
		t.Errorf("Expected 2 readings in today's bucket, got %d", len(weekly[0]))
	}
	if len(weekly[1]) != 1 || weekly[1][0].BPM != 63 {
		t.Errorf("Expected yesterday's bucket to hold the 63 bpm reading, got %+v", weekly[1])
	}
	for i := 2; i < 7; i++ {
		if len(weekly[i]) != 0 {
			t.Errorf("Expected empty bucket at offset %d, got %d entries", i, len(weekly[i]))
		}
	}
}

func TestUpdate(t *testing.T) {
	kv := newTestKV(t)
	store := NewHeartRateStore(kv, testClockAt(testNow), 200, nil)

	r := reading(70, testNow)
	store.Append(r)

	r.BPM = 75
	store.Update(r)

	items := store.LoadAll(0)
	if len(items) != 1 || items[0].BPM != 75 {
		t.Errorf("Expected updated bpm 75, got %+v", items)
	}
}

func TestUpdateUnknownIDIsNoOp(t *testing.T) {
	kv := newTestKV(t)
	store := NewHeartRateStore(kv, testClockAt(testNow), 200, nil)
	store.Append(reading(70, testNow))

	before, _, _ := kv.Get(KeyHeartRateHistory)

	stranger := reading(99, testNow)
	store.Update(stranger)

	after, _, _ := kv.Get(KeyHeartRateHistory)
	if string(before) != string(after) {
		t.Error("Update with unknown id should not rewrite the collection")
	}
}

func TestDelete(t *testing.T) {
	kv := newTestKV(t)
	store := NewHeartRateStore(kv, testClockAt(testNow), 200, nil)

	r1 := reading(70, testNow)
	r2 := reading(71, testNow.Add(time.Minute))
	store.Append(r1)
	store.Append(r2)

	store.Delete(r1.ID)
	items := store.LoadAll(0)
	if len(items) != 1 || items[0].ID != r2.ID {
		t.Errorf("Expected only the second reading to survive, got %+v", items)
	}

	// Deleting an absent id is silent.
	store.Delete("no-such-id")
	if got := len(store.LoadAll(0)); got != 1 {
		t.Errorf("Expected 1 reading after deleting absent id, got %d", got)
	}
}

func TestClear(t *testing.T) {
	kv := newTestKV(t)

	legacy, _ := json.Marshal(models.LegacyHeartRate{BPM: 72, MeasuredAt: models.NewTimestamp(testNow)})
	if err := kv.Set(KeyLastHeartRate, legacy); err != nil {
		t.Fatalf("Failed to seed legacy key: %v", err)
	}

	store := NewHeartRateStore(kv, testClockAt(testNow), 200, nil)
	store.Append(reading(70, testNow))
	store.Clear()

	if got := len(store.LoadAll(0)); got != 0 {
		t.Errorf("Expected empty history after Clear, got %d entries", got)
	}
	if _, ok, _ := kv.Get(KeyLastHeartRate); ok {
		t.Error("Clear should remove the legacy key")
	}
}

func TestDecodeFailureDegradesToEmpty(t *testing.T) {
	kv := newTestKV(t)
	if err := kv.Set(KeyHeartRateHistory, []byte("not valid json {")); err != nil {
		t.Fatalf("Failed to seed corrupt value: %v", err)
	}

	store := NewHeartRateStore(kv, testClockAt(testNow), 200, nil)
	if got := len(store.LoadAll(0)); got != 0 {
		t.Fatalf("Expected empty result for corrupt data, got %d entries", got)
	}

	// The store stays usable: the next append replaces the corrupt value.
	store.Append(reading(68, testNow))
	items := store.LoadAll(0)
	if len(items) != 1 || items[0].BPM != 68 {
		t.Errorf("Expected 1 reading after recovery append, got %+v", items)
	}
}

func TestDietMarkSyncedAndUnsynced(t *testing.T) {
	kv := newTestKV(t)
	store := NewDietStore(kv, testClockAt(testNow), 500, nil)

	entries := make([]models.DietEntry, 3)
	for i := range entries {
		entries[i] = models.NewDietEntry(
			fmt.Sprintf("meal-%d", i), models.MealLunch, 400+i,
			testNow.Add(time.Duration(i)*time.Minute))
		store.Append(entries[i])
	}

	store.MarkSynced([]string{entries[0].ID, entries[2].ID})

	unsynced := store.Unsynced()
	if len(unsynced) != 1 {
		t.Fatalf("Expected 1 unsynced entry, got %d", len(unsynced))
	}
	if unsynced[0].ID != entries[1].ID {
		t.Errorf("Expected entry %s to stay unsynced, got %s", entries[1].ID, unsynced[0].ID)
	}

	// Marking already-synced or unknown ids changes nothing.
	store.MarkSynced([]string{entries[0].ID, "no-such-id"})
	if got := len(store.Unsynced()); got != 1 {
		t.Errorf("Expected 1 unsynced entry after redundant mark, got %d", got)
	}
}

func TestRoundTripUnicode(t *testing.T) {
	kv := newTestKV(t)
	store := NewDietStore(kv, testClockAt(testNow), 500, nil)

	entry := models.NewDietEntry("寿司 🍣 with crème fraîche", models.MealDinner, 520, testNow)
	store.Append(entry)

	items := store.LoadAll(0)
	if len(items) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(items))
	}
	got := items[0]
	if got.ID != entry.ID || got.Name != entry.Name || got.Calories != entry.Calories {
		t.Errorf("Round-trip mismatch: expected %+v, got %+v", entry, got)
	}
	if !got.LoggedAt.Equal(entry.LoggedAt.Time) {
		t.Errorf("Expected loggedAt %v, got %v", entry.LoggedAt, got.LoggedAt)
	}
}

func TestEmptyCollectionRoundTrip(t *testing.T) {
	kv := newTestKV(t)
	store := NewDietStore(kv, testClockAt(testNow), 500, nil)

	entry := models.NewDietEntry("toast", models.MealBreakfast, 180, testNow)
	store.Append(entry)
	store.Delete(entry.ID)

	// An explicitly persisted empty collection decodes as empty and, for a
	// store with a legacy key, counts as "migrated".
	if got := len(store.LoadAll(0)); got != 0 {
		t.Errorf("Expected empty collection, got %d entries", got)
	}
}
