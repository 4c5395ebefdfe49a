package kvstore

import (
	"testing"
)

func newStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := OpenInMemory()
	if err != nil {
		t.Fatalf("Failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGetAbsentKey(t *testing.T) {
	store := newStore(t)

	value, ok, err := store.Get("missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Expected ok=false for absent key")
	}
	if value != nil {
		t.Errorf("Expected nil value for absent key, got %q", value)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	store := newStore(t)

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"simple value", "greeting", "hello"},
		{"empty value", "empty", ""},
		{"json payload", "history", `[{"id":"1","bpm":72}]`},
		{"unicode", "note", "寿司 🍣"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Set(tt.key, []byte(tt.value)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			got, ok, err := store.Get(tt.key)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !ok {
				t.Fatal("Expected ok=true after Set")
			}
			if string(got) != tt.value {
				t.Errorf("Expected %q, got %q", tt.value, got)
			}
		})
	}
}

func TestSetReplacesValue(t *testing.T) {
	store := newStore(t)

	if err := store.Set("key", []byte("first")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set("key", []byte("second")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := store.Get("key")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if string(got) != "second" {
		t.Errorf("Expected replaced value %q, got %q", "second", got)
	}
}

func TestRemove(t *testing.T) {
	store := newStore(t)

	if err := store.Set("key", []byte("value")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Remove("key"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if _, ok, _ := store.Get("key"); ok {
		t.Error("Expected key to be absent after Remove")
	}

	// Removing an absent key is not an error.
	if err := store.Remove("never-existed"); err != nil {
		t.Errorf("Remove of absent key should succeed, got %v", err)
	}
}
