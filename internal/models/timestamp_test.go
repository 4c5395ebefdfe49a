package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampRoundTrip(t *testing.T) {
	original := NewTimestamp(time.Date(2026, 8, 24, 9, 30, 15, 0, time.UTC))

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `"2026-08-24T09:30:15Z"` {
		t.Errorf("Expected pinned layout, got %s", data)
	}

	var decoded Timestamp
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !decoded.Equal(original.Time) {
		t.Errorf("Expected %v, got %v", original, decoded)
	}
}

func TestTimestampEmptyAndInvalid(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`""`), &ts); err != nil {
		t.Fatalf("Empty string should decode to zero time, got %v", err)
	}
	if !ts.IsZero() {
		t.Error("Expected zero time for empty string")
	}

	if err := json.Unmarshal([]byte(`"yesterday-ish"`), &ts); err == nil {
		t.Error("Expected error for unparseable timestamp")
	}
}

func TestHeartRateReadingJSONFields(t *testing.T) {
	r := HeartRateReading{
		ID:         "abc",
		BPM:        72,
		MeasuredAt: NewTimestamp(time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)),
		Confidence: 0.93,
		DeviceUsed: "polar-h10",
		Source:     "chest_strap",
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	// Field names are part of the persisted format and must stay stable.
	for _, name := range []string{"id", "bpm", "measuredAt", "confidence", "deviceUsed", "source"} {
		if _, ok := fields[name]; !ok {
			t.Errorf("Expected field %q in encoded reading, got %s", name, data)
		}
	}
}

func TestLegacyHeartRateDecodes(t *testing.T) {
	var legacy LegacyHeartRate
	payload := `{"bpm":68,"measuredAt":"2026-08-23T22:15:00Z"}`
	if err := json.Unmarshal([]byte(payload), &legacy); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if legacy.BPM != 68 {
		t.Errorf("Expected bpm 68, got %d", legacy.BPM)
	}
	if legacy.MeasuredAt.IsZero() {
		t.Error("Expected measuredAt to be parsed")
	}
}

func TestSameDay(t *testing.T) {
	morning := NewTimestamp(time.Date(2026, 8, 24, 0, 5, 0, 0, time.Local))
	night := time.Date(2026, 8, 24, 23, 55, 0, 0, time.Local)
	nextDay := time.Date(2026, 8, 25, 0, 5, 0, 0, time.Local)

	if !morning.SameDay(night) {
		t.Error("Expected same calendar day")
	}
	if morning.SameDay(nextDay) {
		t.Error("Expected different calendar days")
	}
}
