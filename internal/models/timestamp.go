package models

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the fixed textual encoding used for every persisted timestamp.
// The field value must stay parseable by older app versions, so the layout is
// pinned here rather than relying on encoding/json's default.
const TimeLayout = time.RFC3339

// Timestamp is a time.Time that marshals to the pinned TimeLayout.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, truncated to second precision to keep the encoded
// form stable across a round-trip.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.Truncate(time.Second)}
}

// MarshalJSON encodes the timestamp as a TimeLayout string.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Format(TimeLayout) + `"`), nil
}

// UnmarshalJSON decodes a TimeLayout string. An empty string decodes to the
// zero time so partially written legacy records stay readable.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(TimeLayout, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// SameDay reports whether both timestamps fall on the same calendar day in
// the local timezone.
func (t Timestamp) SameDay(other time.Time) bool {
	y1, m1, d1 := t.Local().Date()
	y2, m2, d2 := other.Local().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
