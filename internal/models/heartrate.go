package models

import (
	"time"

	"github.com/google/uuid"
)

// HeartRateReading is a single heart-rate measurement kept in the local
// history cache and mirrored to the backend when a connection is available.
type HeartRateReading struct {
	ID         string    `json:"id"`
	BPM        int       `json:"bpm"`
	MeasuredAt Timestamp `json:"measuredAt"`
	Confidence float64   `json:"confidence,omitempty"`
	DeviceUsed string    `json:"deviceUsed,omitempty"`
	Source     string    `json:"source,omitempty"`
}

// NewHeartRateReading creates a reading with a fresh id.
func NewHeartRateReading(bpm int, measuredAt time.Time) HeartRateReading {
	return HeartRateReading{
		ID:         uuid.New().String(),
		BPM:        bpm,
		MeasuredAt: NewTimestamp(measuredAt),
	}
}

// RecordID implements localstore.Record.
func (r HeartRateReading) RecordID() string { return r.ID }

// RecordTime implements localstore.Record.
func (r HeartRateReading) RecordTime() time.Time { return r.MeasuredAt.Time }

// LegacyHeartRate is the superseded single-reading persisted format. It only
// ever carried the raw value and its timestamp; it survives for the one-time
// migration into the history list.
type LegacyHeartRate struct {
	BPM        int       `json:"bpm"`
	MeasuredAt Timestamp `json:"measuredAt"`
}
