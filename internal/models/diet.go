package models

import (
	"time"

	"github.com/google/uuid"
)

// Meal type values stored in DietEntry.MealType.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// DietEntry is a single logged meal. Entries are created locally and pushed
// to the backend by the sync flow; Synced flips to true once the remote
// acknowledges the record.
type DietEntry struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	MealType string    `json:"mealType"`
	Calories int       `json:"calories"`
	LoggedAt Timestamp `json:"loggedAt"`
	Synced   bool      `json:"synced"`
}

// NewDietEntry creates an unsynced entry with a fresh id.
func NewDietEntry(name, mealType string, calories int, loggedAt time.Time) DietEntry {
	return DietEntry{
		ID:       uuid.New().String(),
		Name:     name,
		MealType: mealType,
		Calories: calories,
		LoggedAt: NewTimestamp(loggedAt),
	}
}

// RecordID implements localstore.Record.
func (e DietEntry) RecordID() string { return e.ID }

// RecordTime implements localstore.Record.
func (e DietEntry) RecordTime() time.Time { return e.LoggedAt.Time }
