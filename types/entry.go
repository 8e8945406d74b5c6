package types

import "time"

// DiaryEntry is a patient's record for a single calendar day.
// A user has at most one entry per date.
type DiaryEntry struct {
	// ID is the unique identifier of the entry.
	ID int `json:"id" db:"id"`

	// UserID identifies the owner. Only the owner may read or change the entry
	// through the diary endpoints.
	UserID int `json:"user_id" db:"user_id"`

	// Date is the calendar day the entry describes.
	Date Date `json:"date" db:"entry_date"`

	// Emotions maps an emotion name to its intensity for the day.
	Emotions map[string]int `json:"emotions" db:"emotions"`

	// SelfHarm records whether self-harm occurred.
	SelfHarm bool `json:"self_harm" db:"self_harm"`

	// SuicidalThoughts records whether suicidal thoughts occurred.
	SuicidalThoughts bool `json:"suicidal_thoughts" db:"suicidal_thoughts"`

	// StressfulEvents records whether a stressful event occurred.
	StressfulEvents bool `json:"stressful_events" db:"stressful_events"`

	// MedicationsTaken records whether prescribed medication was taken.
	MedicationsTaken bool `json:"medications_taken" db:"medications_taken"`

	// MedicationsNotes is free text about medication.
	MedicationsNotes string `json:"medications_notes" db:"medications_notes"`

	// Notes is free text for the day.
	Notes string `json:"notes" db:"notes"`

	// CreatedAt is the timestamp when the entry was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent change.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EntryFilter bounds a listing of entries. Start and End are inclusive.
type EntryFilter struct {
	Start     *Date
	End       *Date
	Ascending bool
	Offset    int
	Limit     int
}
