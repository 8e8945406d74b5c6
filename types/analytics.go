package types

// BehaviorCounts counts entries where each flag was set.
type BehaviorCounts struct {
	SelfHarm         int `json:"self_harm"`
	SuicidalThoughts int `json:"suicidal_thoughts"`
	StressfulEvents  int `json:"stressful_events"`
	MedicationsTaken int `json:"medications_taken"`
}

// BehaviorSummary is the response of the behaviors summary.
type BehaviorSummary struct {
	Counts       BehaviorCounts `json:"counts"`
	TotalEntries int            `json:"total_entries"`
}

// BehaviorSeries holds one boolean per entry for each flag, aligned with the date axis.
type BehaviorSeries struct {
	SelfHarm         []bool `json:"self_harm"`
	SuicidalThoughts []bool `json:"suicidal_thoughts"`
	StressfulEvents  []bool `json:"stressful_events"`
	MedicationsTaken []bool `json:"medications_taken"`
}

// EmotionSummary pairs the date axis with per-emotion intensity series.
type EmotionSummary struct {
	Dates    []Date           `json:"dates"`
	Emotions map[string][]int `json:"emotions"`
}

// PatientDetails is the therapist's detailed view of one linked patient.
type PatientDetails struct {
	Dates     []Date           `json:"dates"`
	Emotions  map[string][]int `json:"emotions"`
	Behaviors BehaviorSeries   `json:"behaviors"`
}

// PatientSummary is one row of a therapist's patient overview.
type PatientSummary struct {
	PatientID       int      `json:"patient_id"`
	Name            string   `json:"name"`
	LastEntryDate   *Date    `json:"last_entry_date"`
	EntriesLastWeek int      `json:"entries_last_week"`
	RiskFactors     []string `json:"risk_factors"`
	NeedsAttention  bool     `json:"needs_attention"`
}
