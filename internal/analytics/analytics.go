// Package analytics reduces diary entries into the series and counters served by the
// analytics endpoints. Functions here are pure and preserve the order of their input.
package analytics

import (
	"github.com/emodiary/apiserver/types"
)

// Risk factor labels reported for a patient's trailing week.
const (
	RiskSelfHarm         = "self_harm"
	RiskSuicidalThoughts = "suicidal_thoughts"
)

// WeekDays is the length of the trailing window used by the patient overview, today included.
const WeekDays = 7

// EmotionTrends groups intensities by emotion name. Each series lists values in the order the
// entries were given; days on which an emotion was not recorded are skipped, not filled.
func EmotionTrends(entries []types.DiaryEntry) map[string][]int {
	trends := make(map[string][]int)
	for _, entry := range entries {
		for emotion, intensity := range entry.Emotions {
			trends[emotion] = append(trends[emotion], intensity)
		}
	}
	return trends
}

// Dates returns the date axis of entries.
func Dates(entries []types.DiaryEntry) []types.Date {
	dates := make([]types.Date, 0, len(entries))
	for _, entry := range entries {
		dates = append(dates, entry.Date)
	}
	return dates
}

// BehaviorCounts counts the entries where each flag was set.
func BehaviorCounts(entries []types.DiaryEntry) types.BehaviorSummary {
	var counts types.BehaviorCounts
	for _, entry := range entries {
		if entry.SelfHarm {
			counts.SelfHarm++
		}
		if entry.SuicidalThoughts {
			counts.SuicidalThoughts++
		}
		if entry.StressfulEvents {
			counts.StressfulEvents++
		}
		if entry.MedicationsTaken {
			counts.MedicationsTaken++
		}
	}
	return types.BehaviorSummary{Counts: counts, TotalEntries: len(entries)}
}

// BehaviorSeries lays out each flag as a series aligned with Dates(entries).
func BehaviorSeries(entries []types.DiaryEntry) types.BehaviorSeries {
	series := types.BehaviorSeries{
		SelfHarm:         make([]bool, 0, len(entries)),
		SuicidalThoughts: make([]bool, 0, len(entries)),
		StressfulEvents:  make([]bool, 0, len(entries)),
		MedicationsTaken: make([]bool, 0, len(entries)),
	}
	for _, entry := range entries {
		series.SelfHarm = append(series.SelfHarm, entry.SelfHarm)
		series.SuicidalThoughts = append(series.SuicidalThoughts, entry.SuicidalThoughts)
		series.StressfulEvents = append(series.StressfulEvents, entry.StressfulEvents)
		series.MedicationsTaken = append(series.MedicationsTaken, entry.MedicationsTaken)
	}
	return series
}

// RiskFactorsForWeek lists the risk labels present in any of the entries, self harm first.
// The result is never nil.
func RiskFactorsForWeek(entries []types.DiaryEntry) []string {
	var selfHarm, suicidal bool
	for _, entry := range entries {
		selfHarm = selfHarm || entry.SelfHarm
		suicidal = suicidal || entry.SuicidalThoughts
	}
	factors := make([]string, 0, 2)
	if selfHarm {
		factors = append(factors, RiskSelfHarm)
	}
	if suicidal {
		factors = append(factors, RiskSuicidalThoughts)
	}
	return factors
}

// WeekWindow returns the inclusive bounds of the trailing week ending on today.
func WeekWindow(today types.Date) (start, end types.Date) {
	return today.AddDays(-(WeekDays - 1)), today
}

// Summarize builds one overview row for a patient from the entries in its trailing week.
func Summarize(patient types.User, lastEntry *types.Date, week []types.DiaryEntry) types.PatientSummary {
	risks := RiskFactorsForWeek(week)
	return types.PatientSummary{
		PatientID:       patient.ID,
		Name:            patient.FullName(),
		LastEntryDate:   lastEntry,
		EntriesLastWeek: len(week),
		RiskFactors:     risks,
		NeedsAttention:  len(risks) > 0,
	}
}

// Details assembles the therapist's per-patient view from date-ordered entries.
func Details(entries []types.DiaryEntry) types.PatientDetails {
	return types.PatientDetails{
		Dates:     Dates(entries),
		Emotions:  EmotionTrends(entries),
		Behaviors: BehaviorSeries(entries),
	}
}
