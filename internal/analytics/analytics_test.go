package analytics

import (
	"testing"
	"time"

	"github.com/emodiary/apiserver/types"
	"github.com/stretchr/testify/assert"
)

func entryOn(day int, emotions map[string]int) types.DiaryEntry {
	return types.DiaryEntry{Date: types.NewDate(2024, time.January, day), Emotions: emotions}
}

func TestEmotionTrendsKeepsOrderWithoutBackfill(t *testing.T) {
	entries := []types.DiaryEntry{
		entryOn(1, map[string]int{"joy": 3, "fear": 1}),
		entryOn(2, map[string]int{"joy": 5}),
		entryOn(3, map[string]int{"fear": 4}),
	}

	trends := EmotionTrends(entries)

	assert.Equal(t, []int{3, 5}, trends["joy"])
	assert.Equal(t, []int{1, 4}, trends["fear"])
	assert.Len(t, trends, 2)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, dateStrings(Dates(entries)))
}

func TestEmotionTrendsEmpty(t *testing.T) {
	assert.Empty(t, EmotionTrends(nil))
	assert.NotNil(t, Dates(nil))
}

func TestBehaviorCountsAndRiskFactors(t *testing.T) {
	entries := []types.DiaryEntry{
		{SelfHarm: true, MedicationsTaken: true},
		{StressfulEvents: true},
		{SelfHarm: true},
	}

	summary := BehaviorCounts(entries)
	assert.Equal(t, 2, summary.Counts.SelfHarm)
	assert.Equal(t, 0, summary.Counts.SuicidalThoughts)
	assert.Equal(t, 1, summary.Counts.StressfulEvents)
	assert.Equal(t, 1, summary.Counts.MedicationsTaken)
	assert.Equal(t, 3, summary.TotalEntries)

	assert.Equal(t, []string{RiskSelfHarm}, RiskFactorsForWeek(entries))
}

func TestRiskFactorsOrder(t *testing.T) {
	entries := []types.DiaryEntry{{SuicidalThoughts: true}, {SelfHarm: true}}
	assert.Equal(t, []string{RiskSelfHarm, RiskSuicidalThoughts}, RiskFactorsForWeek(entries))

	none := RiskFactorsForWeek([]types.DiaryEntry{{StressfulEvents: true}})
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestBehaviorSeriesAligned(t *testing.T) {
	entries := []types.DiaryEntry{{SelfHarm: true}, {}, {SelfHarm: true, MedicationsTaken: true}}
	series := BehaviorSeries(entries)
	assert.Equal(t, []bool{true, false, true}, series.SelfHarm)
	assert.Equal(t, []bool{false, false, true}, series.MedicationsTaken)
	assert.Len(t, series.SuicidalThoughts, 3)
}

func TestWeekWindowInclusive(t *testing.T) {
	start, end := WeekWindow(types.NewDate(2024, time.March, 3))
	assert.Equal(t, "2024-02-26", start.String())
	assert.Equal(t, "2024-03-03", end.String())
}

func TestSummarize(t *testing.T) {
	patient := types.User{ID: 7, FirstName: "Dana", LastName: "Levi"}
	last := types.NewDate(2024, time.January, 3)

	row := Summarize(patient, &last, []types.DiaryEntry{{SelfHarm: true}, {}})
	assert.Equal(t, 7, row.PatientID)
	assert.Equal(t, "Dana Levi", row.Name)
	assert.Equal(t, 2, row.EntriesLastWeek)
	assert.True(t, row.NeedsAttention)
	assert.Equal(t, []string{RiskSelfHarm}, row.RiskFactors)

	quiet := Summarize(patient, nil, nil)
	assert.Nil(t, quiet.LastEntryDate)
	assert.False(t, quiet.NeedsAttention)
	assert.Zero(t, quiet.EntriesLastWeek)
}

func dateStrings(dates []types.Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out
}
