package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/emodiary/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmotionAndBehaviorSummary(t *testing.T) {
	a := newAPI(t, false)
	token, _ := a.register("ana@example.com", "PATIENT")

	for i, date := range []string{"2024-01-02", "2024-01-01"} {
		body := entryBody(date)
		body["emotions"] = map[string]int{"joy": i + 4}
		body["self_harm"] = i == 0
		rec := a.do(request{method: http.MethodPost, path: "/diary/entries", token: token, body: body})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := a.do(request{method: http.MethodGet, path: "/analytics/emotions/summary", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var emotions types.EmotionSummary
	decode(t, rec, &emotions)
	require.Len(t, emotions.Dates, 2)
	assert.Equal(t, "2024-01-01", emotions.Dates[0].String())
	assert.Equal(t, []int{5, 4}, emotions.Emotions["joy"])

	rec = a.do(request{method: http.MethodGet, path: "/analytics/behaviors/summary?start_date=2024-01-02", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var behaviors types.BehaviorSummary
	decode(t, rec, &behaviors)
	assert.Equal(t, 1, behaviors.TotalEntries)
	assert.Equal(t, 1, behaviors.Counts.SelfHarm)
	assert.Equal(t, 1, behaviors.Counts.MedicationsTaken)
}

func TestTherapistRoutesRequireTherapistRole(t *testing.T) {
	a := newAPI(t, false)
	patient, patientID := a.register("ana@example.com", "PATIENT")

	for _, path := range []string{
		"/analytics/therapist/patients/summary",
		fmt.Sprintf("/analytics/therapist/patient/%d/details", patientID),
		"/therapist/patients",
	} {
		rec := a.do(request{method: http.MethodGet, path: path, token: patient})
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestTherapistPatientViews(t *testing.T) {
	a := newAPI(t, false)
	therapist, therapistID := a.register("doc@example.com", "THERAPIST")
	patient, patientID := a.register("ana@example.com", "PATIENT")
	_, strangerID := a.register("bo@example.com", "PATIENT")
	a.link(therapistID, patientID)

	today := types.DateOf(time.Now().UTC())
	body := entryBody(today.String())
	body["suicidal_thoughts"] = true
	rec := a.do(request{method: http.MethodPost, path: "/diary/entries", token: patient, body: body})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = a.do(request{method: http.MethodPost, path: "/diary/entries", token: patient, body: entryBody(today.AddDays(-10).String())})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(request{method: http.MethodGet, path: "/therapist/patients", token: therapist})
	require.Equal(t, http.StatusOK, rec.Code)
	var patients []types.User
	decode(t, rec, &patients)
	require.Len(t, patients, 1)
	assert.Equal(t, patientID, patients[0].ID)

	rec = a.do(request{method: http.MethodGet, path: "/analytics/therapist/patients/summary", token: therapist})
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []types.PatientSummary
	decode(t, rec, &summaries)
	require.Len(t, summaries, 1)
	assert.Equal(t, patientID, summaries[0].PatientID)
	assert.Equal(t, 1, summaries[0].EntriesLastWeek)
	assert.Equal(t, []string{"suicidal_thoughts"}, summaries[0].RiskFactors)
	assert.True(t, summaries[0].NeedsAttention)
	require.NotNil(t, summaries[0].LastEntryDate)
	assert.Equal(t, today.String(), summaries[0].LastEntryDate.String())

	rec = a.do(request{method: http.MethodGet, path: fmt.Sprintf("/analytics/therapist/patient/%d/details", patientID), token: therapist})
	require.Equal(t, http.StatusOK, rec.Code)
	var details types.PatientDetails
	decode(t, rec, &details)
	assert.Len(t, details.Dates, 2)
	assert.Equal(t, []bool{false, true}, details.Behaviors.SuicidalThoughts)

	rec = a.do(request{method: http.MethodGet, path: fmt.Sprintf("/analytics/therapist/patient/%d/details", strangerID), token: therapist})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
