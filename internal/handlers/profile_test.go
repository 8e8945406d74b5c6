package handlers_test

import (
	"net/http"
	"testing"

	"github.com/emodiary/apiserver/internal/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatientProfile(t *testing.T) {
	a := newAPI(t, false)
	token, userID := a.register("ana@example.com", "PATIENT")

	rec := a.do(request{method: http.MethodGet, path: "/profile", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.ProfileResponse
	decode(t, rec, &resp)
	assert.Equal(t, userID, resp.User.ID)
	require.NotNil(t, resp.Patient)
	assert.Nil(t, resp.Therapist)
	assert.Nil(t, resp.Patient.Gender)

	rec = a.do(request{method: http.MethodPut, path: "/profile", token: token, body: map[string]any{
		"date_of_birth":  "1990-04-12",
		"gender":         " female ",
		"license_number": "ignored",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = handlers.ProfileResponse{}
	decode(t, rec, &resp)
	require.NotNil(t, resp.Patient)
	require.NotNil(t, resp.Patient.DateOfBirth)
	assert.Equal(t, "1990-04-12", resp.Patient.DateOfBirth.String())
	require.NotNil(t, resp.Patient.Gender)
	assert.Equal(t, "female", *resp.Patient.Gender)
	assert.Nil(t, resp.Therapist)
}

func TestTherapistProfileRejectsNegativeExperience(t *testing.T) {
	a := newAPI(t, false)
	token, _ := a.register("doc@example.com", "THERAPIST")

	rec := a.do(request{method: http.MethodPut, path: "/profile", token: token, body: map[string]any{"years_of_experience": -1}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(request{method: http.MethodPut, path: "/profile", token: token, body: map[string]any{"specialization": "CBT", "years_of_experience": 7}})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.ProfileResponse
	decode(t, rec, &resp)
	require.NotNil(t, resp.Therapist)
	require.NotNil(t, resp.Therapist.YearsOfExperience)
	assert.Equal(t, 7, *resp.Therapist.YearsOfExperience)
}
