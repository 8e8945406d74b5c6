package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/emodiary/apiserver/internal/handlers"
	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationSettings(t *testing.T) {
	a := newAPI(t, false)
	token, userID := a.register("ana@example.com", "PATIENT")

	rec := a.do(request{method: http.MethodGet, path: "/notifications/settings", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var settings types.NotificationSetting
	decode(t, rec, &settings)
	assert.Equal(t, userID, settings.UserID)
	assert.Equal(t, services.DefaultReminderTime, settings.ReminderTime)
	assert.True(t, settings.EmailNotifications)
	assert.False(t, settings.PushNotifications)

	rec = a.do(request{method: http.MethodPut, path: "/notifications/settings", token: token, body: map[string]any{"reminder_time": "9:05", "push_notifications": true}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &settings)
	assert.Equal(t, "09:05", settings.ReminderTime)
	assert.True(t, settings.EmailNotifications)
	assert.True(t, settings.PushNotifications)

	rec = a.do(request{method: http.MethodPut, path: "/notifications/settings", token: token, body: map[string]any{"reminder_time": "25:00"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAlertTherapistAndInbox(t *testing.T) {
	a := newAPI(t, false)
	therapist, therapistID := a.register("doc@example.com", "THERAPIST")
	patient, patientID := a.register("ana@example.com", "PATIENT")
	a.link(therapistID, patientID)

	rec := a.do(request{method: http.MethodPost, path: "/notifications/alert-therapist", token: therapist, body: handlers.AlertRequest{AlertType: "crisis"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(request{method: http.MethodPost, path: "/notifications/alert-therapist", token: patient, body: handlers.AlertRequest{AlertType: "crisis"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var alert handlers.AlertResponse
	decode(t, rec, &alert)
	assert.Equal(t, 1, alert.Alerted)

	messages := a.env.Mail.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "doc@example.com", messages[0].To)

	rec = a.do(request{method: http.MethodGet, path: "/notifications/unread", token: therapist})
	require.Equal(t, http.StatusOK, rec.Code)
	var unread []types.Notification
	decode(t, rec, &unread)
	require.Len(t, unread, 1)
	assert.Equal(t, types.NotificationAlert, unread[0].Type)

	rec = a.do(request{method: http.MethodPost, path: fmt.Sprintf("/notifications/%d/read", unread[0].ID), token: patient})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(request{method: http.MethodPost, path: fmt.Sprintf("/notifications/mark-read/%d", unread[0].ID), token: therapist})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(request{method: http.MethodGet, path: "/notifications/unread", token: therapist})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAlertTherapistRequiresType(t *testing.T) {
	a := newAPI(t, false)
	patient, _ := a.register("ana@example.com", "PATIENT")

	rec := a.do(request{method: http.MethodPost, path: "/notifications/alert-therapist", token: patient, body: handlers.AlertRequest{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
