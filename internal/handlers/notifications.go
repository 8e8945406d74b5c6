package handlers

import (
	"log/slog"
	"net/http"

	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// NotificationHandler serves reminder settings and the in-app inbox.
type NotificationHandler struct {
	responder
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{responder: newResponder(logger), notifications: notifications}
}

// NotificationRouter registers notification routes. Callers must already be authenticated.
func NotificationRouter(r chi.Router, notifications *services.NotificationService, logger *slog.Logger) {
	handler := NewNotificationHandler(notifications, logger)

	r.Get("/settings", handler.GetSettings)
	r.Put("/settings", handler.UpdateSettings)
	r.Get("/unread", handler.Unread)
	r.Post("/{notificationID}/read", handler.MarkRead)
	r.Post("/mark-read/{notificationID}", handler.MarkRead)
	r.With(RequireRole(types.RolePatient)).Post("/alert-therapist", handler.AlertTherapist)
}

// SettingsRequest updates reminder settings. Omitted fields keep their current value.
type SettingsRequest struct {
	ReminderTime       *string `json:"reminder_time"`
	EmailNotifications *bool   `json:"email_notifications"`
	PushNotifications  *bool   `json:"push_notifications"`
}

type AlertRequest struct {
	AlertType string `json:"alert_type"`
}

type AlertResponse struct {
	Alerted int `json:"alerted"`
}

func (h *NotificationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	settings, err := h.notifications.Settings(r.Context(), user)
	if err != nil {
		h.fail(w, r, err, "load settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *NotificationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req SettingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	current, err := h.notifications.Settings(r.Context(), user)
	if err != nil {
		h.fail(w, r, err, "load settings")
		return
	}
	in := services.SettingsInput{
		ReminderTime:       current.ReminderTime,
		EmailNotifications: current.EmailNotifications,
		PushNotifications:  current.PushNotifications,
	}
	if req.ReminderTime != nil {
		in.ReminderTime = *req.ReminderTime
	}
	if req.EmailNotifications != nil {
		in.EmailNotifications = *req.EmailNotifications
	}
	if req.PushNotifications != nil {
		in.PushNotifications = *req.PushNotifications
	}

	settings, err := h.notifications.UpdateSettings(r.Context(), user, in)
	if err != nil {
		h.fail(w, r, err, "update settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Unread returns the caller's unread notifications, newest first.
func (h *NotificationHandler) Unread(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	items, err := h.notifications.Unread(r.Context(), user)
	if err != nil {
		h.fail(w, r, err, "list notifications")
		return
	}
	if items == nil {
		items = []types.Notification{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	id, err := parseID(r, "notificationID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.notifications.MarkRead(r.Context(), user, id); err != nil {
		h.fail(w, r, err, "mark notification read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AlertTherapist lets the calling patient alert every therapist linked to them.
func (h *NotificationHandler) AlertTherapist(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req AlertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	alerted, err := h.notifications.RaiseAlert(r.Context(), user, req.AlertType)
	if err != nil {
		h.fail(w, r, err, "alert therapist")
		return
	}
	writeJSON(w, http.StatusOK, AlertResponse{Alerted: alerted})
}
