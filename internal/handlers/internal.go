package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const internalKeyHeader = "X-Internal-Key"

// InternalHandler exposes maintenance operations to schedulers and operators.
type InternalHandler struct {
	responder
	notifications *services.NotificationService
	links         *services.RelationshipService
	now           func() time.Time
}

func NewInternalHandler(notifications *services.NotificationService, links *services.RelationshipService, logger *slog.Logger) *InternalHandler {
	return &InternalHandler{
		responder:     newResponder(logger),
		notifications: notifications,
		links:         links,
		now:           time.Now,
	}
}

// InternalRouter registers the maintenance routes behind the shared internal key.
func InternalRouter(r chi.Router, key string, notifications *services.NotificationService, links *services.RelationshipService, logger *slog.Logger) {
	handler := NewInternalHandler(notifications, links, logger)

	r.Use(RequireInternalKey(key))
	r.Post("/reminders", handler.SendReminders)
	r.Post("/alerts", handler.AlertTherapist)
	r.Post("/links", handler.Link)
	r.Delete("/links", handler.Unlink)
}

// RequireInternalKey rejects requests whose X-Internal-Key header does not match key. An
// empty key rejects everything.
func RequireInternalKey(key string) func(http.Handler) http.Handler {
	expected := []byte(strings.TrimSpace(key))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(strings.TrimSpace(r.Header.Get(internalKeyHeader)))
			if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ReminderRequest optionally overrides the instant reminders are evaluated at.
type ReminderRequest struct {
	At *time.Time `json:"at"`
}

type InternalAlertRequest struct {
	PatientID int    `json:"patient_id"`
	AlertType string `json:"alert_type"`
}

type LinkRequest struct {
	TherapistID int `json:"therapist_id"`
	PatientID   int `json:"patient_id"`
}

type LinkResponse struct {
	types.TherapistPatientLink
	Created bool `json:"created"`
}

// SendReminders runs one reminder pass. Per-user failures are logged and counted in the
// report; only a failure to load due settings fails the request.
func (h *InternalHandler) SendReminders(w http.ResponseWriter, r *http.Request) {
	var req ReminderRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	at := h.now()
	if req.At != nil {
		at = *req.At
	}

	report, err := h.notifications.SendReminders(r.Context(), at)
	if err != nil {
		if report.Due == 0 && report.Failed == 0 {
			h.fail(w, r, err, "send reminders")
			return
		}
		h.logger.WarnContext(r.Context(), "some reminders failed", "error", err)
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *InternalHandler) AlertTherapist(w http.ResponseWriter, r *http.Request) {
	var req InternalAlertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PatientID < 1 {
		writeError(w, http.StatusBadRequest, "invalid patient id")
		return
	}

	alerted, err := h.notifications.AlertTherapist(r.Context(), req.PatientID, req.AlertType)
	if err != nil {
		h.fail(w, r, err, "alert therapist")
		return
	}
	writeJSON(w, http.StatusOK, AlertResponse{Alerted: alerted})
}

// Link assigns a patient to a therapist. Re-linking an existing pair returns 200 with
// created=false.
func (h *InternalHandler) Link(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLink(w, r)
	if !ok {
		return
	}

	link, created, err := h.links.Link(r.Context(), req.TherapistID, req.PatientID)
	if err != nil {
		h.fail(w, r, err, "link patient")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, LinkResponse{TherapistPatientLink: link, Created: created})
}

// Unlink removes a therapist's access to a patient. A missing link is 404.
func (h *InternalHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLink(w, r)
	if !ok {
		return
	}
	if err := h.links.Unlink(r.Context(), req.TherapistID, req.PatientID); err != nil {
		h.fail(w, r, err, "unlink patient")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeLink(w http.ResponseWriter, r *http.Request) (LinkRequest, bool) {
	var req LinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	if req.TherapistID < 1 || req.PatientID < 1 {
		writeError(w, http.StatusBadRequest, "therapist_id and patient_id are required")
		return req, false
	}
	return req, true
}
