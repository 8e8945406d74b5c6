package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// AnalyticsHandler serves aggregated views over diary entries.
type AnalyticsHandler struct {
	responder
	analytics *services.AnalyticsService
	loc       *time.Location
}

func NewAnalyticsHandler(analytics *services.AnalyticsService, loc *time.Location, logger *slog.Logger) *AnalyticsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsHandler{responder: newResponder(logger), analytics: analytics, loc: loc}
}

// AnalyticsRouter registers analytics routes. Callers must already be authenticated; the
// therapist routes additionally require the therapist role.
func AnalyticsRouter(r chi.Router, analytics *services.AnalyticsService, loc *time.Location, logger *slog.Logger) {
	handler := NewAnalyticsHandler(analytics, loc, logger)

	r.Get("/emotions/summary", handler.EmotionSummary)
	r.Get("/behaviors/summary", handler.BehaviorSummary)
	r.Route("/therapist", func(r chi.Router) {
		r.Use(RequireRole(types.RoleTherapist))
		r.Get("/patients/summary", handler.PatientSummaries)
		r.Get("/patient/{patientID}/details", handler.PatientDetails)
	})
}

// EmotionSummary returns the caller's emotion intensities per day, oldest first.
func (h *AnalyticsHandler) EmotionSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	dates, err := parseDateRange(r, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.analytics.EmotionSummary(r.Context(), user, dates)
	if err != nil {
		h.fail(w, r, err, "emotion summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *AnalyticsHandler) BehaviorSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	dates, err := parseDateRange(r, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.analytics.BehaviorSummary(r.Context(), user, dates)
	if err != nil {
		h.fail(w, r, err, "behavior summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *AnalyticsHandler) PatientSummaries(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	summaries, err := h.analytics.PatientSummaries(r.Context(), user, h.analytics.Today())
	if err != nil {
		h.fail(w, r, err, "patient summaries")
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *AnalyticsHandler) PatientDetails(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	patientID, err := parseID(r, "patientID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dates, err := parseDateRange(r, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	details, err := h.analytics.PatientDetails(r.Context(), user, patientID, dates)
	if err != nil {
		h.fail(w, r, err, "patient details")
		return
	}
	writeJSON(w, http.StatusOK, details)
}
