package handlers

import (
	"log/slog"
	"net/http"

	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// TherapistHandler lists the patients linked to the calling therapist.
type TherapistHandler struct {
	responder
	links *services.RelationshipService
}

func NewTherapistHandler(links *services.RelationshipService, logger *slog.Logger) *TherapistHandler {
	return &TherapistHandler{responder: newResponder(logger), links: links}
}

// TherapistRouter registers therapist routes. Callers must already be authenticated.
func TherapistRouter(r chi.Router, links *services.RelationshipService, logger *slog.Logger) {
	handler := NewTherapistHandler(links, logger)

	r.With(RequireRole(types.RoleTherapist)).Get("/patients", handler.ListPatients)
}

func (h *TherapistHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	patients, err := h.links.PatientsOf(r.Context(), user)
	if err != nil {
		h.fail(w, r, err, "list patients")
		return
	}
	if patients == nil {
		patients = []types.User{}
	}
	writeJSON(w, http.StatusOK, patients)
}
