package handlers

import (
	"log/slog"
	"net/http"

	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// ProfileHandler serves the caller's role-specific profile.
type ProfileHandler struct {
	responder
	users *services.UserService
}

func NewProfileHandler(users *services.UserService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{responder: newResponder(logger), users: users}
}

// ProfileRouter registers profile routes. Callers must already be authenticated.
func ProfileRouter(r chi.Router, users *services.UserService, logger *slog.Logger) {
	handler := NewProfileHandler(users, logger)

	r.Get("/", handler.Get)
	r.Put("/", handler.Update)
}

type ProfileRequest struct {
	DateOfBirth       *types.Date `json:"date_of_birth"`
	Gender            *string     `json:"gender"`
	PhoneNumber       *string     `json:"phone_number"`
	LicenseNumber     *string     `json:"license_number"`
	Specialization    *string     `json:"specialization"`
	YearsOfExperience *int        `json:"years_of_experience"`
}

type ProfileResponse struct {
	User types.User `json:"user"`
	types.Profile
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	profile, err := h.users.Profile(r.Context(), user)
	if err != nil {
		h.fail(w, r, err, "load profile")
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{User: user, Profile: profile})
}

// Update replaces the profile fields of the caller's role. Omitted fields are cleared.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req ProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.users.UpdateProfile(r.Context(), user, services.ProfileInput{
		DateOfBirth:       req.DateOfBirth,
		Gender:            req.Gender,
		PhoneNumber:       req.PhoneNumber,
		LicenseNumber:     req.LicenseNumber,
		Specialization:    req.Specialization,
		YearsOfExperience: req.YearsOfExperience,
	})
	if err != nil {
		h.fail(w, r, err, "update profile")
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{User: user, Profile: profile})
}
