package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// DiaryHandler provides the owner-scoped diary entry endpoints.
type DiaryHandler struct {
	responder
	entries *services.EntryService
	exports *services.ExportService
	loc     *time.Location
}

func NewDiaryHandler(entries *services.EntryService, exports *services.ExportService, loc *time.Location, logger *slog.Logger) *DiaryHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &DiaryHandler{
		responder: newResponder(logger),
		entries:   entries,
		exports:   exports,
		loc:       loc,
	}
}

// DiaryRouter registers diary routes. Callers must already be authenticated. The export
// route only exists when object storage is configured.
func DiaryRouter(r chi.Router, entries *services.EntryService, exports *services.ExportService, loc *time.Location, logger *slog.Logger) {
	handler := NewDiaryHandler(entries, exports, loc, logger)

	r.Route("/entries", func(r chi.Router) {
		r.Get("/", handler.ListEntries)
		r.Post("/", handler.CreateEntry)
		r.Route("/{entryID}", func(r chi.Router) {
			r.Get("/", handler.GetEntry)
			r.Put("/", handler.UpdateEntry)
			r.Delete("/", handler.DeleteEntry)
		})
	})
	if exports.Enabled() {
		r.Post("/exports", handler.CreateExport)
	}
}

type EntryRequest struct {
	Date             types.Date     `json:"date"`
	Emotions         map[string]int `json:"emotions"`
	SelfHarm         bool           `json:"self_harm"`
	SuicidalThoughts bool           `json:"suicidal_thoughts"`
	StressfulEvents  bool           `json:"stressful_events"`
	MedicationsTaken bool           `json:"medications_taken"`
	MedicationsNotes string         `json:"medications_notes"`
	Notes            string         `json:"notes"`
}

func (req EntryRequest) input() services.EntryInput {
	return services.EntryInput{
		Date:             req.Date,
		Emotions:         req.Emotions,
		SelfHarm:         req.SelfHarm,
		SuicidalThoughts: req.SuicidalThoughts,
		StressfulEvents:  req.StressfulEvents,
		MedicationsTaken: req.MedicationsTaken,
		MedicationsNotes: req.MedicationsNotes,
		Notes:            req.Notes,
	}
}

// EntryListResponse is the paginated list response payload.
type EntryListResponse struct {
	Items []types.DiaryEntry `json:"items"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
	Total int                `json:"total"`
}

// ExportRequest optionally bounds an export; dates are inclusive.
type ExportRequest struct {
	StartDate *types.Date `json:"start_date"`
	EndDate   *types.Date `json:"end_date"`
}

// ListEntries returns the caller's entries, newest first.
func (h *DiaryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dates, err := parseDateRange(r, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.entries.List(r.Context(), user, types.EntryFilter{
		Start:  dates.Start,
		End:    dates.End,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		h.fail(w, r, err, "list entries")
		return
	}
	if items == nil {
		items = []types.DiaryEntry{}
	}

	writeJSON(w, http.StatusOK, EntryListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *DiaryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req EntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.entries.Create(r.Context(), user, req.input())
	if err != nil {
		h.fail(w, r, err, "create entry")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *DiaryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	id, err := parseID(r, "entryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.entries.Get(r.Context(), user, id)
	if err != nil {
		h.fail(w, r, err, "get entry")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// UpdateEntry replaces every writable field of the entry.
func (h *DiaryHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	id, err := parseID(r, "entryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req EntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.entries.Update(r.Context(), user, id, req.input())
	if err != nil {
		h.fail(w, r, err, "update entry")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *DiaryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	id, err := parseID(r, "entryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.entries.Delete(r.Context(), user, id); err != nil {
		h.fail(w, r, err, "delete entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateExport uploads the caller's diary and returns a time-limited download link. An
// empty body exports everything.
func (h *DiaryHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req ExportRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	export, err := h.exports.Export(r.Context(), user, services.DateRange{Start: req.StartDate, End: req.EndDate})
	if err != nil {
		h.fail(w, r, err, "export entries")
		return
	}
	writeJSON(w, http.StatusCreated, export)
}
