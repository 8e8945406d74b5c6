package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/emodiary/apiserver/types"
)

const (
	minIntensity = 0
	maxIntensity = 10

	maxEmotionNameLength     = 50
	maxEmotions              = 50
	maxNotesLength           = 5000
	maxMedicationNotesLength = 1000

	defaultListLimit = 20
	maxListLimit     = 100
)

// EntryRepository defines persistence operations for diary entries. Every method is scoped to
// a single owner.
type EntryRepository interface {
	Create(ctx context.Context, entry types.DiaryEntry) (types.DiaryEntry, error)
	Get(ctx context.Context, userID, id int) (types.DiaryEntry, error)
	Update(ctx context.Context, entry types.DiaryEntry) (types.DiaryEntry, error)
	Delete(ctx context.Context, userID, id int) error
	List(ctx context.Context, userID int, filter types.EntryFilter) ([]types.DiaryEntry, int, error)
	HasEntryOn(ctx context.Context, userID int, date types.Date) (bool, error)
	LastEntryDate(ctx context.Context, userID int) (*types.Date, error)
}

// EntryInput is the writable part of a diary entry.
type EntryInput struct {
	Date             types.Date
	Emotions         map[string]int
	SelfHarm         bool
	SuicidalThoughts bool
	StressfulEvents  bool
	MedicationsTaken bool
	MedicationsNotes string
	Notes            string
}

// EntryService encapsulates diary entry use-cases for the entry owner.
type EntryService struct {
	repo EntryRepository
}

func NewEntryService(repo EntryRepository) *EntryService {
	return &EntryService{repo: repo}
}

// Create stores a new entry. A second entry for the same day fails with ErrDuplicateDate.
func (s *EntryService) Create(ctx context.Context, user types.User, in EntryInput) (types.DiaryEntry, error) {
	entry, err := buildEntry(user.ID, in)
	if err != nil {
		return types.DiaryEntry{}, err
	}
	return s.repo.Create(ctx, entry)
}

func (s *EntryService) Get(ctx context.Context, user types.User, id int) (types.DiaryEntry, error) {
	return s.repo.Get(ctx, user.ID, id)
}

// Update replaces the entry's fields. Entries of other users are reported as ErrNotFound.
func (s *EntryService) Update(ctx context.Context, user types.User, id int, in EntryInput) (types.DiaryEntry, error) {
	entry, err := buildEntry(user.ID, in)
	if err != nil {
		return types.DiaryEntry{}, err
	}
	entry.ID = id
	return s.repo.Update(ctx, entry)
}

func (s *EntryService) Delete(ctx context.Context, user types.User, id int) error {
	return s.repo.Delete(ctx, user.ID, id)
}

// List returns a page of the user's entries, newest first unless filter asks otherwise.
func (s *EntryService) List(ctx context.Context, user types.User, filter types.EntryFilter) ([]types.DiaryEntry, int, error) {
	if err := validateRange(filter.Start, filter.End); err != nil {
		return nil, 0, err
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return s.repo.List(ctx, user.ID, filter)
}

func buildEntry(userID int, in EntryInput) (types.DiaryEntry, error) {
	if in.Date.IsZero() {
		return types.DiaryEntry{}, invalid("date", "is required")
	}
	if len(in.Emotions) > maxEmotions {
		return types.DiaryEntry{}, invalid("emotions", "at most %d emotions per entry", maxEmotions)
	}
	emotions := make(map[string]int, len(in.Emotions))
	for raw, intensity := range in.Emotions {
		name := strings.TrimSpace(raw)
		switch {
		case name == "":
			return types.DiaryEntry{}, invalid("emotions", "emotion name must not be empty")
		case utf8.RuneCountInString(name) > maxEmotionNameLength:
			return types.DiaryEntry{}, invalid("emotions", "emotion name must be at most %d characters", maxEmotionNameLength)
		case intensity < minIntensity || intensity > maxIntensity:
			return types.DiaryEntry{}, invalid("emotions", "intensity of %q must be between %d and %d", name, minIntensity, maxIntensity)
		}
		if _, dup := emotions[name]; dup {
			return types.DiaryEntry{}, invalid("emotions", "emotion %q is listed more than once", name)
		}
		emotions[name] = intensity
	}
	notes := strings.TrimSpace(in.Notes)
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return types.DiaryEntry{}, invalid("notes", "must be at most %d characters", maxNotesLength)
	}
	medicationNotes := strings.TrimSpace(in.MedicationsNotes)
	if utf8.RuneCountInString(medicationNotes) > maxMedicationNotesLength {
		return types.DiaryEntry{}, invalid("medications_notes", "must be at most %d characters", maxMedicationNotesLength)
	}
	return types.DiaryEntry{
		UserID:           userID,
		Date:             in.Date,
		Emotions:         emotions,
		SelfHarm:         in.SelfHarm,
		SuicidalThoughts: in.SuicidalThoughts,
		StressfulEvents:  in.StressfulEvents,
		MedicationsTaken: in.MedicationsTaken,
		MedicationsNotes: medicationNotes,
		Notes:            notes,
	}, nil
}

func validateRange(start, end *types.Date) error {
	if start != nil && end != nil && end.Before(start.Time) {
		return invalid("end_date", "must not be before start_date")
	}
	return nil
}
