package services

import (
	"context"
	"fmt"
	"time"

	"github.com/emodiary/apiserver/internal/analytics"
	"github.com/emodiary/apiserver/types"
)

// AnalyticsService serves diary aggregates for patients and their therapists.
type AnalyticsService struct {
	entries EntryRepository
	links   RelationshipRepository
	access  *AccessControl
	loc     *time.Location
	now     func() time.Time
}

func NewAnalyticsService(entries EntryRepository, links RelationshipRepository, access *AccessControl, loc *time.Location) *AnalyticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsService{entries: entries, links: links, access: access, loc: loc, now: time.Now}
}

// DateRange bounds an analytics query; both ends are inclusive and optional.
type DateRange struct {
	Start *types.Date
	End   *types.Date
}

func (s *AnalyticsService) entriesInRange(ctx context.Context, userID int, r DateRange) ([]types.DiaryEntry, error) {
	if err := validateRange(r.Start, r.End); err != nil {
		return nil, err
	}
	entries, _, err := s.entries.List(ctx, userID, types.EntryFilter{Start: r.Start, End: r.End, Ascending: true})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// EmotionSummary returns the user's emotion series in date order.
func (s *AnalyticsService) EmotionSummary(ctx context.Context, user types.User, r DateRange) (types.EmotionSummary, error) {
	entries, err := s.entriesInRange(ctx, user.ID, r)
	if err != nil {
		return types.EmotionSummary{}, err
	}
	return types.EmotionSummary{
		Dates:    analytics.Dates(entries),
		Emotions: analytics.EmotionTrends(entries),
	}, nil
}

// BehaviorSummary counts the user's flagged behaviors.
func (s *AnalyticsService) BehaviorSummary(ctx context.Context, user types.User, r DateRange) (types.BehaviorSummary, error) {
	entries, err := s.entriesInRange(ctx, user.ID, r)
	if err != nil {
		return types.BehaviorSummary{}, err
	}
	return analytics.BehaviorCounts(entries), nil
}

// Today is the current calendar day in the configured timezone.
func (s *AnalyticsService) Today() types.Date {
	return types.DateOf(s.now().In(s.loc))
}

// PatientSummaries builds the therapist's overview of every linked patient, ordered by
// patient id. The week window ends on today.
func (s *AnalyticsService) PatientSummaries(ctx context.Context, therapist types.User, today types.Date) ([]types.PatientSummary, error) {
	if err := s.access.AuthorizeTherapist(therapist); err != nil {
		return nil, err
	}
	patients, err := s.links.PatientsOf(ctx, therapist.ID)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}

	start, end := analytics.WeekWindow(today)
	summaries := make([]types.PatientSummary, 0, len(patients))
	for _, patient := range patients {
		last, err := s.entries.LastEntryDate(ctx, patient.ID)
		if err != nil {
			return nil, fmt.Errorf("last entry of patient %d: %w", patient.ID, err)
		}
		week, _, err := s.entries.List(ctx, patient.ID, types.EntryFilter{Start: &start, End: &end, Ascending: true})
		if err != nil {
			return nil, fmt.Errorf("week entries of patient %d: %w", patient.ID, err)
		}
		summaries = append(summaries, analytics.Summarize(patient, last, week))
	}
	return summaries, nil
}

// PatientDetails returns the series of one linked patient. Unlinked patients are ErrNotFound.
func (s *AnalyticsService) PatientDetails(ctx context.Context, therapist types.User, patientID int, r DateRange) (types.PatientDetails, error) {
	if err := s.access.AuthorizePatientAccess(ctx, therapist, patientID); err != nil {
		return types.PatientDetails{}, err
	}
	entries, err := s.entriesInRange(ctx, patientID, r)
	if err != nil {
		return types.PatientDetails{}, err
	}
	return analytics.Details(entries), nil
}
