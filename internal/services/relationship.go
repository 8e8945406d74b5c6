package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/emodiary/apiserver/types"
)

// RelationshipRepository defines persistence operations for therapist to patient links.
type RelationshipRepository interface {
	Link(ctx context.Context, therapistID, patientID int) (types.TherapistPatientLink, bool, error)
	Unlink(ctx context.Context, therapistID, patientID int) error
	IsLinked(ctx context.Context, therapistID, patientID int) (bool, error)
	PatientsOf(ctx context.Context, therapistID int) ([]types.User, error)
	TherapistsOf(ctx context.Context, patientID int) ([]types.User, error)
}

// RelationshipService manages which therapists may see which patients.
type RelationshipService struct {
	repo  RelationshipRepository
	users UserRepository
}

func NewRelationshipService(repo RelationshipRepository, users UserRepository) *RelationshipService {
	return &RelationshipService{repo: repo, users: users}
}

// Link assigns patientID to therapistID. Both must exist with the matching role. Linking an
// existing pair succeeds with created=false.
func (s *RelationshipService) Link(ctx context.Context, therapistID, patientID int) (types.TherapistPatientLink, bool, error) {
	if err := s.requireRole(ctx, therapistID, types.RoleTherapist, "therapist_id"); err != nil {
		return types.TherapistPatientLink{}, false, err
	}
	if err := s.requireRole(ctx, patientID, types.RolePatient, "patient_id"); err != nil {
		return types.TherapistPatientLink{}, false, err
	}
	return s.repo.Link(ctx, therapistID, patientID)
}

func (s *RelationshipService) Unlink(ctx context.Context, therapistID, patientID int) error {
	return s.repo.Unlink(ctx, therapistID, patientID)
}

func (s *RelationshipService) IsLinked(ctx context.Context, therapistID, patientID int) (bool, error) {
	return s.repo.IsLinked(ctx, therapistID, patientID)
}

// PatientsOf lists the therapist's patients ordered by id.
func (s *RelationshipService) PatientsOf(ctx context.Context, therapist types.User) ([]types.User, error) {
	if !therapist.IsTherapist() {
		return nil, ErrForbidden
	}
	return s.repo.PatientsOf(ctx, therapist.ID)
}

func (s *RelationshipService) TherapistsOf(ctx context.Context, patientID int) ([]types.User, error) {
	return s.repo.TherapistsOf(ctx, patientID)
}

func (s *RelationshipService) requireRole(ctx context.Context, id int, role types.Role, field string) error {
	if id < 1 {
		return invalid(field, "must be a positive id")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%s %d: %w", field, id, ErrNotFound)
		}
		return err
	}
	if user.Role != role {
		return invalid(field, "user %d is not a %s", id, role)
	}
	return nil
}
