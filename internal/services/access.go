package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/emodiary/apiserver/internal/auth"
	"github.com/emodiary/apiserver/types"
)

// AccessControl resolves bearer tokens to users and applies the role and relationship rules.
type AccessControl struct {
	tokens *auth.TokenService
	users  UserRepository
	links  RelationshipRepository
}

func NewAccessControl(tokens *auth.TokenService, users UserRepository, links RelationshipRepository) *AccessControl {
	return &AccessControl{tokens: tokens, users: users, links: links}
}

// Authenticate validates the token and loads the user named by its subject. Expired,
// malformed and forged tokens, and tokens for deleted users, all yield ErrUnauthorized.
func (a *AccessControl) Authenticate(ctx context.Context, token string) (types.User, error) {
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return types.User{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	user, err := a.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return types.User{}, ErrUnauthorized
		}
		return types.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// AuthorizeTherapist fails with ErrForbidden unless user is a therapist.
func (a *AccessControl) AuthorizeTherapist(user types.User) error {
	if !user.IsTherapist() {
		return ErrForbidden
	}
	return nil
}

// AuthorizePatient fails with ErrForbidden unless user is a patient.
func (a *AccessControl) AuthorizePatient(user types.User) error {
	if user.Role != types.RolePatient {
		return ErrForbidden
	}
	return nil
}

// AuthorizePatientAccess reports ErrNotFound unless therapist is linked to patientID, so an
// unlinked therapist cannot tell whether the patient exists.
func (a *AccessControl) AuthorizePatientAccess(ctx context.Context, therapist types.User, patientID int) error {
	if err := a.AuthorizeTherapist(therapist); err != nil {
		return err
	}
	linked, err := a.links.IsLinked(ctx, therapist.ID, patientID)
	if err != nil {
		return fmt.Errorf("check link: %w", err)
	}
	if !linked {
		return ErrNotFound
	}
	return nil
}
