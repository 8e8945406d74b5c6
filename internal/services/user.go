package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/emodiary/apiserver/internal/auth"
	"github.com/emodiary/apiserver/types"
)

const minPasswordLength = 8

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	GetPatientProfile(ctx context.Context, userID int) (types.PatientProfile, error)
	UpdatePatientProfile(ctx context.Context, profile types.PatientProfile) (types.PatientProfile, error)
	GetTherapistProfile(ctx context.Context, userID int) (types.TherapistProfile, error)
	UpdateTherapistProfile(ctx context.Context, profile types.TherapistProfile) (types.TherapistProfile, error)
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// Session is an authenticated user and the access token issued for it.
type Session struct {
	User        types.User
	AccessToken string
}

// UserService encapsulates account and profile use-cases.
type UserService struct {
	repo   UserRepository
	hasher *auth.Hasher
	tokens *auth.TokenService
}

func NewUserService(repo UserRepository, hasher *auth.Hasher, tokens *auth.TokenService) *UserService {
	return &UserService{repo: repo, hasher: hasher, tokens: tokens}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

// Register validates the input, creates the user with its profile and signs a token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	user, err := s.create(ctx, in)
	if err != nil {
		return Session{}, err
	}
	return s.session(user)
}

// EnsureUser creates the user unless one with the email already exists, in which case the
// existing account is returned with created=false.
func (s *UserService) EnsureUser(ctx context.Context, in RegisterInput) (types.User, bool, error) {
	existing, err := s.repo.GetByEmail(ctx, normalizeEmail(in.Email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return types.User{}, false, err
	}
	user, err := s.create(ctx, in)
	if errors.Is(err, ErrEmailTaken) {
		existing, err = s.repo.GetByEmail(ctx, normalizeEmail(in.Email))
		return existing, false, err
	}
	if err != nil {
		return types.User{}, false, err
	}
	return user, true, nil
}

// Login checks credentials. Unknown email and wrong password are indistinguishable.
func (s *UserService) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, invalid("", "missing credentials")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.hasher.VerifyNone(password)
			return Session{}, ErrUnauthorized
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return Session{}, ErrUnauthorized
	}
	return s.session(user)
}

func (s *UserService) create(ctx context.Context, in RegisterInput) (types.User, error) {
	email, err := validateEmail(in.Email)
	if err != nil {
		return types.User{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return types.User{}, err
	}
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	if firstName == "" {
		return types.User{}, invalid("first_name", "is required")
	}
	if lastName == "" {
		return types.User{}, invalid("last_name", "is required")
	}
	role, ok := types.ParseRole(in.Role)
	if !ok {
		return types.User{}, invalid("role", "must be %s or %s", types.RolePatient, types.RoleTherapist)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.Create(ctx, types.User{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		PasswordHash: hash,
	})
}

func (s *UserService) session(user types.User) (Session, error) {
	token, err := s.tokens.Issue(user.Email, user.Role, 0)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{User: user, AccessToken: token}, nil
}

// ProfileInput holds profile fields to change. Nil fields are cleared; fields of the other
// role are ignored.
type ProfileInput struct {
	DateOfBirth       *types.Date
	Gender            *string
	PhoneNumber       *string
	LicenseNumber     *string
	Specialization    *string
	YearsOfExperience *int
}

// Profile returns the role-specific profile of user.
func (s *UserService) Profile(ctx context.Context, user types.User) (types.Profile, error) {
	if user.IsTherapist() {
		profile, err := s.repo.GetTherapistProfile(ctx, user.ID)
		if err != nil {
			return types.Profile{}, err
		}
		return types.Profile{Therapist: &profile}, nil
	}
	profile, err := s.repo.GetPatientProfile(ctx, user.ID)
	if err != nil {
		return types.Profile{}, err
	}
	return types.Profile{Patient: &profile}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, user types.User, in ProfileInput) (types.Profile, error) {
	if user.IsTherapist() {
		if in.YearsOfExperience != nil && *in.YearsOfExperience < 0 {
			return types.Profile{}, invalid("years_of_experience", "must not be negative")
		}
		profile, err := s.repo.UpdateTherapistProfile(ctx, types.TherapistProfile{
			UserID:            user.ID,
			LicenseNumber:     trimmed(in.LicenseNumber),
			Specialization:    trimmed(in.Specialization),
			YearsOfExperience: in.YearsOfExperience,
		})
		if err != nil {
			return types.Profile{}, err
		}
		return types.Profile{Therapist: &profile}, nil
	}

	if in.DateOfBirth != nil && in.DateOfBirth.IsZero() {
		in.DateOfBirth = nil
	}
	profile, err := s.repo.UpdatePatientProfile(ctx, types.PatientProfile{
		UserID:      user.ID,
		DateOfBirth: in.DateOfBirth,
		Gender:      trimmed(in.Gender),
		PhoneNumber: trimmed(in.PhoneNumber),
	})
	if err != nil {
		return types.Profile{}, err
	}
	return types.Profile{Patient: &profile}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(raw string) (string, error) {
	email := normalizeEmail(raw)
	if email == "" {
		return "", invalid("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email", "is not a valid address")
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return invalid("password", "must be at least %d characters", minPasswordLength)
	}
	if len(password) > auth.MaxPasswordBytes {
		return invalid("password", "must be at most %d bytes", auth.MaxPasswordBytes)
	}
	return nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
