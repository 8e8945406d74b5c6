package types

import (
	"strings"
	"time"
)

// Role is the authorization role of an account. It is fixed at registration.
type Role string

const (
	RolePatient   Role = "PATIENT"
	RoleTherapist Role = "THERAPIST"
)

// ParseRole normalizes a role name and reports whether it is one of the known roles.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RolePatient:
		return RolePatient, true
	case RoleTherapist:
		return RoleTherapist, true
	default:
		return "", false
	}
}

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the unique login address of the user and the subject of issued tokens.
	Email string `json:"email" db:"email"`

	// FirstName is the user's given name.
	FirstName string `json:"first_name" db:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"last_name" db:"last_name"`

	// Role indicates whether the account belongs to a patient or a therapist.
	Role Role `json:"role" db:"role"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FullName joins first and last name for display.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsTherapist reports whether the user holds the therapist role.
func (u User) IsTherapist() bool {
	return u.Role == RoleTherapist
}

// PatientProfile extends a patient account. Every field is optional and filled in after
// registration.
type PatientProfile struct {
	UserID      int     `json:"user_id" db:"user_id"`
	DateOfBirth *Date   `json:"date_of_birth" db:"date_of_birth"`
	Gender      *string `json:"gender" db:"gender"`
	PhoneNumber *string `json:"phone_number" db:"phone_number"`
}

// TherapistProfile extends a therapist account.
type TherapistProfile struct {
	UserID            int     `json:"user_id" db:"user_id"`
	LicenseNumber     *string `json:"license_number" db:"license_number"`
	Specialization    *string `json:"specialization" db:"specialization"`
	YearsOfExperience *int    `json:"years_of_experience" db:"years_of_experience"`
}

// Profile is the role-specific extension of a user. Exactly one of the two pointers is set.
type Profile struct {
	Patient   *PatientProfile   `json:"patient,omitempty"`
	Therapist *TherapistProfile `json:"therapist,omitempty"`
}
