package app

import (
	"context"
	"fmt"

	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/types"
)

type seedAccount struct {
	input   services.RegisterInput
	profile *services.ProfileInput
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

var (
	demoPatient = seedAccount{
		input: services.RegisterInput{Email: "patient@demo.com", Password: "Patient123!", FirstName: "Demo", LastName: "Patient", Role: string(types.RolePatient)},
		profile: &services.ProfileInput{
			DateOfBirth: func() *types.Date { d := types.NewDate(1990, 1, 1); return &d }(),
			PhoneNumber: strPtr("050-1234567"),
		},
	}
	demoTherapist = seedAccount{
		input: services.RegisterInput{Email: "therapist@demo.com", Password: "Therapist123!", FirstName: "Demo", LastName: "Therapist", Role: string(types.RoleTherapist)},
		profile: &services.ProfileInput{
			LicenseNumber:     strPtr("12345"),
			Specialization:    strPtr("Clinical Psychologist"),
			YearsOfExperience: intPtr(10),
		},
	}
	adminTherapist = seedAccount{
		input: services.RegisterInput{Email: "admin@admin.com", Password: "Admin123", FirstName: "Admin", LastName: "User", Role: string(types.RoleTherapist)},
		profile: &services.ProfileInput{
			LicenseNumber:     strPtr("ADMIN-LICENSE"),
			Specialization:    strPtr("System Administrator"),
			YearsOfExperience: intPtr(99),
		},
	}
)

// SeedReport lists what a Seed run changed.
type SeedReport struct {
	Created    []string
	Existing   []string
	LinkedDemo bool
}

// Seed creates the demo patient, the demo therapist and the admin therapist if they are
// missing, and links the demo pair. Existing accounts are left untouched.
func Seed(ctx context.Context, svc *services.Services) (SeedReport, error) {
	var report SeedReport
	users := make(map[string]types.User, 3)
	for _, account := range []seedAccount{demoPatient, demoTherapist, adminTherapist} {
		user, created, err := svc.Users.EnsureUser(ctx, account.input)
		if err != nil {
			return report, fmt.Errorf("seed %s: %w", account.input.Email, err)
		}
		users[account.input.Email] = user
		if !created {
			report.Existing = append(report.Existing, user.Email)
			continue
		}
		report.Created = append(report.Created, user.Email)
		if account.profile != nil {
			if _, err := svc.Users.UpdateProfile(ctx, user, *account.profile); err != nil {
				return report, fmt.Errorf("seed profile of %s: %w", user.Email, err)
			}
		}
	}

	therapist := users[demoTherapist.input.Email]
	patient := users[demoPatient.input.Email]
	_, created, err := svc.Links.Link(ctx, therapist.ID, patient.ID)
	if err != nil {
		return report, fmt.Errorf("link demo users: %w", err)
	}
	report.LinkedDemo = created
	return report, nil
}
