package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.users.Register(ctx, services.RegisterInput{
		Email:     "  Dana@Example.com ",
		Password:  testPassword,
		FirstName: "Dana",
		LastName:  "Levi",
		Role:      "patient",
	})
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", session.User.Email)
	assert.Equal(t, types.RolePatient, session.User.Role)
	assert.NotEqual(t, testPassword, session.User.PasswordHash)
	assert.NotEmpty(t, session.AccessToken)

	claims, err := f.tokens.Validate(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", claims.Subject)
	assert.Equal(t, types.RolePatient, claims.Role)

	profile, err := f.users.Profile(ctx, session.User)
	require.NoError(t, err)
	require.NotNil(t, profile.Patient)
	assert.Nil(t, profile.Therapist)

	login, err := f.users.Login(ctx, "dana@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = f.users.Login(ctx, "dana@example.com", "wrong-password")
	assert.ErrorIs(t, err, services.ErrUnauthorized)
	_, err = f.users.Login(ctx, "nobody@example.com", testPassword)
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}

func TestLoginRejectsPasswordSharingBcryptPrefix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	password := strings.Repeat("a", 72)

	_, err := f.users.Register(ctx, services.RegisterInput{
		Email: "long@example.com", Password: password, FirstName: "Long", LastName: "Pass", Role: "PATIENT",
	})
	require.NoError(t, err)

	_, err = f.users.Login(ctx, "long@example.com", password)
	require.NoError(t, err)
	_, err = f.users.Login(ctx, "long@example.com", password+"-suffix")
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "dup@example.com", types.RolePatient)

	_, err := f.users.Register(context.Background(), services.RegisterInput{
		Email: "DUP@example.com", Password: testPassword, FirstName: "A", LastName: "B", Role: "THERAPIST",
	})
	assert.ErrorIs(t, err, services.ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	valid := services.RegisterInput{Email: "ok@example.com", Password: testPassword, FirstName: "A", LastName: "B", Role: "PATIENT"}
	tests := []struct {
		name   string
		mutate func(*services.RegisterInput)
		field  string
	}{
		{name: "bad email", mutate: func(in *services.RegisterInput) { in.Email = "not-an-email" }, field: "email"},
		{name: "display name email", mutate: func(in *services.RegisterInput) { in.Email = "Dana <dana@example.com>" }, field: "email"},
		{name: "short password", mutate: func(in *services.RegisterInput) { in.Password = "short" }, field: "password"},
		{name: "long password", mutate: func(in *services.RegisterInput) { in.Password = strings.Repeat("p", 73) }, field: "password"},
		{name: "missing first name", mutate: func(in *services.RegisterInput) { in.FirstName = " " }, field: "first_name"},
		{name: "missing last name", mutate: func(in *services.RegisterInput) { in.LastName = "" }, field: "last_name"},
		{name: "unknown role", mutate: func(in *services.RegisterInput) { in.Role = "ADMIN" }, field: "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := valid
			tt.mutate(&in)
			_, err := f.users.Register(context.Background(), in)
			var verr *services.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	f := newFixture(t)
	in := services.RegisterInput{Email: "seed@example.com", Password: testPassword, FirstName: "S", LastName: "D", Role: "THERAPIST"}

	first, created, err := f.users.EnsureUser(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := f.users.EnsureUser(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	therapist := f.register(t, "t@example.com", types.RoleTherapist)

	years := 12
	spec := "  CBT "
	profile, err := f.users.UpdateProfile(ctx, therapist, services.ProfileInput{Specialization: &spec, YearsOfExperience: &years})
	require.NoError(t, err)
	require.NotNil(t, profile.Therapist)
	assert.Equal(t, "CBT", *profile.Therapist.Specialization)
	assert.Equal(t, 12, *profile.Therapist.YearsOfExperience)

	negative := -1
	_, err = f.users.UpdateProfile(ctx, therapist, services.ProfileInput{YearsOfExperience: &negative})
	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)

	patient := f.register(t, "p@example.com", types.RolePatient)
	dob := day(15)
	profile, err = f.users.UpdateProfile(ctx, patient, services.ProfileInput{DateOfBirth: &dob})
	require.NoError(t, err)
	require.NotNil(t, profile.Patient)
	assert.Equal(t, "2024-01-15", profile.Patient.DateOfBirth.String())
}
