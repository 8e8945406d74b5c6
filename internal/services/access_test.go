package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/emodiary/apiserver/internal/auth"
	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "who@example.com", types.RolePatient)

	token, err := f.tokens.Issue(user.Email, user.Role, 0)
	require.NoError(t, err)

	got, err := f.access.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = f.access.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	ghost, err := f.tokens.Issue("ghost@example.com", types.RolePatient, 0)
	require.NoError(t, err)
	_, err = f.access.Authenticate(ctx, ghost)
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "late@example.com", types.RolePatient)

	issuedAt := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	past := auth.NewTokenService("test-secret", time.Hour).WithClock(func() time.Time { return issuedAt })
	token, err := past.Issue(user.Email, user.Role, time.Minute)
	require.NoError(t, err)

	_, err = f.access.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, services.ErrUnauthorized)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestAuthorizeTherapist(t *testing.T) {
	f := newFixture(t)
	patient := f.register(t, "p@example.com", types.RolePatient)
	therapist := f.register(t, "t@example.com", types.RoleTherapist)

	assert.ErrorIs(t, f.access.AuthorizeTherapist(patient), services.ErrForbidden)
	assert.NoError(t, f.access.AuthorizeTherapist(therapist))
}

func TestAuthorizePatientAccessRequiresExactLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	therapist := f.register(t, "t1@example.com", types.RoleTherapist)
	other := f.register(t, "t2@example.com", types.RoleTherapist)
	patient := f.register(t, "p@example.com", types.RolePatient)
	f.link(t, therapist, patient)

	assert.NoError(t, f.access.AuthorizePatientAccess(ctx, therapist, patient.ID))
	assert.ErrorIs(t, f.access.AuthorizePatientAccess(ctx, other, patient.ID), services.ErrNotFound)
	assert.ErrorIs(t, f.access.AuthorizePatientAccess(ctx, therapist, 9999), services.ErrNotFound)
	assert.ErrorIs(t, f.access.AuthorizePatientAccess(ctx, patient, patient.ID), services.ErrForbidden)
}
