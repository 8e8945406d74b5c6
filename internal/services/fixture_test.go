package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/emodiary/apiserver/internal/auth"
	"github.com/emodiary/apiserver/internal/mail"
	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/internal/testhelpers"
	"github.com/emodiary/apiserver/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Secret123!"

type fixture struct {
	db            *testhelpers.MemoryDB
	tokens        *auth.TokenService
	users         *services.UserService
	access        *services.AccessControl
	entries       *services.EntryService
	links         *services.RelationshipService
	analytics     *services.AnalyticsService
	notifications *services.NotificationService
	mail          *testhelpers.MailRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testhelpers.NewMemoryDB()
	tokens := auth.NewTokenService("test-secret", 30*time.Minute)
	users := db.Users()
	entries := db.Entries()
	links := db.Relationships()
	catalog, err := mail.DefaultCatalog()
	require.NoError(t, err)
	recorder := &testhelpers.MailRecorder{}

	access := services.NewAccessControl(tokens, users, links)
	return &fixture{
		db:        db,
		tokens:    tokens,
		users:     services.NewUserService(users, auth.NewHasher(bcrypt.MinCost), tokens),
		access:    access,
		entries:   services.NewEntryService(entries),
		links:     services.NewRelationshipService(links, users),
		analytics: services.NewAnalyticsService(entries, links, access, time.UTC),
		notifications: services.NewNotificationService(services.NotificationDeps{
			Notifications: db.Notifications(),
			Users:         users,
			Entries:       entries,
			Links:         links,
			Mail:          recorder,
			Catalog:       catalog,
			Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
			Location:      time.UTC,
		}),
		mail: recorder,
	}
}

func (f *fixture) register(t *testing.T, email string, role types.Role) types.User {
	t.Helper()
	session, err := f.users.Register(context.Background(), services.RegisterInput{
		Email:     email,
		Password:  testPassword,
		FirstName: "Test",
		LastName:  string(role),
		Role:      string(role),
	})
	require.NoError(t, err)
	return session.User
}

func (f *fixture) link(t *testing.T, therapist, patient types.User) {
	t.Helper()
	_, _, err := f.links.Link(context.Background(), therapist.ID, patient.ID)
	require.NoError(t, err)
}

func (f *fixture) writeEntry(t *testing.T, user types.User, date types.Date, in services.EntryInput) types.DiaryEntry {
	t.Helper()
	in.Date = date
	entry, err := f.entries.Create(context.Background(), user, in)
	require.NoError(t, err)
	return entry
}

func day(d int) types.Date {
	return types.NewDate(2024, time.January, d)
}
