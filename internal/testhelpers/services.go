package testhelpers

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/emodiary/apiserver/internal/auth"
	"github.com/emodiary/apiserver/internal/mail"
	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// TestSecret signs tokens issued by services built with NewServices.
const TestSecret = "test-secret"

// Env is a service graph wired to in-memory repositories.
type Env struct {
	DB       *MemoryDB
	Mail     *MailRecorder
	Objects  *MemoryObjectStorage
	Tokens   *auth.TokenService
	Services *services.Services
}

// NewServices builds the services over a fresh MemoryDB. withStorage attaches a
// MemoryObjectStorage so exports are enabled.
func NewServices(t *testing.T, withStorage bool) *Env {
	t.Helper()

	catalog, err := mail.DefaultCatalog()
	if err != nil {
		t.Fatalf("load mail catalog: %v", err)
	}

	db := NewMemoryDB()
	recorder := &MailRecorder{}
	tokens := auth.NewTokenService(TestSecret, 30*time.Minute)

	env := &Env{DB: db, Mail: recorder, Tokens: tokens}
	var objects storage.ObjectStorage
	if withStorage {
		env.Objects = NewMemoryObjectStorage()
		objects = env.Objects
	}

	env.Services = services.New(services.Repositories{
		Users:         db.Users(),
		Entries:       db.Entries(),
		Links:         db.Relationships(),
		Notifications: db.Notifications(),
	}, services.Options{
		Hasher:   auth.NewHasher(bcrypt.MinCost),
		Tokens:   tokens,
		Mail:     recorder,
		Catalog:  catalog,
		Storage:  objects,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Location: time.UTC,
	})
	return env
}
