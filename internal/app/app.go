package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/emodiary/apiserver/config"
	"github.com/emodiary/apiserver/internal/auth"
	"github.com/emodiary/apiserver/internal/db"
	"github.com/emodiary/apiserver/internal/mail"
	"github.com/emodiary/apiserver/internal/mq"
	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/internal/storage"
	"github.com/emodiary/apiserver/internal/store"
)

// App owns the process-wide resources and the service graph built on them.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Location *time.Location
	DB       *sql.DB
	Broker   mq.Backend
	Storage  storage.ObjectStorage
	Services *services.Services
}

// NewLogger returns the JSON logger used by every command.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// New validates cfg, connects to the database, the broker and object storage, and wires the
// services. Object storage is optional; without it exports are disabled.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger, Location: loc}

	a.DB, err = db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a.Broker, err = mq.New(ctx, cfg.MQ)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Storage, err = storage.New(ctx, cfg.Storage)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		a.Storage = nil
		logger.InfoContext(ctx, "object storage not configured, exports disabled")
	case err != nil:
		_ = a.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	catalog, err := mail.DefaultCatalog()
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("load mail catalog: %w", err)
	}

	a.Services = services.New(services.Repositories{
		Users:         store.NewUserRepository(a.DB),
		Entries:       store.NewEntryRepository(a.DB),
		Links:         store.NewRelationshipRepository(a.DB),
		Notifications: store.NewNotificationRepository(a.DB),
	}, services.Options{
		Hasher:   auth.NewHasher(cfg.Auth.BcryptCost),
		Tokens:   auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Mail:     mail.NewQueue(a.Broker, cfg.MQ.MailChannel),
		Catalog:  catalog,
		Storage:  a.Storage,
		Logger:   logger,
		Location: loc,
	})
	return a, nil
}

// MailWorker builds a consumer for the mail channel, sending through SMTP when configured.
func (a *App) MailWorker() (*mail.Worker, error) {
	sender, err := mail.NewSender(a.Config.Mail, a.Logger)
	if err != nil {
		return nil, err
	}
	return mail.NewWorker(a.Broker, a.Config.MQ.MailChannel, sender, a.Logger), nil
}

// InProcessMail reports whether mail jobs can only be consumed by this process.
func (a *App) InProcessMail() bool {
	_, ok := a.Broker.(*mq.MemoryBackend)
	return ok
}

// Close releases every resource opened by New.
func (a *App) Close() error {
	var errs []error
	if a.Broker != nil {
		errs = append(errs, a.Broker.Close())
	}
	if a.Storage != nil {
		errs = append(errs, a.Storage.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
