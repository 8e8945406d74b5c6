package services

import (
	"log/slog"
	"time"

	"github.com/emodiary/apiserver/internal/auth"
	"github.com/emodiary/apiserver/internal/mail"
	"github.com/emodiary/apiserver/internal/storage"
)

// Repositories groups the persistence ports used by the services.
type Repositories struct {
	Users         UserRepository
	Entries       EntryRepository
	Links         RelationshipRepository
	Notifications NotificationRepository
}

// Options carries the non-persistence collaborators. Storage may be nil, which disables exports.
type Options struct {
	Hasher   *auth.Hasher
	Tokens   *auth.TokenService
	Mail     MailQueue
	Catalog  *mail.Catalog
	Storage  storage.ObjectStorage
	Logger   *slog.Logger
	Location *time.Location
}

// Services is the full set of use-cases served over HTTP, the CLI and the scheduler.
type Services struct {
	Users         *UserService
	Access        *AccessControl
	Entries       *EntryService
	Links         *RelationshipService
	Analytics     *AnalyticsService
	Notifications *NotificationService
	Exports       *ExportService
}

func New(repos Repositories, opts Options) *Services {
	access := NewAccessControl(opts.Tokens, repos.Users, repos.Links)
	return &Services{
		Users:     NewUserService(repos.Users, opts.Hasher, opts.Tokens),
		Access:    access,
		Entries:   NewEntryService(repos.Entries),
		Links:     NewRelationshipService(repos.Links, repos.Users),
		Analytics: NewAnalyticsService(repos.Entries, repos.Links, access, opts.Location),
		Notifications: NewNotificationService(NotificationDeps{
			Notifications: repos.Notifications,
			Users:         repos.Users,
			Entries:       repos.Entries,
			Links:         repos.Links,
			Mail:          opts.Mail,
			Catalog:       opts.Catalog,
			Logger:        opts.Logger,
			Location:      opts.Location,
		}),
		Exports: NewExportService(repos.Entries, opts.Storage),
	}
}
