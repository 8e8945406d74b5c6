package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emodiary/apiserver/internal/mail"
	"github.com/emodiary/apiserver/types"
)

const (
	// MinuteLayout is the format of reminder times.
	MinuteLayout = "15:04"

	DefaultReminderTime = "20:00"

	maxAlertTypeLength = 200
)

// NotificationRepository defines persistence for notifications and reminder settings.
type NotificationRepository interface {
	Create(ctx context.Context, n types.Notification) (types.Notification, error)
	Unread(ctx context.Context, userID int) ([]types.Notification, error)
	MarkRead(ctx context.Context, userID, id int) error
	CreateReminder(ctx context.Context, n types.Notification, day types.Date) (types.Notification, bool, error)
	GetSettings(ctx context.Context, userID int) (types.NotificationSetting, error)
	UpsertSettings(ctx context.Context, s types.NotificationSetting) (types.NotificationSetting, error)
	SettingsDueAt(ctx context.Context, minute string) ([]types.NotificationSetting, error)
}

// MailQueue accepts outbound mail for asynchronous delivery.
type MailQueue interface {
	Enqueue(ctx context.Context, msg mail.Message) (string, error)
}

// NotificationDeps groups the collaborators of NotificationService.
type NotificationDeps struct {
	Notifications NotificationRepository
	Users         UserRepository
	Entries       EntryRepository
	Links         RelationshipRepository
	Mail          MailQueue
	Catalog       *mail.Catalog
	Logger        *slog.Logger
	Location      *time.Location
}

// NotificationService creates in-app notifications and queues the matching emails. Email is
// best effort: a failed enqueue is logged and never undoes the notification record.
type NotificationService struct {
	repo    NotificationRepository
	users   UserRepository
	entries EntryRepository
	links   RelationshipRepository
	mail    MailQueue
	catalog *mail.Catalog
	logger  *slog.Logger
	loc     *time.Location
}

func NewNotificationService(deps NotificationDeps) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &NotificationService{
		repo:    deps.Notifications,
		users:   deps.Users,
		entries: deps.Entries,
		links:   deps.Links,
		mail:    deps.Mail,
		catalog: deps.Catalog,
		logger:  logger,
		loc:     loc,
	}
}

// SettingsInput is the writable part of a user's reminder settings.
type SettingsInput struct {
	ReminderTime       string
	EmailNotifications bool
	PushNotifications  bool
}

// Settings returns the user's reminder settings, or the defaults if none were saved.
func (s *NotificationService) Settings(ctx context.Context, user types.User) (types.NotificationSetting, error) {
	settings, err := s.repo.GetSettings(ctx, user.ID)
	if errors.Is(err, ErrNotFound) {
		return types.NotificationSetting{
			UserID:             user.ID,
			ReminderTime:       DefaultReminderTime,
			EmailNotifications: true,
		}, nil
	}
	return settings, err
}

func (s *NotificationService) UpdateSettings(ctx context.Context, user types.User, in SettingsInput) (types.NotificationSetting, error) {
	minute, err := ParseMinute(in.ReminderTime)
	if err != nil {
		return types.NotificationSetting{}, err
	}
	return s.repo.UpsertSettings(ctx, types.NotificationSetting{
		UserID:             user.ID,
		ReminderTime:       minute,
		EmailNotifications: in.EmailNotifications,
		PushNotifications:  in.PushNotifications,
	})
}

// ParseMinute validates an "HH:MM" time of day and returns it zero padded.
func ParseMinute(raw string) (string, error) {
	t, err := time.Parse(MinuteLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", invalid("reminder_time", "must be HH:MM")
	}
	return t.Format(MinuteLayout), nil
}

// Unread lists the user's unread notifications, newest first.
func (s *NotificationService) Unread(ctx context.Context, user types.User) ([]types.Notification, error) {
	return s.repo.Unread(ctx, user.ID)
}

// MarkRead marks an owned notification as read. Foreign ids are ErrNotFound.
func (s *NotificationService) MarkRead(ctx context.Context, user types.User, id int) error {
	return s.repo.MarkRead(ctx, user.ID, id)
}

// SettingsDueNow returns the settings whose reminder time equals minute exactly.
func (s *NotificationService) SettingsDueNow(ctx context.Context, minute string) ([]types.NotificationSetting, error) {
	return s.repo.SettingsDueAt(ctx, minute)
}

// ReminderReport summarizes one reminder run.
type ReminderReport struct {
	Minute   string `json:"minute"`
	Due      int    `json:"due"`
	Notified int    `json:"notified"`
	Emailed  int    `json:"emailed"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

// SendReminders notifies every user due at now's minute who has no entry for today and has
// not been reminded today. Days and minutes are taken in the configured timezone.
func (s *NotificationService) SendReminders(ctx context.Context, now time.Time) (ReminderReport, error) {
	local := now.In(s.loc)
	minute := local.Format(MinuteLayout)
	today := types.DateOf(local)

	report := ReminderReport{Minute: minute}
	due, err := s.SettingsDueNow(ctx, minute)
	if err != nil {
		return report, fmt.Errorf("load due settings: %w", err)
	}
	report.Due = len(due)

	var errs []error
	for _, setting := range due {
		sent, emailed, err := s.remind(ctx, setting, today)
		switch {
		case err != nil:
			report.Failed++
			errs = append(errs, fmt.Errorf("user %d: %w", setting.UserID, err))
		case !sent:
			report.Skipped++
		default:
			report.Notified++
			if emailed {
				report.Emailed++
			}
		}
	}

	s.logger.InfoContext(ctx, "reminders processed",
		"minute", report.Minute, "due", report.Due, "notified", report.Notified,
		"emailed", report.Emailed, "skipped", report.Skipped, "failed", report.Failed)
	return report, errors.Join(errs...)
}

func (s *NotificationService) remind(ctx context.Context, setting types.NotificationSetting, today types.Date) (bool, bool, error) {
	user, err := s.users.GetByID(ctx, setting.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, false, nil
		}
		return false, false, err
	}

	wrote, err := s.entries.HasEntryOn(ctx, user.ID, today)
	if err != nil {
		return false, false, err
	}
	if wrote {
		return false, false, nil
	}
	text, err := s.catalog.Render(mail.KindReminder, mail.TemplateData{RecipientName: user.FullName()})
	if err != nil {
		return false, false, err
	}
	_, created, err := s.repo.CreateReminder(ctx, types.Notification{UserID: user.ID, Message: text.Notification}, today)
	if err != nil {
		return false, false, fmt.Errorf("create reminder: %w", err)
	}
	if !created {
		return false, false, nil
	}

	if !setting.EmailNotifications {
		return true, false, nil
	}
	return true, s.enqueue(ctx, user.Email, text), nil
}

// AlertTherapist records an alert about patientID for every linked therapist and emails
// those who have email enabled. A patient without therapists is a no-op. It returns the
// number of therapists alerted.
func (s *NotificationService) AlertTherapist(ctx context.Context, patientID int, alertType string) (int, error) {
	alertType = strings.TrimSpace(alertType)
	if alertType == "" {
		return 0, invalid("alert_type", "is required")
	}
	if len(alertType) > maxAlertTypeLength {
		return 0, invalid("alert_type", "must be at most %d characters", maxAlertTypeLength)
	}

	patient, err := s.users.GetByID(ctx, patientID)
	if err != nil {
		return 0, err
	}
	if patient.Role != types.RolePatient {
		return 0, invalid("patient_id", "user %d is not a patient", patientID)
	}

	therapists, err := s.links.TherapistsOf(ctx, patient.ID)
	if err != nil {
		return 0, fmt.Errorf("list therapists: %w", err)
	}

	alerted := 0
	for _, therapist := range therapists {
		text, err := s.catalog.Render(mail.KindAlert, mail.TemplateData{
			RecipientName: therapist.FullName(),
			PatientName:   patient.FullName(),
			AlertType:     alertType,
		})
		if err != nil {
			return alerted, err
		}
		if _, err := s.repo.Create(ctx, types.Notification{
			UserID:  therapist.ID,
			Type:    types.NotificationAlert,
			Message: text.Notification,
		}); err != nil {
			return alerted, fmt.Errorf("create alert for therapist %d: %w", therapist.ID, err)
		}
		alerted++

		settings, err := s.Settings(ctx, therapist)
		if err != nil {
			s.logger.WarnContext(ctx, "load therapist settings failed", "therapist_id", therapist.ID, "error", err)
			continue
		}
		if settings.EmailNotifications {
			s.enqueue(ctx, therapist.Email, text)
		}
	}
	return alerted, nil
}

// RaiseAlert lets a patient alert their own therapists.
func (s *NotificationService) RaiseAlert(ctx context.Context, patient types.User, alertType string) (int, error) {
	if patient.Role != types.RolePatient {
		return 0, ErrForbidden
	}
	return s.AlertTherapist(ctx, patient.ID, alertType)
}

func (s *NotificationService) enqueue(ctx context.Context, to string, text mail.Rendered) bool {
	if s.mail == nil {
		return false
	}
	id, err := s.mail.Enqueue(ctx, mail.Message{To: to, Subject: text.Subject, HTMLBody: text.HTMLBody})
	if err != nil {
		s.logger.WarnContext(ctx, "mail enqueue failed", "to", to, "error", err)
		return false
	}
	s.logger.DebugContext(ctx, "mail enqueued", "id", id, "to", to)
	return true
}
