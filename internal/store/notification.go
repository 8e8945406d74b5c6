package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/emodiary/apiserver/types"
)

// NotificationRepository stores in-app notifications and per-user reminder settings.
type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n types.Notification) (types.Notification, error) {
	n.CreatedAt = time.Now().UTC()
	n.IsRead = false

	const query = `
		INSERT INTO notifications (user_id, type, message, is_read, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, n.UserID, n.Type, n.Message, n.CreatedAt).Scan(&n.ID); err != nil {
		return types.Notification{}, err
	}
	return n, nil
}

// Unread returns the user's unread notifications, newest first.
func (r *NotificationRepository) Unread(ctx context.Context, userID int) ([]types.Notification, error) {
	const query = `
		SELECT id, user_id, type, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND is_read = FALSE
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]types.Notification, 0)
	for rows.Next() {
		var n types.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead flips is_read on a notification owned by userID.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id int) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// CreateReminder stores a reminder for day unless the user already has one for that day.
// created is false when another run got there first.
func (r *NotificationRepository) CreateReminder(ctx context.Context, n types.Notification, day types.Date) (types.Notification, bool, error) {
	n.Type = types.NotificationReminder
	n.CreatedAt = time.Now().UTC()
	n.IsRead = false

	const query = `
		INSERT INTO notifications (user_id, type, message, is_read, created_at, reminder_day)
		VALUES ($1, $2, $3, FALSE, $4, $5)
		ON CONFLICT (user_id, reminder_day) WHERE reminder_day IS NOT NULL DO NOTHING
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, n.UserID, n.Type, n.Message, n.CreatedAt, day).Scan(&n.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Notification{}, false, nil
	}
	if err != nil {
		return types.Notification{}, false, err
	}
	return n, true, nil
}

func (r *NotificationRepository) GetSettings(ctx context.Context, userID int) (types.NotificationSetting, error) {
	const query = `
		SELECT user_id, reminder_time, email_notifications, push_notifications, updated_at
		FROM notification_settings
		WHERE user_id = $1`
	var s types.NotificationSetting
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&s.UserID,
		&s.ReminderTime,
		&s.EmailNotifications,
		&s.PushNotifications,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.NotificationSetting{}, ErrNotFound
		}
		return types.NotificationSetting{}, err
	}
	return s, nil
}

func (r *NotificationRepository) UpsertSettings(ctx context.Context, s types.NotificationSetting) (types.NotificationSetting, error) {
	s.UpdatedAt = time.Now().UTC()

	const query = `
		INSERT INTO notification_settings (user_id, reminder_time, email_notifications, push_notifications, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET reminder_time = EXCLUDED.reminder_time,
			email_notifications = EXCLUDED.email_notifications,
			push_notifications = EXCLUDED.push_notifications,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, s.UserID, s.ReminderTime, s.EmailNotifications, s.PushNotifications, s.UpdatedAt); err != nil {
		return types.NotificationSetting{}, err
	}
	return s, nil
}

// SettingsDueAt returns the settings whose reminder time equals minute ("HH:MM").
func (r *NotificationRepository) SettingsDueAt(ctx context.Context, minute string) ([]types.NotificationSetting, error) {
	const query = `
		SELECT user_id, reminder_time, email_notifications, push_notifications, updated_at
		FROM notification_settings
		WHERE reminder_time = $1
		ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query, minute)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make([]types.NotificationSetting, 0)
	for rows.Next() {
		var s types.NotificationSetting
		if err := rows.Scan(&s.UserID, &s.ReminderTime, &s.EmailNotifications, &s.PushNotifications, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return settings, nil
}
