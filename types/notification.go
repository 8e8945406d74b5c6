package types

import "time"

// NotificationType distinguishes daily reminders from therapist alerts.
type NotificationType string

const (
	NotificationReminder NotificationType = "reminder"
	NotificationAlert    NotificationType = "alert"
)

// Notification is an in-app message for one recipient.
type Notification struct {
	ID        int              `json:"id" db:"id"`
	UserID    int              `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Message   string           `json:"message" db:"message"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// NotificationSetting holds a user's reminder preferences.
type NotificationSetting struct {
	UserID int `json:"user_id" db:"user_id"`

	// ReminderTime is the minute of day, formatted "HH:MM", at which a reminder is due.
	ReminderTime string `json:"reminder_time" db:"reminder_time"`

	EmailNotifications bool      `json:"email_notifications" db:"email_notifications"`
	PushNotifications  bool      `json:"push_notifications" db:"push_notifications"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}
