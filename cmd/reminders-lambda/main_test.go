package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/emodiary/apiserver/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReminders struct {
	at  time.Time
	err error
}

func (f *fakeReminders) SendReminders(_ context.Context, now time.Time) (services.ReminderReport, error) {
	f.at = now
	return services.ReminderReport{Minute: now.UTC().Format(services.MinuteLayout), Due: 1, Notified: 1}, f.err
}

func TestHandlerUsesEventTime(t *testing.T) {
	fake := &fakeReminders{}
	flushed := false
	h := handler{
		reminders: fake,
		flush:     func(context.Context) error { flushed = true; return nil },
		now:       func() time.Time { t.Fatal("clock should not be read"); return time.Time{} },
	}

	eventTime := time.Date(2024, time.January, 5, 20, 0, 0, 0, time.UTC)
	report, err := h.handle(context.Background(), events.CloudWatchEvent{Time: eventTime})
	require.NoError(t, err)
	assert.Equal(t, eventTime, fake.at)
	assert.Equal(t, "20:00", report.Minute)
	assert.True(t, flushed)
}

func TestHandlerFallsBackToClockAndJoinsErrors(t *testing.T) {
	now := time.Date(2024, time.January, 5, 8, 15, 0, 0, time.UTC)
	fake := &fakeReminders{err: errors.New("user 3: boom")}
	h := handler{
		reminders: fake,
		flush:     func(context.Context) error { return errors.New("flush failed") },
		now:       func() time.Time { return now },
	}

	_, err := h.handle(context.Background(), events.CloudWatchEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "flush failed")
	assert.Equal(t, now, fake.at)
}
