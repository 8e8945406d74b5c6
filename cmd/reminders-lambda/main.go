package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/emodiary/apiserver/config"
	"github.com/emodiary/apiserver/internal/app"
	"github.com/emodiary/apiserver/internal/services"
)

type reminderSender interface {
	SendReminders(ctx context.Context, now time.Time) (services.ReminderReport, error)
}

// handler runs one reminder pass per scheduled event, evaluated at the event's time.
type handler struct {
	reminders reminderSender
	// flush delivers mail queued in-process; nil when a shared broker is used.
	flush func(ctx context.Context) error
	now   func() time.Time
}

func (h handler) handle(ctx context.Context, event events.CloudWatchEvent) (services.ReminderReport, error) {
	at := event.Time
	if at.IsZero() {
		at = h.now()
	}

	report, err := h.reminders.SendReminders(ctx, at)
	if h.flush != nil {
		if ferr := h.flush(ctx); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}
	return report, err
}

func main() {
	ctx := context.Background()
	application, err := app.New(ctx, config.LoadConfig(), app.NewLogger(os.Stderr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}

	h := handler{reminders: application.Services.Notifications, now: time.Now}
	if application.InProcessMail() {
		worker, err := application.MailWorker()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize mail: %v\n", err)
			os.Exit(1)
		}
		h.flush = func(ctx context.Context) error {
			_, err := worker.Drain(ctx)
			return err
		}
	}

	lambda.Start(h.handle)
}
