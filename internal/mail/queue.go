package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/emodiary/apiserver/internal/mq"
	"github.com/google/uuid"
)

const (
	defaultPublishTimeout = 5 * time.Second
	defaultSendTimeout    = 30 * time.Second
)

// Queue publishes mail jobs for a Worker to deliver.
type Queue struct {
	backend mq.Backend
	channel string
	timeout time.Duration
}

func NewQueue(backend mq.Backend, channel string) *Queue {
	return &Queue{backend: backend, channel: channel, timeout: defaultPublishTimeout}
}

// Enqueue publishes msg and returns its job id. Publishing is detached from ctx cancellation
// so a finished HTTP request does not abort it; it is bounded by its own timeout instead.
func (q *Queue) Enqueue(ctx context.Context, msg Message) (string, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.timeout)
	defer cancel()
	if _, err := q.backend.Publish(ctx, q.channel, data, map[string]string{"kind": "mail"}); err != nil {
		return "", fmt.Errorf("publish mail %s: %w", msg.ID, err)
	}
	return msg.ID, nil
}

// Worker consumes mail jobs and hands them to a Sender.
type Worker struct {
	backend     mq.Backend
	channel     string
	sender      Sender
	logger      *slog.Logger
	sendTimeout time.Duration
}

func NewWorker(backend mq.Backend, channel string, sender Sender, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		backend:     backend,
		channel:     channel,
		sender:      sender,
		logger:      logger,
		sendTimeout: defaultSendTimeout,
	}
}

// Run blocks consuming jobs until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "mail worker started", "channel", w.channel)
	return w.backend.Subscribe(ctx, w.channel, w.Handle)
}

type drainer interface {
	Drain(ctx context.Context, channel string, handler mq.Handler) (int, error)
}

// Drain delivers the jobs already queued and returns. Only in-process backends support it.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	d, ok := w.backend.(drainer)
	if !ok {
		return 0, errors.New("mail backend cannot be drained")
	}
	return d.Drain(ctx, w.channel, w.Handle)
}

// Handle delivers one job. Undecodable jobs are dropped; a failed send is returned so brokers
// that support it can redeliver.
func (w *Worker) Handle(ctx context.Context, m mq.Message) error {
	var msg Message
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		w.logger.ErrorContext(ctx, "dropping malformed mail job", "message_id", m.ID, "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()
	if err := w.sender.Send(ctx, msg); err != nil {
		w.logger.WarnContext(ctx, "mail send failed",
			"id", msg.ID, "to", msg.To, "redelivered", m.Redelivered, "error", err)
		return err
	}
	w.logger.InfoContext(ctx, "mail sent", "id", msg.ID, "to", msg.To)
	return nil
}
