package mq

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const defaultMemoryBuffer = 256

// MemoryBackend is an in-process queue for single-binary deployments and tests. Messages
// published before a subscriber attaches are buffered up to the channel capacity.
type MemoryBackend struct {
	mu       sync.Mutex
	queues   map[string]chan Message
	buffer   int
	done     chan struct{}
	closeOne sync.Once
}

func NewMemoryBackend(buffer int) *MemoryBackend {
	if buffer <= 0 {
		buffer = defaultMemoryBuffer
	}
	return &MemoryBackend{
		queues: make(map[string]chan Message),
		buffer: buffer,
		done:   make(chan struct{}),
	}
}

func (m *MemoryBackend) queue(name string) chan Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[name]
	if !ok {
		q = make(chan Message, m.buffer)
		m.queues[name] = q
	}
	return q
}

// Publish never waits for a consumer. A full queue drops the message and returns ErrFull.
func (m *MemoryBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("memory channel is required")
	}
	select {
	case <-m.done:
		return "", ErrClosed
	default:
	}

	msg := Message{ID: uuid.NewString(), Data: append([]byte(nil), data...), Attributes: attrs}
	select {
	case m.queue(channel) <- msg:
		return msg.ID, nil
	default:
		return "", ErrFull
	}
}

// Subscribe delivers messages until ctx is done or the backend is closed. Failed messages are
// not redelivered.
func (m *MemoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("memory channel is required")
	}
	q := m.queue(channel)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return nil
		case msg := <-q:
			_ = handler(ctx, msg)
		}
	}
}

func (m *MemoryBackend) Close() error {
	m.closeOne.Do(func() { close(m.done) })
	return nil
}

// Drain delivers the messages already buffered on channel and returns how many were handled.
// It does not wait for new messages.
func (m *MemoryBackend) Drain(ctx context.Context, channel string, handler Handler) (int, error) {
	q := m.queue(channel)
	handled := 0
	for {
		select {
		case <-ctx.Done():
			return handled, ctx.Err()
		case msg := <-q:
			_ = handler(ctx, msg)
			handled++
		default:
			return handled, nil
		}
	}
}
