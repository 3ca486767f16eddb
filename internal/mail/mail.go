// Package mail hands outbound messages to a background delivery worker.
package mail

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mindmatters/mindmatters-api/internal/metrics"
)

var (
	// ErrQueueFull is returned when the delivery backlog is saturated.
	ErrQueueFull = errors.New("mail queue is full")
	// ErrQueueClosed is returned after Close.
	ErrQueueClosed = errors.New("mail queue is closed")
)

const deliveryTimeout = 30 * time.Second

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer accepts messages for asynchronous delivery. A nil error means the
// message was handed off, not that it arrived.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Sender performs the actual delivery.
type Sender interface {
	Deliver(ctx context.Context, msg Message) error
}

// Queue is a bounded Mailer backed by one delivery goroutine.
type Queue struct {
	sender  Sender
	logger  *slog.Logger
	metrics metrics.MailRecorder

	mu     sync.RWMutex
	closed bool
	ch     chan Message
	wg     sync.WaitGroup
}

// NewQueue starts the delivery worker. size bounds the backlog.
func NewQueue(sender Sender, size int, logger *slog.Logger, recorder metrics.MailRecorder) *Queue {
	if size <= 0 {
		size = 1
	}
	q := &Queue{
		sender:  sender,
		logger:  logger,
		metrics: recorder,
		ch:      make(chan Message, size),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// Send enqueues msg without waiting for delivery.
func (q *Queue) Send(ctx context.Context, msg Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for the backlog to drain.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *Queue) run() {
	defer q.wg.Done()
	for msg := range q.ch {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		err := q.sender.Deliver(ctx, msg)
		cancel()
		if err != nil {
			q.metrics.RecordMailFailure()
			q.logger.Error("mail delivery failed",
				slog.String("to", msg.To),
				slog.String("subject", msg.Subject),
				slog.String("error", err.Error()),
			)
			continue
		}
		q.logger.Info("mail delivered",
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject),
		)
	}
}
