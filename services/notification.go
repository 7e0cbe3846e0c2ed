package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Notifier delivers a message to one recipient. Delivery is best-effort:
// callers log the error and move on.
type Notifier interface {
	Notify(ctx context.Context, recipientID, subject, body string) error
}

// Broadcaster pushes an event to every subscriber of a room.
type Broadcaster interface {
	Publish(ctx context.Context, room, eventType string, payload any) error
}

const defaultNotificationConcurrency = 8

// NotificationDispatcher fans messages out to recipients in the background.
// Every recipient gets its own attempt; a failing, slow or panicking notifier
// never affects the others and never reaches the caller.
type NotificationDispatcher struct {
	notifier    Notifier
	broadcaster Broadcaster
	concurrency int
	logger      *slog.Logger
	pending     sync.WaitGroup
}

func NewNotificationDispatcher(notifier Notifier, broadcaster Broadcaster, concurrency int, logger *slog.Logger) *NotificationDispatcher {
	if concurrency <= 0 {
		concurrency = defaultNotificationConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationDispatcher{
		notifier:    notifier,
		broadcaster: broadcaster,
		concurrency: concurrency,
		logger:      logger,
	}
}

// NotifyAll starts one delivery per recipient and returns without waiting.
// Deliveries run on a context detached from ctx; Drain waits for them.
func (d *NotificationDispatcher) NotifyAll(ctx context.Context, recipients []string, subject, body string) {
	if d == nil || d.notifier == nil || len(recipients) == 0 {
		return
	}
	// The operation that triggered the messages has already been persisted.
	ctx = context.WithoutCancel(ctx)
	recipients = slices.Clone(recipients)

	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		failed := d.deliver(ctx, recipients, subject, body)
		d.logger.Info("Notifications delivered",
			slog.String("subject", subject),
			slog.Int("recipients", len(recipients)),
			slog.Int("failed", failed))
	}()
}

// Notify starts a single delivery and returns without waiting.
func (d *NotificationDispatcher) Notify(ctx context.Context, recipient, subject, body string) {
	d.NotifyAll(ctx, []string{recipient}, subject, body)
}

// Drain blocks until every started delivery has finished or ctx is done.
func (d *NotificationDispatcher) Drain(ctx context.Context) error {
	if d == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		d.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notifications still in flight: %w", ctx.Err())
	}
}

// deliver sends one message per recipient and waits for every attempt.
// It returns the number of failed attempts.
func (d *NotificationDispatcher) deliver(ctx context.Context, recipients []string, subject, body string) int {
	failures := make([]bool, len(recipients))
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, recipient := range recipients {
		g.Go(func() error {
			if err := d.send(ctx, recipient, subject, body); err != nil {
				failures[i] = true
				d.logger.Warn("Notification delivery failed",
					slog.String("recipient_id", recipient),
					slog.String("subject", subject),
					slog.Any("error", err))
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	return failed
}

// Publish pushes an event to a room, logging any failure.
func (d *NotificationDispatcher) Publish(ctx context.Context, room, eventType string, payload any) {
	if d == nil || d.broadcaster == nil {
		return
	}
	if err := d.broadcaster.Publish(context.WithoutCancel(ctx), room, eventType, payload); err != nil {
		d.logger.Warn("Event broadcast failed",
			slog.String("room", room),
			slog.String("event", eventType),
			slog.Any("error", err))
	}
}

func (d *NotificationDispatcher) send(ctx context.Context, recipient, subject, body string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return d.notifier.Notify(ctx, recipient, subject, body)
}
