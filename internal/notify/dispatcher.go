package notify

import (
	"context"
	"fmt"

	"github.com/mydesiresalon/salon-api/internal/observability/metrics"
	"github.com/mydesiresalon/salon-api/pkg/logging"
)

// Result reports the outcome of one dispatch. It is informational: callers
// never fail their own operation because a notification did not go out.
type Result struct {
	NotificationID string
	Delivered      bool
	Queued         bool
	Err            error
}

// Dispatcher persists a notification record and then attempts delivery over
// the requested channel, inline or via the delivery queue.
type Dispatcher struct {
	store    Store
	channels map[ChannelKind]Channel
	queue    Queue
	logger   *logging.Logger
	metrics  *metrics.BookingMetrics
}

// NewDispatcher creates a dispatcher with the given channels registered.
func NewDispatcher(store Store, channels []Channel, logger *logging.Logger, m *metrics.BookingMetrics) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	byKind := make(map[ChannelKind]Channel, len(channels))
	for _, ch := range channels {
		if ch != nil {
			byKind[ch.Kind()] = ch
		}
	}
	return &Dispatcher{
		store:    store,
		channels: byKind,
		logger:   logger,
		metrics:  m,
	}
}

// WithQueue switches the dispatcher to asynchronous delivery: Dispatch
// persists the record and enqueues a job instead of delivering inline.
func (d *Dispatcher) WithQueue(queue Queue) *Dispatcher {
	d.queue = queue
	return d
}

// Dispatch records the notification and attempts delivery once. Failures are
// logged and reported in the result, never raised past this boundary.
func (d *Dispatcher) Dispatch(ctx context.Context, to Recipient, message string, channel ChannelKind) Result {
	var result Result

	if d.store != nil && to.UserID != "" {
		record, err := d.store.Insert(ctx, to.UserID, message)
		if err != nil {
			d.logger.Error("failed to persist notification", "error", err, "user_id", to.UserID)
			result.Err = err
		} else {
			result.NotificationID = record.ID
		}
	}

	job := Job{
		NotificationID: result.NotificationID,
		Recipient:      to,
		Message:        message,
		Channel:        channel,
	}

	if d.queue != nil {
		if err := d.queue.Enqueue(ctx, job); err != nil {
			d.logger.Error("failed to enqueue notification", "error", err, "channel", channel)
			d.observe(channel, "enqueue_failed")
			result.Err = err
			return result
		}
		result.Queued = true
		return result
	}

	if err := d.Deliver(ctx, job); err != nil {
		result.Err = err
		return result
	}
	result.Delivered = true
	return result
}

// Deliver performs one delivery attempt. The worker calls this for queued
// jobs; Dispatch calls it inline when no queue is configured.
func (d *Dispatcher) Deliver(ctx context.Context, job Job) error {
	ch, ok := d.channels[job.Channel]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrChannelUnsupported, job.Channel)
		d.logger.Warn("notification channel unsupported", "channel", job.Channel, "user_id", job.Recipient.UserID)
		d.observe(job.Channel, "unsupported")
		return err
	}
	if err := ch.Deliver(ctx, job.Recipient, job.Message); err != nil {
		d.logger.Error("notification delivery failed",
			"error", err,
			"channel", job.Channel,
			"user_id", job.Recipient.UserID,
		)
		d.observe(job.Channel, "failed")
		return err
	}
	d.logger.Info("notification delivered", "channel", job.Channel, "user_id", job.Recipient.UserID)
	d.observe(job.Channel, "sent")
	return nil
}

func (d *Dispatcher) observe(channel ChannelKind, status string) {
	d.metrics.ObserveNotification(string(channel), status)
}
