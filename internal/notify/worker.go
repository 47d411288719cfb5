package notify

import (
	"context"

	"github.com/mydesiresalon/salon-api/pkg/logging"
)

// Worker drains the delivery queue. Each job is attempted once; failures are
// logged and the job is dropped (the notification record already exists, and
// there is no automatic retry policy).
type Worker struct {
	queue      Queue
	dispatcher *Dispatcher
	logger     *logging.Logger
}

// NewWorker creates a worker over the queue and dispatcher.
func NewWorker(queue Queue, dispatcher *Dispatcher, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{queue: queue, dispatcher: dispatcher, logger: logger}
}

// Run blocks until ctx is canceled, delivering jobs as they arrive.
func (w *Worker) Run(ctx context.Context) {
	if w.queue == nil || w.dispatcher == nil {
		return
	}
	w.logger.Info("notification worker started")
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("notification worker stopping")
				return
			}
			w.logger.Error("failed to dequeue notification job", "error", err)
			continue
		}
		if job == nil {
			continue
		}
		// Deliver logs and counts its own failures.
		_ = w.dispatcher.Deliver(ctx, *job)
	}
}
