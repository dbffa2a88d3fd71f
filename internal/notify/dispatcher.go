package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/turnoflow/booking-platform/pkg/logging"
)

// Dispatcher drains the notification queue with a small worker pool and hands
// each decoded job to the email sender. A failed send is logged and left on
// the queue for redelivery.
type Dispatcher struct {
	queue       Queue
	email       EmailSender
	workers     int
	waitSeconds int
	logger      *logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher builds a dispatcher over the given queue and sender.
func NewDispatcher(queue Queue, email EmailSender, workers, waitSeconds int, logger *logging.Logger) *Dispatcher {
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	if email == nil {
		panic("notify: email sender cannot be nil")
	}
	if workers <= 0 {
		workers = 2
	}
	if waitSeconds <= 0 {
		waitSeconds = 10
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		queue:       queue,
		email:       email,
		workers:     workers,
		waitSeconds: waitSeconds,
		logger:      logger,
	}
}

// Start launches the worker pool. Calling Start twice is a no-op until Stop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run(ctx, d.logger.With("worker", i))
	}
	d.logger.Info("notification dispatcher started", "workers", d.workers)
}

// Stop cancels the workers and waits for in-flight sends to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	d.wg.Wait()
	d.logger.Info("notification dispatcher stopped")
}

func (d *Dispatcher) run(ctx context.Context, logger *logging.Logger) {
	defer d.wg.Done()
	for {
		messages, err := d.queue.Receive(ctx, 5, d.waitSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("notification receive failed", "error", err)
			continue
		}
		for _, msg := range messages {
			d.process(ctx, msg, logger)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, msg Message, logger *logging.Logger) {
	var email EmailMessage
	if err := json.Unmarshal([]byte(msg.Body), &email); err != nil {
		// An undecodable job will never succeed; drop it.
		logger.Error("dropping undecodable notification job", "message_id", msg.ID, "error", err)
		_ = d.queue.Delete(ctx, msg.ReceiptHandle)
		return
	}
	if err := d.email.Send(ctx, email); err != nil {
		logger.Error("notification send failed", "message_id", msg.ID, "to", email.To, "error", err)
		return
	}
	if err := d.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		logger.Warn("failed to delete delivered notification", "message_id", msg.ID, "error", err)
	}
}
