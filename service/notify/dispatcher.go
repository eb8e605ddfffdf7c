package notify

import (
	"context"
	"errors"
	"time"

	"github.com/viant/guaranty/service/messaging"
	"go.uber.org/zap"
)

// Dispatcher drains the outbox into a Sender; failed deliveries are nacked
// for retry by the underlying queue.
type Dispatcher struct {
	queue        messaging.Queue[Notification]
	sender       Sender
	logger       *zap.Logger
	pollInterval time.Duration
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(queue messaging.Queue[Notification], sender Sender, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{queue: queue, sender: sender, logger: logger, pollInterval: 100 * time.Millisecond}
}

// Run delivers notifications until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		delivered, err := d.dispatch(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			d.logger.Warn("failed to consume notification", zap.Error(err))
		}
		if delivered {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(d.pollInterval):
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context) (bool, error) {
	message, err := d.queue.Consume(ctx)
	if err != nil || message == nil {
		return false, err
	}
	notification := message.T()
	if err := d.sender.Deliver(ctx, notification); err != nil {
		d.logger.Warn("notification delivery failed",
			zap.String("kind", string(notification.Kind)),
			zap.String("policy_id", notification.PolicyID),
			zap.String("actor_id", notification.ActorID),
			zap.Error(err))
		return true, message.Nack(err)
	}
	return true, message.Ack()
}
