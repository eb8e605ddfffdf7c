package event

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler processes one event; a returned error nacks the message.
type Handler[T any] func(ctx context.Context, event *Event[T]) error

type Listener[T any] struct {
	publisher    *Publisher[T]
	handler      Handler[T]
	logger       *zap.Logger
	pollInterval time.Duration
	cancel       context.CancelFunc
	done         chan struct{}
	once         sync.Once
}

func NewListener[T any](publisher *Publisher[T], handler Handler[T], logger *zap.Logger, pollInterval time.Duration) *Listener[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = 50 * time.Millisecond
	}
	return &Listener[T]{
		publisher:    publisher,
		handler:      handler,
		logger:       logger,
		pollInterval: pollInterval,
		done:         make(chan struct{}),
	}
}

// Stop cancels the consume loop and waits for it to exit.
func (l *Listener[T]) Stop() {
	l.once.Do(func() {
		if l.cancel != nil {
			l.cancel()
			<-l.done
		}
	})
}

// Start runs the consume loop until Stop or ctx cancellation.
func (l *Listener[T]) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	go func() {
		defer close(l.done)
		for {
			if ctx.Err() != nil {
				return
			}
			message, err := l.publisher.Consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				l.logger.Warn("failed to consume event", zap.Error(err))
				l.wait(ctx)
				continue
			}
			if message == nil {
				l.wait(ctx)
				continue
			}
			if err := l.handler(ctx, message.T()); err != nil {
				l.logger.Warn("event handler failed", zap.Error(err))
				_ = message.Nack(err)
				continue
			}
			if err := message.Ack(); err != nil {
				l.logger.Warn("failed to ack event", zap.Error(err))
			}
		}
	}()
}

func (l *Listener[T]) wait(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(l.pollInterval):
	}
}
