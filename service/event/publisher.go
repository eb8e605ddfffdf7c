package event

import (
	"context"

	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/service/messaging"
)

type Publisher[T any] struct {
	queue    messaging.Queue[Event[T]]
	anyQueue messaging.Queue[Event[any]]
}

func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{
		queue: queue,
	}
}

// Publish enqueues event on the typed queue and mirrors it on the any queue.
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	event.CreatedAt = clock.Now()
	if p.anyQueue != nil {
		if err := p.anyQueue.Publish(ctx, &Event[any]{
			Context:   event.Context,
			CreatedAt: event.CreatedAt,
			Metadata:  event.Metadata,
			Data:      event.Data,
		}); err != nil {
			return err
		}
	}
	return p.queue.Publish(ctx, event)
}

// Consume returns the next message; it blocks like the underlying queue.
func (p *Publisher[T]) Consume(ctx context.Context) (messaging.Message[Event[T]], error) {
	return p.queue.Consume(ctx)
}
