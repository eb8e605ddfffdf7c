package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/internal/idgen"
	"github.com/viant/guaranty/service/messaging"
)

// Config for memory queue implementation
type Config struct {
	MaxRetries  int
	RetryDelay  time.Duration
	DeadLetter  bool
	QueueBuffer int
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		DeadLetter:  true,
		QueueBuffer: 1024,
	}
}

// Message implements messaging.Message for the in-memory queue
type Message[T any] struct {
	id         string
	payload    T
	queue      *Queue[T]
	retryCount int
	mu         sync.Mutex
	processed  bool
	createdAt  time.Time
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	return nil
}

// Nack requeues the message after RetryDelay, or dead-letters it once
// MaxRetries is exceeded.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	m.retryCount++
	if m.retryCount > m.queue.config.MaxRetries {
		m.queue.deadLetter(m)
		return nil
	}
	retry := &Message[T]{
		id:         m.id,
		payload:    m.payload,
		queue:      m.queue,
		retryCount: m.retryCount,
		createdAt:  clock.Now(),
	}
	time.AfterFunc(m.queue.config.RetryDelay, func() {
		select {
		case m.queue.messages <- retry:
		default:
			m.queue.deadLetter(retry)
		}
	})
	return nil
}

// Queue implements an in-memory messaging.Queue
type Queue[T any] struct {
	messages chan *Message[T]
	dlq      []*Message[T]
	config   Config
	dlqMu    sync.Mutex
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		config:   config,
	}
}

// Publish adds a new item to the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if t == nil {
		return fmt.Errorf("cannot publish nil payload")
	}
	msg := &Message[T]{
		id:        idgen.New(),
		payload:   *t,
		queue:     q,
		createdAt: clock.Now(),
	}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume blocks until a message is available or ctx is done
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryConsume returns the next message or nil when the queue is empty.
func (q *Queue[T]) TryConsume() *Message[T] {
	select {
	case msg := <-q.messages:
		return msg
	default:
		return nil
	}
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DeadLetters returns the payloads of dead-lettered messages
func (q *Queue[T]) DeadLetters() []T {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	ret := make([]T, 0, len(q.dlq))
	for _, msg := range q.dlq {
		ret = append(ret, msg.payload)
	}
	return ret
}

func (q *Queue[T]) deadLetter(m *Message[T]) {
	if !q.config.DeadLetter {
		return
	}
	q.dlqMu.Lock()
	q.dlq = append(q.dlq, m)
	q.dlqMu.Unlock()
}

// ensure Queue implements messaging.Queue interface
var _ messaging.Queue[any] = (*Queue[any])(nil)
