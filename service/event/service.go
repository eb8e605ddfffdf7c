// Package event publishes typed domain events (policy status changes, actor
// changes) over a messaging vendor so that interested parties are pushed
// state changes instead of polling.
package event

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/guaranty/service/messaging"
	"github.com/viant/guaranty/service/messaging/fs"
	"github.com/viant/guaranty/service/messaging/kafka"
	"github.com/viant/guaranty/service/messaging/memory"
	"go.uber.org/zap"
)

type Service struct {
	publisher           *Publisher[any]
	listener            *Listener[any]
	typedPublishers     map[reflect.Type]any
	typedListener       map[reflect.Type]any
	mux                 *sync.RWMutex
	queueVendor         messaging.Vendor
	fsNewQueueConfig    func(name string) fs.Config
	memNewQueueConfig   func(name string) memory.Config
	kafkaNewQueueConfig func(name string) kafka.Config
	logger              *zap.Logger
	pollInterval        time.Duration
}

// SetListener consumes every event regardless of its payload type.
func (s *Service) SetListener(ctx context.Context, handler Handler[any]) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.listener != nil {
		s.listener.Stop()
	}
	s.listener = NewListener[any](s.publisher, handler, s.logger, s.pollInterval)
	s.listener.Start(ctx)
}

// Publish publishes data on the queue of its type.
func Publish[T any](ctx context.Context, s *Service, eventContext *Context, data T) error {
	publisher, err := PublisherOf[T](s)
	if err != nil {
		return err
	}
	return publisher.Publish(ctx, NewEvent[T](eventContext, data))
}

// Close stops every listener.
func (s *Service) Close() {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.listener != nil {
		s.listener.Stop()
	}
	for _, listener := range s.typedListener {
		if stopper, ok := listener.(interface{ Stop() }); ok {
			stopper.Stop()
		}
	}
}

func New(queueVendor messaging.Vendor, opts ...Option) (*Service, error) {
	ret := &Service{
		queueVendor:     queueVendor,
		typedPublishers: make(map[reflect.Type]any),
		typedListener:   make(map[reflect.Type]any),
		mux:             &sync.RWMutex{},
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ret)
	}

	switch queueVendor {
	case messaging.VendorFS:
		if ret.fsNewQueueConfig == nil {
			return nil, fmt.Errorf("fs queue vendor requires fsNewQueueConfig")
		}
	case messaging.VendorMemory:
		if ret.memNewQueueConfig == nil {
			ret.memNewQueueConfig = func(string) memory.Config { return memory.DefaultConfig() }
		}
	case messaging.VendorKafka:
		if ret.kafkaNewQueueConfig == nil {
			return nil, fmt.Errorf("kafka queue vendor requires kafkaNewQueueConfig")
		}
	default:
		return nil, fmt.Errorf("unsupported queue vendor: %s", queueVendor)
	}

	queue, err := QueueOf[Event[any]](ret, "any")
	if err != nil {
		return nil, err
	}
	ret.publisher = NewPublisher[any](queue)
	return ret, nil
}

func QueueOf[T any](s *Service, name string) (messaging.Queue[T], error) {
	switch s.queueVendor {
	case messaging.VendorFS:
		return fs.NewQueue[T](afs.New(), s.fsNewQueueConfig(name))
	case messaging.VendorMemory:
		return memory.NewQueue[T](s.memNewQueueConfig(name)), nil
	case messaging.VendorKafka:
		return kafka.NewQueue[T](s.kafkaNewQueueConfig(name), s.logger)
	}
	return nil, fmt.Errorf("unsupported queue vendor: %s", s.queueVendor)
}

func keyOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// QueueName returns a file and topic safe name for T.
func QueueName[T any]() string {
	name := keyOf[T]().String()
	return strings.NewReplacer(".", "-", "*", "", "[", "-", "]", "").Replace(name)
}

func SetListenerOf[T any](ctx context.Context, s *Service, handler Handler[T]) error {
	key := keyOf[T]()
	publisher, err := PublisherOf[T](s)
	if err != nil {
		return err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if prev, ok := s.typedListener[key]; ok {
		prev.(*Listener[T]).Stop()
	}
	listener := NewListener[T](publisher, handler, s.logger, s.pollInterval)
	s.typedListener[key] = listener
	listener.Start(ctx)
	return nil
}

// PublisherOf returns a publisher for the provided type
func PublisherOf[T any](s *Service) (*Publisher[T], error) {
	key := keyOf[T]()
	s.mux.RLock()
	ret, ok := s.typedPublishers[key]
	s.mux.RUnlock()
	if ok {
		return ret.(*Publisher[T]), nil
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if ret, ok = s.typedPublishers[key]; ok {
		return ret.(*Publisher[T]), nil
	}
	queue, err := QueueOf[Event[T]](s, QueueName[T]())
	if err != nil {
		return nil, err
	}
	publisher := NewPublisher[T](queue)
	publisher.anyQueue = s.publisher.queue
	s.typedPublishers[key] = publisher
	return publisher, nil
}
