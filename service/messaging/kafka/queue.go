// Package kafka provides a messaging.Queue backed by a Kafka topic. Payloads
// are JSON encoded; consumption uses a consumer group and commits on Ack.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/service/messaging"
	"go.uber.org/zap"
)

const retriesHeader = "x-retries"

// Config holds the topic coordinates.
type Config struct {
	Brokers    []string
	Topic      string
	GroupID    string
	MaxRetries int
}

// Queue publishes to and consumes from one topic.
type Queue[T any] struct {
	config Config
	writer *kafka.Writer
	reader *kafka.Reader
	logger *zap.Logger
}

// Message wraps a fetched kafka message.
type Message[T any] struct {
	queue     *Queue[T]
	raw       kafka.Message
	payload   T
	retries   int
	mu        sync.Mutex
	processed bool
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

// Ack commits the message offset.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	return m.queue.reader.CommitMessages(context.Background(), m.raw)
}

// Nack republishes the message with an incremented retry count and commits
// the original; after MaxRetries the message is dropped and logged.
func (m *Message[T]) Nack(cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	ctx := context.Background()
	if m.retries < m.queue.config.MaxRetries {
		retry := kafka.Message{
			Key:     m.raw.Key,
			Value:   m.raw.Value,
			Time:    clock.Now(),
			Headers: []kafka.Header{{Key: retriesHeader, Value: []byte(strconv.Itoa(m.retries + 1))}},
		}
		if err := m.queue.writer.WriteMessages(ctx, retry); err != nil {
			return fmt.Errorf("failed to requeue message: %w", err)
		}
	} else {
		m.queue.logger.Warn("dropping message after max retries",
			zap.String("topic", m.queue.config.Topic),
			zap.Int64("offset", m.raw.Offset),
			zap.Error(cause))
	}
	return m.queue.reader.CommitMessages(ctx, m.raw)
}

// NewQueue creates a topic-backed queue.
func NewQueue[T any](config Config, logger *zap.Logger) (*Queue[T], error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers cannot be empty")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("kafka topic cannot be empty")
	}
	if config.GroupID == "" {
		config.GroupID = "guaranty"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue[T]{
		config: config,
		logger: logger,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(config.Brokers...),
			Topic:        config.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			MaxAttempts:  3,
			WriteTimeout: 10 * time.Second,
		},
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: config.Brokers,
			Topic:   config.Topic,
			GroupID: config.GroupID,
		}),
	}, nil
}

// Publish writes one JSON message.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if t == nil {
		return fmt.Errorf("cannot publish nil payload")
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return q.writer.WriteMessages(ctx, kafka.Message{Value: data, Time: clock.Now()})
}

// Consume blocks until a message is fetched or ctx is done.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	raw, err := q.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	ret := &Message[T]{queue: q, raw: raw}
	for _, header := range raw.Headers {
		if header.Key == retriesHeader {
			ret.retries, _ = strconv.Atoi(string(header.Value))
		}
	}
	if err = json.Unmarshal(raw.Value, &ret.payload); err != nil {
		_ = q.reader.CommitMessages(ctx, raw)
		return nil, fmt.Errorf("failed to unmarshal message at offset %d: %w", raw.Offset, err)
	}
	return ret, nil
}

// Close releases the writer and reader.
func (q *Queue[T]) Close() error {
	werr := q.writer.Close()
	rerr := q.reader.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
