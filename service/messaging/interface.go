// Package messaging abstracts the queues carrying domain events and the
// notification outbox.
package messaging

import "context"

// Vendor names a queue implementation.
type Vendor string

const (
	VendorMemory Vendor = "memory"
	VendorFS     Vendor = "fs"
	VendorKafka  Vendor = "kafka"
)

// Queue carries payloads of type T. Delivery is at least once: a payload is
// redelivered until its message is acked or dead-lettered.
type Queue[T any] interface {
	Publish(ctx context.Context, t *T) error

	// Consume returns the next message. Polling vendors return a nil
	// message and nil error when nothing is pending; streaming vendors
	// block until a message arrives or ctx is done.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is a delivered payload awaiting acknowledgement.
type Message[T any] interface {
	T() *T
	Ack() error
	// Nack schedules redelivery, or dead-letters the payload once retries
	// are exhausted.
	Nack(err error) error
}
