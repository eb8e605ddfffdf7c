package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/internal/idgen"
	"github.com/viant/guaranty/service/messaging"
)

// MessageState represents the state of a message in the filesystem queue
type MessageState string

const (
	MessageStatePending    MessageState = "pending"
	MessageStateProcessing MessageState = "processing"
	MessageStateCompleted  MessageState = "completed"
	MessageStateFailed     MessageState = "failed"
)

// Message implements messaging.Message for the filesystem queue
type Message[T any] struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Data      T            `json:"data"`
	State     MessageState `json:"state"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Retries   int          `json:"retries"`

	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack moves the message to the completed directory
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	m.State = MessageStateCompleted
	m.UpdatedAt = clock.Now()
	return m.queue.completeMessage(context.Background(), m)
}

// Nack moves the message to the failed directory for retry, or to the DLQ
// once MaxRetries is exceeded
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	m.State = MessageStateFailed
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	m.UpdatedAt = clock.Now()
	return m.queue.failMessage(context.Background(), m)
}

// Config holds configuration for filesystem queue
type Config struct {
	BaseURL    string // Base URL for queue files, any afs scheme
	MaxRetries int    // Maximum number of retry attempts
}

// DefaultConfig returns a default queue configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:    "/tmp/guaranty/queue",
		MaxRetries: 3,
	}
}

// Queue implements a filesystem-based messaging.Queue. Messages are
// consumed in publish order: file names start with a nanosecond timestamp.
type Queue[T any] struct {
	fs            afs.Service
	config        Config
	pendingDir    string
	processingDir string
	completedDir  string
	failedDir     string
	dlqDir        string
	mu            sync.Mutex
}

// NewQueue creates a new filesystem-based queue
func NewQueue[T any](fs afs.Service, config Config) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	baseURL := url.Normalize(config.BaseURL, file.Scheme)
	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingDir:    url.Join(baseURL, "pending"),
		processingDir: url.Join(baseURL, "processing"),
		completedDir:  url.Join(baseURL, "completed"),
		failedDir:     url.Join(baseURL, "failed"),
		dlqDir:        url.Join(baseURL, "dlq"),
	}
	ctx := context.Background()
	for _, dir := range []string{q.pendingDir, q.processingDir, q.completedDir, q.failedDir, q.dlqDir} {
		exists, _ := fs.Exists(ctx, dir)
		if !exists {
			if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
				return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}
	return q, nil
}

// Publish writes a new message into the pending directory
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if t == nil {
		return fmt.Errorf("cannot publish nil payload")
	}
	now := clock.Now()
	id := idgen.New()
	message := &Message[T]{
		ID:        id,
		Name:      fmt.Sprintf("%020d-%s.json", now.UnixNano(), id),
		Data:      *t,
		State:     MessageStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return q.upload(ctx, url.Join(q.pendingDir, message.Name), data)
}

// Consume claims the oldest failed-for-retry or pending message; it returns
// nil when the queue is empty
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, dir := range []string{q.failedDir, q.pendingDir} {
		message, err := q.claim(ctx, dir)
		if err != nil {
			return nil, err
		}
		if message != nil {
			return message, nil
		}
	}
	return nil, nil
}

func (q *Queue[T]) claim(ctx context.Context, dir string) (*Message[T], error) {
	objects, err := q.fs.List(ctx, dir, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	candidates := jsonFiles(objects)
	if len(candidates) == 0 {
		return nil, nil
	}
	obj := candidates[0]
	message, err := q.read(ctx, obj.URL())
	if err != nil {
		_ = q.fs.Move(ctx, obj.URL(), url.Join(q.dlqDir, "invalid-"+obj.Name()))
		return nil, err
	}
	if message.Retries > q.config.MaxRetries {
		if err := q.fs.Move(ctx, obj.URL(), url.Join(q.dlqDir, obj.Name())); err != nil {
			return nil, fmt.Errorf("failed to move message to DLQ: %w", err)
		}
		return nil, nil
	}
	message.State = MessageStateProcessing
	message.UpdatedAt = clock.Now()
	message.queue = q
	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := q.upload(ctx, url.Join(q.processingDir, message.Name), data); err != nil {
		return nil, fmt.Errorf("failed to move message to processing: %w", err)
	}
	if err := q.fs.Delete(ctx, obj.URL()); err != nil {
		return nil, fmt.Errorf("failed to delete claimed message: %w", err)
	}
	return message, nil
}

func (q *Queue[T]) completeMessage(ctx context.Context, m *Message[T]) error {
	return q.settle(ctx, m, q.completedDir)
}

func (q *Queue[T]) failMessage(ctx context.Context, m *Message[T]) error {
	if m.Retries > q.config.MaxRetries {
		return q.settle(ctx, m, q.dlqDir)
	}
	return q.settle(ctx, m, q.failedDir)
}

func (q *Queue[T]) settle(ctx context.Context, m *Message[T], dir string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := q.upload(ctx, url.Join(dir, m.Name), data); err != nil {
		return fmt.Errorf("failed to write message to %s: %w", dir, err)
	}
	processingURL := url.Join(q.processingDir, m.Name)
	if exists, _ := q.fs.Exists(ctx, processingURL); exists {
		if err := q.fs.Delete(ctx, processingURL); err != nil {
			return fmt.Errorf("failed to delete processing message: %w", err)
		}
	}
	return nil
}

// Count returns the number of messages in a state directory
func (q *Queue[T]) Count(ctx context.Context, state MessageState) (int, error) {
	dir := q.pendingDir
	switch state {
	case MessageStateProcessing:
		dir = q.processingDir
	case MessageStateCompleted:
		dir = q.completedDir
	case MessageStateFailed:
		dir = q.failedDir
	case "dlq":
		dir = q.dlqDir
	}
	objects, err := q.fs.List(ctx, dir, option.NewRecursive(false))
	if err != nil {
		return 0, err
	}
	return len(jsonFiles(objects)), nil
}

func jsonFiles(objects []storage.Object) []storage.Object {
	var ret []storage.Object
	for _, obj := range objects {
		if !obj.IsDir() && strings.HasSuffix(obj.Name(), ".json") {
			ret = append(ret, obj)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name() < ret[j].Name() })
	return ret
}

func (q *Queue[T]) upload(ctx context.Context, URL string, data []byte) error {
	return q.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data))
}

func (q *Queue[T]) read(ctx context.Context, URL string) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", URL, err)
	}
	var message Message[T]
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", URL, err)
	}
	return &message, nil
}

// ensure Queue implements messaging.Queue interface
var _ messaging.Queue[any] = (*Queue[any])(nil)
