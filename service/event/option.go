package event

import (
	"time"

	"github.com/viant/guaranty/service/messaging/fs"
	"github.com/viant/guaranty/service/messaging/kafka"
	"github.com/viant/guaranty/service/messaging/memory"
	"go.uber.org/zap"
)

type Option func(s *Service)

// WithNewFsQueueConfig sets the new file system queue configuration
func WithNewFsQueueConfig(newConfig func(name string) fs.Config) Option {
	return func(s *Service) {
		s.fsNewQueueConfig = newConfig
	}
}

// WithNewMemoryQueueConfig  sets the new memory queue configuration
func WithNewMemoryQueueConfig(newQueue func(name string) memory.Config) Option {
	return func(s *Service) {
		s.memNewQueueConfig = newQueue
	}
}

// WithNewKafkaQueueConfig sets the new kafka queue configuration
func WithNewKafkaQueueConfig(newConfig func(name string) kafka.Config) Option {
	return func(s *Service) {
		s.kafkaNewQueueConfig = newConfig
	}
}

// WithLogger sets the logger used by listeners.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPollInterval sets how often listeners poll an empty queue.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Service) {
		s.pollInterval = interval
	}
}
