package grant

import (
	"time"

	"go.uber.org/zap"
)

// Option customises the grant service.
type Option func(*Service)

// WithTTL sets the default grant lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
