package actor

import (
	"github.com/viant/guaranty/model/actor"
	saudit "github.com/viant/guaranty/service/audit"
	"github.com/viant/guaranty/service/event"
	"github.com/viant/guaranty/service/storage"
	"go.uber.org/zap"
)

// Option customises the actor service.
type Option func(s *Service)

// WithRules sets the completeness rules.
func WithRules(rules *actor.Rules) Option {
	return func(s *Service) {
		if rules != nil {
			s.rules = rules
		}
	}
}

// WithStorage sets the document storage collaborator.
func WithStorage(storage storage.Storage) Option {
	return func(s *Service) {
		s.storage = storage
	}
}

// WithRecorder sets the audit recorder.
func WithRecorder(recorder *saudit.Recorder) Option {
	return func(s *Service) {
		s.recorder = recorder
	}
}

// WithEvents sets the event service actor changes are published on.
func WithEvents(events *event.Service) Option {
	return func(s *Service) {
		s.events = events
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
