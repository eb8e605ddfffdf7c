package lifecycle

import (
	"time"

	"github.com/viant/guaranty/access"
	"github.com/viant/guaranty/model/actor"
	saudit "github.com/viant/guaranty/service/audit"
	"github.com/viant/guaranty/service/event"
	"github.com/viant/guaranty/service/lock"
	"github.com/viant/guaranty/service/metrics"
	"github.com/viant/guaranty/service/notify"
	"github.com/viant/guaranty/service/render"
	"github.com/viant/guaranty/service/storage"
	"go.uber.org/zap"
)

// DefaultLockTimeout bounds how long an operation waits for a policy lock.
const DefaultLockTimeout = 5 * time.Second

// Option customises the orchestrator.
type Option func(s *Service)

// WithLocker shares a locker, typically with the actor self-service.
func WithLocker(locker *lock.Locker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

// WithRules sets the authorization rules.
func WithRules(rules *access.Rules) Option {
	return func(s *Service) {
		if rules != nil {
			s.rules = rules
		}
	}
}

// WithActorRules sets the completeness rules applied to actor records.
func WithActorRules(rules *actor.Rules) Option {
	return func(s *Service) {
		if rules != nil {
			s.actorRules = rules
		}
	}
}

// WithNotifier sets the notification collaborator.
func WithNotifier(notifier notify.Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithStorage sets the storage collaborator used for contract files.
func WithStorage(storage storage.Storage) Option {
	return func(s *Service) {
		s.storage = storage
	}
}

// WithRenderer sets the document-rendering collaborator.
func WithRenderer(renderer render.Renderer) Option {
	return func(s *Service) {
		s.renderer = renderer
	}
}

// WithAudit sets the audit log.
func WithAudit(log saudit.Log) Option {
	return func(s *Service) {
		s.auditLog = log
	}
}

// WithEvents sets the event service status and actor changes are published on.
func WithEvents(events *event.Service) Option {
	return func(s *Service) {
		s.events = events
	}
}

// WithMetrics sets the operation metrics recorder.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(s *Service) {
		s.metrics = recorder
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

// WithGrantTTL sets the lifetime of issued access links.
func WithGrantTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.grantTTL = ttl
	}
}

// WithContractMonths sets the contract length used when a policy is
// created without one.
func WithContractMonths(months int) Option {
	return func(s *Service) {
		if months > 0 {
			s.contractMonths = months
		}
	}
}
