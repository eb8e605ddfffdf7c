package guaranty

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/guaranty/access"
	actordao "github.com/viant/guaranty/service/dao/actor"
	policydao "github.com/viant/guaranty/service/dao/policy"
	saudit "github.com/viant/guaranty/service/audit"
	"github.com/viant/guaranty/service/event"
	"github.com/viant/guaranty/service/grant"
	"github.com/viant/guaranty/service/notify"
	"github.com/viant/guaranty/service/storage"
	"github.com/viant/guaranty/tracing"
	"go.uber.org/zap"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the service façade.
type Option func(s *Service)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPolicyStore overrides the configured policy store.
func WithPolicyStore(store policydao.Service) Option {
	return func(s *Service) {
		s.policies = store
	}
}

// WithActorStore overrides the configured actor store.
func WithActorStore(store actordao.Service) Option {
	return func(s *Service) {
		s.actors = store
	}
}

// WithGrantStore overrides the configured grant store.
func WithGrantStore(store grant.Store) Option {
	return func(s *Service) {
		s.grantStore = store
	}
}

// WithAuditLog overrides the configured audit log.
func WithAuditLog(log saudit.Log) Option {
	return func(s *Service) {
		s.auditLog = log
	}
}

// WithEventService overrides the configured event service.
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.events = service
	}
}

// WithNotifier replaces the queue-backed outbox.
func WithNotifier(notifier notify.Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithSender sets the channel the notification dispatcher delivers to.
func WithSender(sender notify.Sender) Option {
	return func(s *Service) {
		s.sender = sender
	}
}

// WithSigner sets the document link signer instead of the configured HMAC key.
func WithSigner(signer storage.Signer) Option {
	return func(s *Service) {
		s.signer = signer
	}
}

// WithRules sets the authorization rules instead of the configured ones.
func WithRules(rules *access.Rules) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		if err := tracing.InitWithExporter(serviceName, serviceVersion, exporter); err != nil {
			s.logger.Warn("failed to initialise tracing", zap.Error(err))
		}
	}
}

// WithMetricsRegisterer registers lifecycle metrics with registerer.
func WithMetricsRegisterer(registerer prometheus.Registerer) Option {
	return func(s *Service) {
		s.registerer = registerer
	}
}
