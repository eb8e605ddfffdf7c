package guaranty

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs/url"
	"github.com/viant/guaranty/access"
	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/service/actor"
	saudit "github.com/viant/guaranty/service/audit"
	auditmemory "github.com/viant/guaranty/service/audit/memory"
	"github.com/viant/guaranty/service/audit/postgres"
	actordao "github.com/viant/guaranty/service/dao/actor"
	policydao "github.com/viant/guaranty/service/dao/policy"
	"github.com/viant/guaranty/service/event"
	"github.com/viant/guaranty/service/grant"
	grantmemory "github.com/viant/guaranty/service/grant/memory"
	grantredis "github.com/viant/guaranty/service/grant/redis"
	"github.com/viant/guaranty/service/lifecycle"
	"github.com/viant/guaranty/service/lock"
	"github.com/viant/guaranty/service/messaging"
	"github.com/viant/guaranty/service/messaging/fs"
	"github.com/viant/guaranty/service/messaging/kafka"
	"github.com/viant/guaranty/service/messaging/memory"
	"github.com/viant/guaranty/service/metrics"
	"github.com/viant/guaranty/service/notify"
	"github.com/viant/guaranty/service/render"
	"github.com/viant/guaranty/service/storage"
	"github.com/viant/guaranty/tracing"
	"go.uber.org/zap"
)

// notificationQueue is the outbox queue name on the events vendor.
const notificationQueue = "notifications"

// Service wires the lifecycle orchestrator, the actor self-service and their
// collaborators from a Config.
type Service struct {
	config        *Config
	logger        *zap.Logger
	rules         *access.Rules
	policies      policydao.Service
	actors        actordao.Service
	grantStore    grant.Store
	grants        *grant.Service
	locker        *lock.Locker
	auditLog      saudit.Log
	events        *event.Service
	notifications messaging.Queue[notify.Notification]
	notifier      notify.Notifier
	sender        notify.Sender
	signer        storage.Signer
	storage       *storage.Service
	renderer      *render.YAML
	lifecycle     *lifecycle.Service
	selfService   *actor.Service
	registerer    prometheus.Registerer
	closers       []func()
}

// Lifecycle returns the policy orchestrator.
func (s *Service) Lifecycle() *lifecycle.Service { return s.lifecycle }

// SelfService returns the actor self-service.
func (s *Service) SelfService() *actor.Service { return s.selfService }

// Events returns the domain event service.
func (s *Service) Events() *event.Service { return s.events }

// Storage returns the document storage.
func (s *Service) Storage() *storage.Service { return s.storage }

// Config returns the effective configuration.
func (s *Service) Config() *Config { return s.config }

// Dispatcher returns a dispatcher delivering the outbox to the configured
// sender; nil when a custom notifier replaced the outbox.
func (s *Service) Dispatcher() *notify.Dispatcher {
	if s.notifications == nil {
		return nil
	}
	return notify.NewDispatcher(s.notifications, s.sender, s.logger)
}

// Close releases listeners and connections.
func (s *Service) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func (s *Service) init(ctx context.Context) error {
	if s.config.Tracing.Enabled {
		if err := tracing.Init(s.config.Tracing.ServiceName, s.config.Tracing.ServiceVersion, s.config.Tracing.OutputFile); err != nil {
			return fmt.Errorf("failed to initialise tracing: %w", err)
		}
		s.closers = append(s.closers, func() {
			if err := tracing.Shutdown(context.Background()); err != nil {
				s.logger.Warn("failed to flush traces", zap.Error(err))
			}
		})
	}
	if s.rules == nil {
		s.rules = access.FromConfig(s.config.Access)
	}
	actorRules, err := s.config.ActorRules()
	if err != nil {
		return err
	}
	if err = s.ensureStores(); err != nil {
		return err
	}
	if err = s.ensureGrantStore(ctx); err != nil {
		return err
	}
	if err = s.ensureAuditLog(ctx); err != nil {
		return err
	}
	if err = s.ensureMessaging(); err != nil {
		return err
	}
	if err = s.ensureStorage(ctx); err != nil {
		return err
	}
	s.grants = grant.New(s.grantStore, grant.WithTTL(s.config.Grant.TTL), grant.WithLogger(s.logger))
	s.locker = lock.New(s.config.Lifecycle.LockTimeout)
	s.renderer = render.NewYAML(s.policies, s.actors, s.auditLog, clock.Now)
	recorder := saudit.NewRecorder(s.auditLog, s.logger)
	s.selfService = actor.New(s.actors, s.policies, s.grants, s.locker,
		actor.WithRules(actorRules),
		actor.WithStorage(s.storage),
		actor.WithRecorder(recorder),
		actor.WithEvents(s.events),
		actor.WithLogger(s.logger))
	var metricsRecorder *metrics.Recorder
	if s.registerer != nil || s.config.Metrics.Enabled {
		metricsRecorder = metrics.New(s.registerer)
	}
	s.lifecycle = lifecycle.New(s.policies, s.actors, s.grants,
		lifecycle.WithMetrics(metricsRecorder),
		lifecycle.WithLocker(s.locker),
		lifecycle.WithRules(s.rules),
		lifecycle.WithActorRules(actorRules),
		lifecycle.WithNotifier(s.notifier),
		lifecycle.WithStorage(s.storage),
		lifecycle.WithRenderer(s.renderer),
		lifecycle.WithAudit(s.auditLog),
		lifecycle.WithEvents(s.events),
		lifecycle.WithLogger(s.logger),
		lifecycle.WithGrantTTL(s.config.Grant.TTL),
		lifecycle.WithContractMonths(s.config.Lifecycle.ContractMonths))
	return nil
}

func (s *Service) ensureStores() error {
	var err error
	switch s.config.Store.Vendor {
	case VendorFS:
		if s.policies == nil {
			if s.policies, err = policydao.NewFS(url.Join(s.config.Store.BaseURL, "policies"), s.logger); err != nil {
				return err
			}
		}
		if s.actors == nil {
			if s.actors, err = actordao.NewFS(url.Join(s.config.Store.BaseURL, "actors"), s.logger); err != nil {
				return err
			}
		}
	default:
		if s.policies == nil {
			s.policies = policydao.NewMemory()
		}
		if s.actors == nil {
			s.actors = actordao.NewMemory()
		}
	}
	return nil
}

func (s *Service) ensureGrantStore(ctx context.Context) error {
	if s.grantStore != nil {
		return nil
	}
	if s.config.GrantStore.Vendor != VendorRedis {
		s.grantStore = grantmemory.New()
		return nil
	}
	options := []grantredis.Option{grantredis.WithRetention(s.config.Grant.Retention)}
	if s.config.GrantStore.Prefix != "" {
		options = append(options, grantredis.WithPrefix(s.config.GrantStore.Prefix))
	}
	store, err := grantredis.Connect(ctx, s.config.GrantStore.Addr, s.config.GrantStore.Password, s.config.GrantStore.DB, options...)
	if err != nil {
		return err
	}
	s.grantStore = store
	return nil
}

func (s *Service) ensureAuditLog(ctx context.Context) error {
	if s.auditLog != nil {
		return nil
	}
	if s.config.Audit.Vendor != VendorPostgres {
		s.auditLog = auditmemory.New()
		return nil
	}
	log, err := postgres.Connect(ctx, s.config.Audit.DSN, s.config.Audit.Table)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, log.Close)
	if s.config.Audit.Migrate {
		if err = log.Migrate(ctx); err != nil {
			return err
		}
	}
	s.auditLog = log
	return nil
}

func (s *Service) ensureMessaging() error {
	cfg := s.config.Events
	if s.events == nil {
		options := []event.Option{event.WithLogger(s.logger), event.WithPollInterval(cfg.PollEvery)}
		switch messaging.Vendor(cfg.Vendor) {
		case messaging.VendorFS:
			options = append(options, event.WithNewFsQueueConfig(func(name string) fs.Config {
				return fs.Config{BaseURL: url.Join(cfg.BaseURL, name), MaxRetries: cfg.MaxRetries}
			}))
		case messaging.VendorKafka:
			options = append(options, event.WithNewKafkaQueueConfig(func(name string) kafka.Config {
				return kafka.Config{Brokers: cfg.Brokers, Topic: cfg.TopicPrefix + name, GroupID: cfg.GroupID, MaxRetries: cfg.MaxRetries}
			}))
		default:
			options = append(options, event.WithNewMemoryQueueConfig(func(string) memory.Config {
				ret := memory.DefaultConfig()
				ret.MaxRetries = cfg.MaxRetries
				return ret
			}))
		}
		events, err := event.New(messaging.Vendor(cfg.Vendor), options...)
		if err != nil {
			return err
		}
		s.events = events
		s.closers = append(s.closers, events.Close)
	}
	if s.notifier != nil {
		return nil
	}
	queue, err := event.QueueOf[notify.Notification](s.events, notificationQueue)
	if err != nil {
		return fmt.Errorf("failed to create notification queue: %w", err)
	}
	s.notifications = queue
	s.notifier = notify.NewOutbox(queue)
	if s.sender == nil {
		s.sender = notify.NewLogSender(s.logger)
	}
	return nil
}

func (s *Service) ensureStorage(ctx context.Context) error {
	cfg := s.config.Storage
	if s.signer == nil && cfg.HMACKeyURL != "" {
		signer, err := storage.NewHMACSigner(ctx, cfg.HMACKeyURL, cfg.HMACSecret)
		if err != nil {
			return err
		}
		s.signer = signer
	}
	options := []storage.Option{storage.WithPublicURL(cfg.PublicURL)}
	if s.signer != nil {
		options = append(options, storage.WithSigner(s.signer))
	}
	s.storage = storage.New(cfg.BaseURL, options...)
	return nil
}

// New creates the service from config; nil config means DefaultConfig.
func New(ctx context.Context, config *Config, options ...Option) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ret := &Service{config: config, logger: zap.NewNop()}
	for _, opt := range options {
		opt(ret)
	}
	if err := ret.init(ctx); err != nil {
		ret.Close()
		return nil, err
	}
	return ret, nil
}
