// Package lifecycle is the policy orchestrator. It is the only component
// that changes a policy status: every operation takes the policy lock,
// evaluates its guard against a consistent snapshot of the policy, its
// actors, investigation and contract, and commits all side effects or
// none. Notifications, audit records and events are emitted after the
// commit, outside the lock, and never roll a transition back.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/guaranty/access"
	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/model/audit"
	"github.com/viant/guaranty/model/policy"
	"github.com/viant/guaranty/progress"
	saudit "github.com/viant/guaranty/service/audit"
	"github.com/viant/guaranty/service/dao"
	actordao "github.com/viant/guaranty/service/dao/actor"
	policydao "github.com/viant/guaranty/service/dao/policy"
	"github.com/viant/guaranty/service/event"
	"github.com/viant/guaranty/service/grant"
	"github.com/viant/guaranty/service/lock"
	"github.com/viant/guaranty/service/metrics"
	"github.com/viant/guaranty/service/notify"
	"github.com/viant/guaranty/service/render"
	"github.com/viant/guaranty/service/storage"
	"go.uber.org/zap"
)

// publishTimeout bounds an event publish so a full queue never stalls a caller.
const publishTimeout = 2 * time.Second

// Service orchestrates the policy lifecycle.
type Service struct {
	policies       policydao.Service
	actors         actordao.Service
	grants         *grant.Service
	locker         *lock.Locker
	rules          *access.Rules
	actorRules     *actor.Rules
	notifier       notify.Notifier
	storage        storage.Storage
	renderer       render.Renderer
	auditLog       saudit.Log
	recorder       *saudit.Recorder
	events         *event.Service
	metrics        *metrics.Recorder
	logger         *zap.Logger
	grantTTL       time.Duration
	contractMonths int
}

// Summary is a policy with its actors and verification progress.
type Summary struct {
	Policy   *policy.Policy    `json:"policy"`
	Actors   []*actor.Record   `json:"actors"`
	Progress progress.Progress `json:"progress"`
}

// Get returns the policy. An active policy read after its expiry is moved
// to Expired once; expiresAt is never recomputed.
func (s *Service) Get(ctx context.Context, policyID string) (*policy.Policy, error) {
	aPolicy, err := s.loadPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if !aPolicy.IsExpiredAt(clock.Now()) {
		return aPolicy, nil
	}
	ctx, op := s.start(ctx, "Expire", access.System)
	defer op.end(ctx, &err)
	if err = op.lock(ctx, policyID); err != nil {
		return nil, err
	}
	return op.policy.Clone(), nil
}

// Actors returns the actor records of policyID.
func (s *Service) Actors(ctx context.Context, policyID string) ([]*actor.Record, error) {
	records, err := s.actors.List(ctx, dao.NewParameter(dao.ParamPolicyID, policyID))
	if err != nil {
		return nil, fmt.Errorf("failed to list actors of %s: %w", policyID, err)
	}
	return records, nil
}

// Summary returns the policy, its actors and verification progress.
func (s *Service) Summary(ctx context.Context, policyID string) (*Summary, error) {
	aPolicy, err := s.Get(ctx, policyID)
	if err != nil {
		return nil, err
	}
	records, err := s.Actors(ctx, policyID)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Policy:   aPolicy,
		Actors:   records,
		Progress: progress.Compute(policyID, records, aPolicy.GuarantorRequirement.RequiredRoles()),
	}, nil
}

// Render delegates to the rendering collaborator; it never mutates state.
func (s *Service) Render(ctx context.Context, policyID string) ([]byte, error) {
	if s.renderer == nil {
		return nil, errors.New("renderer is not configured")
	}
	if _, err := s.Get(ctx, policyID); err != nil {
		return nil, err
	}
	return s.renderer.RenderPolicy(ctx, policyID)
}

// Activity returns the audit trail of policyID.
func (s *Service) Activity(ctx context.Context, policyID string) ([]*audit.Record, error) {
	if s.auditLog == nil {
		return nil, nil
	}
	return s.auditLog.List(ctx, policyID)
}

func (s *Service) loadPolicy(ctx context.Context, policyID string) (*policy.Policy, error) {
	aPolicy, err := s.policies.Load(ctx, policyID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fault.ErrNotFound.With("policy %s", policyID)
		}
		return nil, fmt.Errorf("failed to load policy %s: %w", policyID, err)
	}
	return aPolicy, nil
}

func (s *Service) statusHooks(policyID string, from, to policy.Status, operation, performedBy string) []func(ctx context.Context) {
	return []func(ctx context.Context){
		func(ctx context.Context) {
			s.metrics.Transition(string(from), string(to))
			s.publish(ctx, policyID, "", operation, performedBy, func(ctx context.Context, eventContext *event.Context) error {
				return event.Publish(ctx, s.events, eventContext, event.StatusChanged{PolicyID: policyID, From: string(from), To: string(to)})
			})
		},
		func(ctx context.Context) {
			if s.notifier == nil {
				return
			}
			if err := s.notifier.SendStatusChange(ctx, policyID, string(to)); err != nil {
				s.logger.Warn("failed to send status change",
					zap.String("policy_id", policyID),
					zap.String("action", operation),
					zap.String("status", string(to)),
					zap.Error(err))
			}
		},
	}
}

func (s *Service) expiredHooks(expired *policy.Policy) []func(ctx context.Context) {
	details := map[string]string{"expiresAt": expired.Timestamps.ExpiresAt.Format(time.RFC3339)}
	hooks := []func(ctx context.Context){
		func(ctx context.Context) {
			s.recorder.Record(ctx, expired.ID, "", audit.ActionPolicyExpired, access.System.ID, details)
		},
	}
	return append(hooks, s.statusHooks(expired.ID, policy.StatusActive, policy.StatusExpired, "Expire", access.System.ID)...)
}

func (s *Service) publishActor(ctx context.Context, record *actor.Record, operation, performedBy string) {
	s.publish(ctx, record.PolicyID, record.ID, operation, performedBy, func(ctx context.Context, eventContext *event.Context) error {
		return event.Publish(ctx, s.events, eventContext, event.ActorChanged{
			PolicyID:            record.PolicyID,
			ActorID:             record.ID,
			Role:                string(record.Role),
			Verification:        string(record.Verification.Status),
			InformationComplete: record.InformationComplete,
		})
	})
}

func (s *Service) publish(ctx context.Context, policyID, actorID, operation, performedBy string, fn func(ctx context.Context, eventContext *event.Context) error) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	eventContext := &event.Context{PolicyID: policyID, ActorID: actorID, Action: operation, PerformedBy: performedBy}
	if err := fn(ctx, eventContext); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("policy_id", policyID),
			zap.String("actor_id", actorID),
			zap.String("action", operation),
			zap.Error(err))
	}
}

func (s *Service) sendInvitation(ctx context.Context, invitation *Invitation) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendInvitation(ctx, invitation.ActorID, invitation.Token, invitation.ExpiresAt); err != nil {
		s.logger.Warn("failed to send invitation",
			zap.String("policy_id", invitation.PolicyID),
			zap.String("actor_id", invitation.ActorID),
			zap.Error(err))
	}
}

// New creates a lifecycle orchestrator.
func New(policies policydao.Service, actors actordao.Service, grants *grant.Service, options ...Option) *Service {
	ret := &Service{
		policies:       policies,
		actors:         actors,
		grants:         grants,
		rules:          access.DefaultRules(),
		actorRules:     &actor.Rules{},
		logger:         zap.NewNop(),
		contractMonths: policy.DefaultContractLengthMonths,
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.locker == nil {
		ret.locker = lock.New(DefaultLockTimeout)
	}
	if ret.recorder == nil {
		ret.recorder = saudit.NewRecorder(ret.auditLog, ret.logger)
	}
	return ret
}
