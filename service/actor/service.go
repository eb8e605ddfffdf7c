// Package actor implements actor self-service: an actor holding a live
// access link submits its own information and documents. Submissions of
// different actors never coordinate; each one only takes its actor lock.
package actor

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/model/audit"
	saudit "github.com/viant/guaranty/service/audit"
	"github.com/viant/guaranty/service/dao"
	actordao "github.com/viant/guaranty/service/dao/actor"
	policydao "github.com/viant/guaranty/service/dao/policy"
	"github.com/viant/guaranty/service/event"
	"github.com/viant/guaranty/service/grant"
	"github.com/viant/guaranty/service/lock"
	"github.com/viant/guaranty/service/storage"
	"github.com/viant/structology/conv"
	"go.uber.org/zap"
)

// Result is the outcome of a submission.
type Result struct {
	Record *actor.Record
	// Missing lists the requirements still unmet; empty once complete.
	Missing []string
}

// Service handles actor submissions.
type Service struct {
	actors    actordao.Service
	policies  policydao.Service
	grants    *grant.Service
	locker    *lock.Locker
	rules     *actor.Rules
	storage   storage.Storage
	recorder  *saudit.Recorder
	events    *event.Service
	logger    *zap.Logger
	converter *conv.Converter
}

// Load returns the actor record bound to token, for prefilling forms.
func (s *Service) Load(ctx context.Context, token string) (*actor.Record, error) {
	g, err := s.grants.Redeem(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, g.ActorID)
}

// Submit merges submission into the actor bound to token. A rejected actor
// returns to pending; the access link is consumed once the record is complete.
func (s *Service) Submit(ctx context.Context, token string, submission *actor.Submission) (*Result, error) {
	if submission == nil {
		return nil, fault.ErrInvalidInput.With("submission is required")
	}
	return s.update(ctx, token, audit.ActionActorSubmitted, nil, func(record *actor.Record) error {
		if submission.Kind != "" {
			if _, err := actor.ParseKind(string(submission.Kind)); err != nil {
				return fault.ErrInvalidInput.With("%v", err)
			}
		}
		if len(submission.References) > actor.MaxReferences {
			return fault.ErrInvalidInput.With("at most %d references allowed, got %d", actor.MaxReferences, len(submission.References))
		}
		record.Apply(submission)
		return nil
	})
}

// SubmitForm converts a decoded form payload into a Submission and submits it.
func (s *Service) SubmitForm(ctx context.Context, token string, form map[string]interface{}) (*Result, error) {
	submission := &actor.Submission{}
	if err := s.converter.Convert(form, submission); err != nil {
		return nil, fault.ErrInvalidInput.With("invalid form: %v", err)
	}
	return s.Submit(ctx, token, submission)
}

// AttachDocument stores file through the storage collaborator and records
// it on the actor bound to token. The upload runs outside the actor lock.
func (s *Service) AttachDocument(ctx context.Context, token, category string, file *storage.File) (*Result, error) {
	if s.storage == nil {
		return nil, errors.New("document storage is not configured")
	}
	if category == "" {
		return nil, fault.ErrInvalidInput.With("document category is required")
	}
	g, err := s.grants.Redeem(ctx, token)
	if err != nil {
		return nil, err
	}
	documentID, err := s.storage.PutDocument(ctx, g.ActorID, category, file)
	if err != nil {
		return nil, err
	}
	details := map[string]string{"documentId": documentID, "category": category}
	result, err := s.update(ctx, token, audit.ActionDocumentAttached, details, func(record *actor.Record) error {
		record.Documents = append(record.Documents, actor.Document{
			ID:         documentID,
			Category:   category,
			FileName:   file.Name,
			UploadedAt: clock.Now(),
		})
		return nil
	})
	if err != nil {
		s.logger.Warn("orphan document after rejected attachment",
			zap.String("policy_id", g.PolicyID),
			zap.String("actor_id", g.ActorID),
			zap.String("document_id", documentID),
			zap.Error(err))
	}
	return result, err
}

func (s *Service) update(ctx context.Context, token string, action audit.Action, details map[string]string, mutate func(record *actor.Record) error) (*Result, error) {
	g, err := s.grants.Redeem(ctx, token)
	if err != nil {
		return nil, err
	}
	release, err := s.locker.Acquire(ctx, lock.ActorKey(g.ActorID))
	if err != nil {
		return nil, err
	}
	defer release()
	// the grant may have been consumed while waiting for the lock
	if g, err = s.grants.Redeem(ctx, token); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, g.ActorID)
	if err != nil {
		return nil, err
	}
	if current.Locked || current.Verification.IsApproved() {
		return nil, fault.ErrAlreadyLocked.With("actor %s information is locked", current.ID)
	}
	if err = s.checkPolicy(ctx, current.PolicyID); err != nil {
		return nil, err
	}

	now := clock.Now()
	record := current.Clone()
	if err = mutate(record); err != nil {
		return nil, err
	}
	missing := s.rules.Missing(record)
	record.InformationComplete = len(missing) == 0
	resubmitted := record.Verification.Resubmit(now)
	record.SubmittedAt = &now
	record.UpdatedAt = now
	record.SCN++
	if err = s.actors.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save actor %s: %w", record.ID, err)
	}
	if record.InformationComplete {
		if err = s.grants.Consume(ctx, g); err != nil {
			s.logger.Warn("failed to consume access grant", zap.String("actor_id", record.ID), zap.Error(err))
		}
	}

	if details == nil {
		details = map[string]string{}
	}
	details["informationComplete"] = fmt.Sprintf("%v", record.InformationComplete)
	if resubmitted {
		details["resubmitted"] = "true"
	}
	performedBy := string(record.Role) + ":" + record.ID
	s.recorder.Record(ctx, record.PolicyID, record.ID, action, performedBy, details)
	s.publish(ctx, record, action, performedBy)
	return &Result{Record: record.Clone(), Missing: missing}, nil
}

func (s *Service) checkPolicy(ctx context.Context, policyID string) error {
	aPolicy, err := s.policies.Load(ctx, policyID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return fault.ErrNotFound.With("policy %s", policyID)
		}
		return fmt.Errorf("failed to load policy %s: %w", policyID, err)
	}
	if !aPolicy.Status.AcceptsSubmissions() {
		return fault.ErrIllegalTransition.With("policy %s in %s does not accept submissions", policyID, aPolicy.Status)
	}
	return nil
}

func (s *Service) load(ctx context.Context, actorID string) (*actor.Record, error) {
	record, err := s.actors.Load(ctx, actorID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fault.ErrNotFound.With("actor %s", actorID)
		}
		return nil, fmt.Errorf("failed to load actor %s: %w", actorID, err)
	}
	return record, nil
}

func (s *Service) publish(ctx context.Context, record *actor.Record, action audit.Action, performedBy string) {
	if s.events == nil {
		return
	}
	eventContext := &event.Context{PolicyID: record.PolicyID, ActorID: record.ID, Action: string(action), PerformedBy: performedBy}
	changed := event.ActorChanged{
		PolicyID:            record.PolicyID,
		ActorID:             record.ID,
		Role:                string(record.Role),
		Verification:        string(record.Verification.Status),
		InformationComplete: record.InformationComplete,
	}
	if err := event.Publish(ctx, s.events, eventContext, changed); err != nil {
		s.logger.Warn("failed to publish actor event",
			zap.String("policy_id", record.PolicyID),
			zap.String("actor_id", record.ID),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}

// New creates an actor self-service.
func New(actors actordao.Service, policies policydao.Service, grants *grant.Service, locker *lock.Locker, options ...Option) *Service {
	convOptions := conv.DefaultOptions()
	convOptions.IgnoreUnmapped = true
	ret := &Service{
		actors:    actors,
		policies:  policies,
		grants:    grants,
		locker:    locker,
		rules:     &actor.Rules{},
		logger:    zap.NewNop(),
		converter: conv.NewConverter(convOptions),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

