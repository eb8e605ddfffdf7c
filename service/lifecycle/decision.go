package lifecycle

import (
	"context"
	"strings"

	"github.com/viant/guaranty/access"
	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/model/audit"
	"github.com/viant/guaranty/model/policy"
	"github.com/viant/guaranty/service/verification"
)

// ApproveActor approves the information of one actor. Approving an
// already approved actor is a no-op.
func (s *Service) ApproveActor(ctx context.Context, principal access.Principal, policyID, actorID string) (ret *actor.Record, err error) {
	ctx, op := s.start(ctx, "ApproveActor", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionApproveActor); err != nil {
		return nil, err
	}
	record, err := s.lockReviewable(ctx, op, policyID, actorID)
	if err != nil {
		return nil, err
	}
	changed, err := verification.Approve(record, principal.ID, op.now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return record.Clone(), nil
	}
	op.touch(record)
	if err = op.commit(ctx); err != nil {
		return nil, err
	}
	op.audit(audit.ActionActorApproved, actorID, map[string]string{"role": string(record.Role)})
	return record.Clone(), nil
}

// RejectActor rejects the information of one actor with a reason shown to
// the actor. The actor must submit again.
func (s *Service) RejectActor(ctx context.Context, principal access.Principal, policyID, actorID, reason string) (ret *actor.Record, err error) {
	ctx, op := s.start(ctx, "RejectActor", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionRejectActor); err != nil {
		return nil, err
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		return nil, fault.ErrEmptyReason
	}
	record, err := s.lockReviewable(ctx, op, policyID, actorID)
	if err != nil {
		return nil, err
	}
	if err = verification.Reject(record, principal.ID, reason, op.now); err != nil {
		return nil, err
	}
	op.touch(record)
	if err = op.commit(ctx); err != nil {
		return nil, err
	}
	op.audit(audit.ActionActorRejected, actorID, map[string]string{"role": string(record.Role), "reason": reason})
	return record.Clone(), nil
}

// MarkActorInReview moves a pending actor into manual review.
func (s *Service) MarkActorInReview(ctx context.Context, principal access.Principal, policyID, actorID string) (ret *actor.Record, err error) {
	ctx, op := s.start(ctx, "MarkActorInReview", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionReviewActor); err != nil {
		return nil, err
	}
	record, err := s.lockReviewable(ctx, op, policyID, actorID)
	if err != nil {
		return nil, err
	}
	changed, err := verification.MarkInReview(record, principal.ID, op.now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return record.Clone(), nil
	}
	op.touch(record)
	if err = op.commit(ctx); err != nil {
		return nil, err
	}
	op.audit(audit.ActionActorInReview, actorID, map[string]string{"role": string(record.Role)})
	return record.Clone(), nil
}

// lockReviewable locks the policy and the actor; actors are reviewed from
// the moment invitations went out until the policy is approved.
func (s *Service) lockReviewable(ctx context.Context, op *operation, policyID, actorID string) (*actor.Record, error) {
	if err := op.lock(ctx, policyID); err != nil {
		return nil, err
	}
	switch op.policy.Status {
	case policy.StatusCollectingInfo, policy.StatusUnderInvestigation, policy.StatusPendingApproval:
	default:
		return nil, fault.ErrIllegalTransition.With("cannot review actors of policy in %s", op.policy.Status)
	}
	return op.lockActor(ctx, actorID)
}
