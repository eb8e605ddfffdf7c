package lifecycle

import (
	"context"
	"strconv"

	"github.com/viant/guaranty/access"
	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/internal/idgen"
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/model/audit"
	"github.com/viant/guaranty/model/investigation"
	"github.com/viant/guaranty/model/policy"
	"github.com/viant/guaranty/service/verification"
)

// StartInvestigation moves a policy collecting information to
// UnderInvestigation. All required actors must be approved; with
// staffOverride it is enough that their information is complete.
func (s *Service) StartInvestigation(ctx context.Context, principal access.Principal, policyID string, staffOverride bool) (ret *policy.Policy, err error) {
	ctx, op := s.start(ctx, "StartInvestigation", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionStartInvestigation); err != nil {
		return nil, err
	}
	if staffOverride {
		if err = op.authorize(access.ActionOverrideApproval); err != nil {
			return nil, err
		}
	}
	if err = op.lock(ctx, policyID); err != nil {
		return nil, err
	}
	p := op.policy
	if p.Status != policy.StatusCollectingInfo {
		return nil, fault.ErrIllegalTransition.With("cannot start investigation of policy in %s", p.Status)
	}
	records, err := op.lockActors(ctx)
	if err != nil {
		return nil, err
	}
	if staffOverride {
		if !verification.AllComplete(p.GuarantorRequirement, records) {
			return nil, fault.ErrActorsNotApproved.With("required actors are not complete")
		}
	} else if !verification.AllApproved(p.GuarantorRequirement, records) {
		return nil, fault.ErrActorsNotApproved.With("%s", describePending(p, records))
	}
	p.Investigation = investigation.New(idgen.New(), p.ID, op.now)
	p.Status = policy.StatusUnderInvestigation
	if err = op.commit(ctx); err != nil {
		return nil, err
	}
	op.audit(audit.ActionInvestigationRequested, "", map[string]string{"staffOverride": strconv.FormatBool(staffOverride)})
	return p.Clone(), nil
}

// StartInvestigationProcess assigns the investigation and starts it.
func (s *Service) StartInvestigationProcess(ctx context.Context, principal access.Principal, policyID, assignee string, priority investigation.Priority) (ret *investigation.Investigation, err error) {
	ctx, op := s.start(ctx, "StartInvestigationProcess", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionAssignInvestigation); err != nil {
		return nil, err
	}
	if err = op.lock(ctx, policyID); err != nil {
		return nil, err
	}
	p := op.policy
	if p.Status != policy.StatusUnderInvestigation {
		if p.Investigation != nil && p.Investigation.State != investigation.StateNotStarted {
			return nil, fault.ErrAlreadyStarted
		}
		return nil, fault.ErrPolicyNotEligible.With("policy in %s is not under investigation", p.Status)
	}
	inv, err := s.openInvestigation(op)
	if err != nil {
		return nil, err
	}
	if assignee == "" {
		assignee = principal.ID
	}
	if err = inv.Start(assignee, priority, op.now); err != nil {
		return nil, err
	}
	if err = policy.Stamp(&p.Timestamps.InvestigationStartedAt, "investigationStartedAt", op.now); err != nil {
		return nil, err
	}
	if err = op.commit(ctx); err != nil {
		return nil, err
	}
	op.audit(audit.ActionInvestigationStarted, "", map[string]string{"assignedTo": inv.AssignedTo, "priority": string(inv.Priority)})
	return inv.Clone(), nil
}

// CompleteInvestigation records the verdict. Approved moves the policy to
// PendingApproval, Rejected to InvestigationRejected; HighRisk keeps it
// under investigation until the landlord decides. An investigation never
// assigned is started by the person completing it.
func (s *Service) CompleteInvestigation(ctx context.Context, principal access.Principal, policyID string, verdict investigation.Verdict, risk investigation.RiskLevel, notes string) (ret *policy.Policy, err error) {
	ctx, op := s.start(ctx, "CompleteInvestigation", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionCompleteInvestigation); err != nil {
		return nil, err
	}
	if err = op.lock(ctx, policyID); err != nil {
		return nil, err
	}
	p := op.policy
	if p.Investigation != nil && p.Investigation.State == investigation.StateCompleted {
		return nil, fault.ErrAlreadyCompleted
	}
	if p.Status != policy.StatusUnderInvestigation {
		return nil, fault.ErrIllegalTransition.With("cannot complete investigation of policy in %s", p.Status)
	}
	if err = investigation.ValidateVerdict(verdict, risk); err != nil {
		return nil, err
	}
	inv, err := s.openInvestigation(op)
	if err != nil {
		return nil, err
	}
	if inv.State == investigation.StateNotStarted {
		if err = inv.Start(principal.ID, investigation.PriorityNormal, op.now); err != nil {
			return nil, err
		}
		if err = policy.Stamp(&p.Timestamps.InvestigationStartedAt, "investigationStartedAt", op.now); err != nil {
			return nil, err
		}
	}
	if err = inv.Complete(verdict, risk, principal.ID, notes, op.now); err != nil {
		return nil, err
	}
	if err = policy.Stamp(&p.Timestamps.InvestigationCompletedAt, "investigationCompletedAt", op.now); err != nil {
		return nil, err
	}
	resolve(p)
	if err = op.commit(ctx); err != nil {
		return nil, err
	}
	op.audit(audit.ActionInvestigationCompleted, "", map[string]string{
		"verdict":           string(verdict),
		"riskLevel":         string(risk),
		"responseTimeHours": strconv.FormatFloat(inv.ResponseTimeHours, 'f', 2, 64),
	})
	return p.Clone(), nil
}

// LandlordOverride records the landlord decision on a HighRisk verdict:
// Proceed moves the policy to PendingApproval, Reject to
// InvestigationRejected. Only one decision is ever recorded.
func (s *Service) LandlordOverride(ctx context.Context, principal access.Principal, policyID string, decision investigation.LandlordDecision, notes string) (ret *policy.Policy, err error) {
	ctx, op := s.start(ctx, "LandlordOverride", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionLandlordOverride); err != nil {
		return nil, err
	}
	if err = op.lock(ctx, policyID); err != nil {
		return nil, err
	}
	p := op.policy
	if principal.Role == access.RoleLandlord {
		if err = s.checkLandlord(ctx, op, principal.ID); err != nil {
			return nil, err
		}
	}
	if p.Investigation == nil {
		return nil, fault.ErrVerdictNotHighRisk.With("policy %s has no investigation", p.ID)
	}
	if err = p.Investigation.Override(decision, notes, principal.ID, op.now); err != nil {
		return nil, err
	}
	if p.Status != policy.StatusUnderInvestigation {
		return nil, fault.ErrIllegalTransition.With("cannot record landlord decision for policy in %s", p.Status)
	}
	resolve(p)
	if err = op.commit(ctx); err != nil {
		return nil, err
	}
	op.audit(audit.ActionLandlordOverride, "", map[string]string{"decision": string(decision), "notes": notes})
	return p.Clone(), nil
}

// openInvestigation returns the current investigation; a policy under
// investigation without one is corrupted.
func (s *Service) openInvestigation(op *operation) (*investigation.Investigation, error) {
	if op.policy.Investigation == nil {
		return nil, fault.ErrCorruptState.With("policy %s is under investigation without an investigation", op.policy.ID)
	}
	return op.policy.Investigation, nil
}

func (s *Service) checkLandlord(ctx context.Context, op *operation, landlordID string) error {
	record, err := op.lockActor(ctx, landlordID)
	if err != nil {
		if fault.KindOf(err) == fault.KindNotFound {
			return fault.ErrNotAllowed.With("%s is not a landlord of policy %s", landlordID, op.policy.ID)
		}
		return err
	}
	if record.Role != actor.RoleLandlord {
		return fault.ErrNotAllowed.With("%s is not a landlord of policy %s", landlordID, op.policy.ID)
	}
	return nil
}

// resolve applies the investigation resolution to the policy status.
func resolve(p *policy.Policy) {
	switch p.Investigation.Resolution() {
	case investigation.ResolutionProceed:
		p.Status = policy.StatusPendingApproval
	case investigation.ResolutionReject:
		p.Status = policy.StatusInvestigationRejected
	}
}
