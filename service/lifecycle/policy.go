package lifecycle

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/viant/guaranty/access"
	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/internal/idgen"
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/model/audit"
	"github.com/viant/guaranty/model/investigation"
	"github.com/viant/guaranty/model/policy"
	"github.com/viant/guaranty/service/grant"
	"github.com/viant/guaranty/service/verification"
	"go.uber.org/zap"
)

// PolicyInput describes a new policy.
type PolicyInput struct {
	PropertyAddress      string                      `json:"propertyAddress,omitempty" yaml:"propertyAddress,omitempty"`
	MonthlyRent          float64                     `json:"monthlyRent,omitempty" yaml:"monthlyRent,omitempty"`
	GuarantorRequirement policy.GuarantorRequirement `json:"guarantorRequirement" yaml:"guarantorRequirement"`
	ContractLengthMonths int                         `json:"contractLengthMonths,omitempty" yaml:"contractLengthMonths,omitempty"`
}

// ActorInput describes an actor added to a policy by staff.
type ActorInput struct {
	Role    actor.Role `json:"role" yaml:"role"`
	Kind    actor.Kind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Primary bool       `json:"primary,omitempty" yaml:"primary,omitempty"`
	Name    string     `json:"name,omitempty" yaml:"name,omitempty"`
	Email   string     `json:"email,omitempty" yaml:"email,omitempty"`
	Phone   string     `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// Invitation is an issued access link. Token is only available here.
type Invitation struct {
	PolicyID  string     `json:"policyId"`
	ActorID   string     `json:"actorId"`
	Role      actor.Role `json:"role"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// CreatePolicy creates a draft policy.
func (s *Service) CreatePolicy(ctx context.Context, principal access.Principal, input *PolicyInput) (ret *policy.Policy, err error) {
	ctx, op := s.start(ctx, "CreatePolicy", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionCreatePolicy); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, fault.ErrInvalidInput.With("policy input is required")
	}
	requirement, err := policy.ParseGuarantorRequirement(string(input.GuarantorRequirement))
	if err != nil {
		return nil, fault.ErrInvalidInput.With("%v", err)
	}
	if input.ContractLengthMonths < 0 {
		return nil, fault.ErrInvalidInput.With("contract length must be positive, got %d", input.ContractLengthMonths)
	}
	if input.MonthlyRent < 0 {
		return nil, fault.ErrInvalidInput.With("monthly rent must not be negative")
	}
	months := input.ContractLengthMonths
	if months == 0 {
		months = s.contractMonths
	}
	aPolicy := policy.New(idgen.New(), requirement, months, principal.ID, op.now)
	aPolicy.PropertyAddress = strings.TrimSpace(input.PropertyAddress)
	aPolicy.MonthlyRent = input.MonthlyRent
	if err = s.policies.Save(ctx, aPolicy); err != nil {
		return nil, fmt.Errorf("failed to save policy: %w", err)
	}
	op.policy = aPolicy
	op.committed = true
	op.audit(audit.ActionPolicyCreated, "", map[string]string{
		"guarantorRequirement": string(requirement),
		"contractLengthMonths": strconv.Itoa(months),
	})
	return aPolicy.Clone(), nil
}

// AddActor adds an actor while the policy is Draft or CollectingInfo. The
// first landlord becomes primary unless another one is marked primary; an
// actor added after invitations went out is invited right away.
func (s *Service) AddActor(ctx context.Context, principal access.Principal, policyID string, input *ActorInput) (ret *actor.Record, err error) {
	ctx, op := s.start(ctx, "AddActor", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionAddActor); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, fault.ErrInvalidInput.With("actor input is required")
	}
	role, err := actor.ParseRole(string(input.Role))
	if err != nil {
		return nil, fault.ErrInvalidInput.With("%v", err)
	}
	kind, err := actor.ParseKind(string(input.Kind))
	if err != nil {
		return nil, fault.ErrInvalidInput.With("%v", err)
	}
	if input.Primary && role != actor.RoleLandlord {
		return nil, fault.ErrInvalidInput.With("only a landlord can be primary")
	}
	if err = op.lock(ctx, policyID); err != nil {
		return nil, err
	}
	p := op.policy
	if !p.Status.AcceptsActors() {
		return nil, fault.ErrIllegalTransition.With("cannot add actors to policy in %s", p.Status)
	}
	if !p.GuarantorRequirement.Requires(role) {
		return nil, fault.ErrInvalidInput.With("role %s is not required by guarantor requirement %s", role, p.GuarantorRequirement)
	}
	records, err := op.lockActors(ctx)
	if err != nil {
		return nil, err
	}
	primary := input.Primary
	hasLandlord := false
	for _, record := range records {
		switch {
		case role == actor.RoleTenant && record.Role == actor.RoleTenant:
			return nil, fault.ErrInvalidInput.With("policy %s already has a tenant", p.ID)
		case record.Role == actor.RoleLandlord:
			hasLandlord = true
			if input.Primary && record.Primary {
				return nil, fault.ErrInvalidInput.With("policy %s already has a primary landlord", p.ID)
			}
		}
	}
	if role == actor.RoleLandlord && !hasLandlord {
		primary = true
	}

	record := actor.New(idgen.New(), p.ID, role, kind, primary, op.now)
	record.Email = strings.TrimSpace(input.Email)
	record.Phone = strings.TrimSpace(input.Phone)
	if kind == actor.KindCompany {
		record.Company.LegalName = strings.TrimSpace(input.Name)
	} else {
		record.Individual.FullName = strings.TrimSpace(input.Name)
	}
	record.InformationComplete = s.actorRules.IsComplete(record)
	op.touch(record)

	var invitation *Invitation
	if p.Status == policy.StatusCollectingInfo {
		if record.Email == "" {
			return nil, fault.ErrInvalidInput.With("email is required to invite an actor")
		}
		if invitation, err = s.issue(ctx, op, record); err != nil {
			return nil, err
		}
	}
	if err = op.commit(ctx); err != nil {
		return nil, err
	}
	op.audit(audit.ActionActorAdded, record.ID, map[string]string{"role": string(role), "kind": string(kind), "primary": strconv.FormatBool(primary)})
	if invitation != nil {
		op.then(func(ctx context.Context) { s.sendInvitation(ctx, invitation) })
	}
	return record.Clone(), nil
}

// SendInvitations issues one access link per actor and moves a draft policy
// to CollectingInfo. Every required role must be filled, exactly one
// landlord must be primary and every actor needs an email.
func (s *Service) SendInvitations(ctx context.Context, principal access.Principal, policyID string) (ret []*Invitation, err error) {
	ctx, op := s.start(ctx, "SendInvitations", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionSendInvitations); err != nil {
		return nil, err
	}
	if err = op.lock(ctx, policyID); err != nil {
		return nil, err
	}
	p := op.policy
	if p.Status != policy.StatusDraft {
		return nil, fault.ErrIllegalTransition.With("cannot send invitations for policy in %s", p.Status)
	}
	records, err := op.lockActors(ctx)
	if err != nil {
		return nil, err
	}
	if err = checkRoster(p, records); err != nil {
		return nil, err
	}
	for _, record := range records {
		invitation, err := s.issue(ctx, op, record)
		if err != nil {
			return nil, err
		}
		ret = append(ret, invitation)
	}
	p.Status = policy.StatusCollectingInfo
	if err = policy.Stamp(&p.Timestamps.SubmittedAt, "submittedAt", op.now); err != nil {
		return nil, err
	}
	if err = op.commit(ctx); err != nil {
		return nil, err
	}
	op.audit(audit.ActionInvitationsSent, "", map[string]string{"actors": strconv.Itoa(len(ret))})
	for _, invitation := range ret {
		invitation := invitation
		op.then(func(ctx context.Context) { s.sendInvitation(ctx, invitation) })
	}
	return ret, nil
}

// ResendInvitation replaces the access link of an actor whose information
// is not complete yet. Expired links are never extended.
func (s *Service) ResendInvitation(ctx context.Context, principal access.Principal, policyID, actorID string) (ret *Invitation, err error) {
	ctx, op := s.start(ctx, "ResendInvitation", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionResendInvitation); err != nil {
		return nil, err
	}
	if err = op.lock(ctx, policyID); err != nil {
		return nil, err
	}
	p := op.policy
	if p.Status == policy.StatusDraft || !p.Status.AcceptsSubmissions() {
		return nil, fault.ErrIllegalTransition.With("cannot resend invitation for policy in %s", p.Status)
	}
	record, err := op.lockActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if record.InformationComplete || record.Locked {
		return nil, fault.ErrAlreadyLocked.With("actor %s information is already complete", actorID)
	}
	issued, err := s.grants.Resend(ctx, record.ID, record.PolicyID, s.grantTTL)
	if err != nil {
		return nil, err
	}
	ret = invitationOf(record, issued)
	op.committed = true
	op.audit(audit.ActionInvitationResent, actorID, map[string]string{"expiresAt": ret.ExpiresAt.Format(time.RFC3339)})
	invitation := ret
	op.then(func(ctx context.Context) { s.sendInvitation(ctx, invitation) })
	return ret, nil
}

// ApprovePolicy approves a policy whose investigation resolved favorably and
// whose required actors are all approved. Actor information is locked.
func (s *Service) ApprovePolicy(ctx context.Context, principal access.Principal, policyID string) (ret *policy.Policy, err error) {
	ctx, op := s.start(ctx, "ApprovePolicy", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionApprovePolicy); err != nil {
		return nil, err
	}
	if err = op.lock(ctx, policyID); err != nil {
		return nil, err
	}
	p := op.policy
	switch p.Status {
	case policy.StatusPendingApproval:
	case policy.StatusUnderInvestigation:
		return nil, fault.ErrInvestigationUnresolved.With("investigation of policy %s is not resolved", p.ID)
	default:
		return nil, fault.ErrIllegalTransition.With("cannot approve policy in %s", p.Status)
	}
	if p.Investigation.Resolution() != investigation.ResolutionProceed {
		return nil, fault.ErrInvestigationUnresolved.With("investigation of policy %s did not resolve favorably", p.ID)
	}
	records, err := op.lockActors(ctx)
	if err != nil {
		return nil, err
	}
	if !verification.AllApproved(p.GuarantorRequirement, records) {
		return nil, fault.ErrActorsNotApproved.With("%s", describePending(p, records))
	}
	for _, record := range records {
		if !record.Locked {
			record.Locked = true
			op.touch(record)
		}
	}
	p.Status = policy.StatusApproved
	p.ApprovedBy = principal.ID
	if err = policy.Stamp(&p.Timestamps.ApprovedAt, "approvedAt", op.now); err != nil {
		return nil, err
	}
	if err = op.commit(ctx); err != nil {
		return nil, err
	}
	op.audit(audit.ActionPolicyApproved, "", nil)
	return p.Clone(), nil
}

// Cancel moves any non-terminal policy to Cancelled; an open investigation
// becomes moot.
func (s *Service) Cancel(ctx context.Context, principal access.Principal, policyID, reason string) (ret *policy.Policy, err error) {
	ctx, op := s.start(ctx, "Cancel", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionCancel); err != nil {
		return nil, err
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		return nil, fault.ErrEmptyReason.With("cancellation reason is required")
	}
	if err = op.lock(ctx, policyID); err != nil {
		return nil, err
	}
	p := op.policy
	if p.Status.IsTerminal() {
		return nil, fault.ErrIllegalTransition.With("cannot cancel policy in %s", p.Status)
	}
	if p.Investigation != nil {
		p.Investigation.Abandon(op.now)
	}
	p.Status = policy.StatusCancelled
	p.CancelledBy = principal.ID
	p.CancellationReason = reason
	if err = policy.Stamp(&p.Timestamps.CancelledAt, "cancelledAt", op.now); err != nil {
		return nil, err
	}
	if err = op.commit(ctx); err != nil {
		return nil, err
	}
	op.audit(audit.ActionPolicyCancelled, "", map[string]string{"reason": reason, "from": string(op.loaded.Status)})
	return p.Clone(), nil
}

// Reopen returns an investigation-rejected policy to CollectingInfo. The
// rejected investigation is archived. Reopening is never automatic.
func (s *Service) Reopen(ctx context.Context, principal access.Principal, policyID, reason string) (ret *policy.Policy, err error) {
	ctx, op := s.start(ctx, "Reopen", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionReopen); err != nil {
		return nil, err
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		return nil, fault.ErrEmptyReason.With("reopen reason is required")
	}
	if err = op.lock(ctx, policyID); err != nil {
		return nil, err
	}
	p := op.policy
	if p.Status != policy.StatusInvestigationRejected {
		return nil, fault.ErrIllegalTransition.With("cannot reopen policy in %s", p.Status)
	}
	if p.Investigation != nil {
		p.ArchivedInvestigations = append(p.ArchivedInvestigations, p.Investigation)
		p.Investigation = nil
	}
	p.Status = policy.StatusCollectingInfo
	if err = op.commit(ctx); err != nil {
		return nil, err
	}
	op.audit(audit.ActionPolicyReopened, "", map[string]string{"reason": reason})
	return p.Clone(), nil
}

func (s *Service) issue(ctx context.Context, op *operation, record *actor.Record) (*Invitation, error) {
	issued, err := s.grants.Issue(ctx, record.ID, record.PolicyID, s.grantTTL)
	if err != nil {
		return nil, err
	}
	op.onAbort(func(ctx context.Context) {
		if err := s.grants.Revoke(ctx, record.ID); err != nil {
			s.logger.Warn("failed to revoke access link",
				zap.String("policy_id", record.PolicyID),
				zap.String("actor_id", record.ID),
				zap.String("action", op.name),
				zap.Error(err))
		}
	})
	return invitationOf(record, issued), nil
}

func invitationOf(record *actor.Record, issued *grant.Issued) *Invitation {
	return &Invitation{
		PolicyID:  record.PolicyID,
		ActorID:   record.ID,
		Role:      record.Role,
		Token:     issued.Token,
		ExpiresAt: issued.Grant.ExpiresAt,
	}
}

// checkRoster verifies that access links can be issued for the policy.
func checkRoster(p *policy.Policy, records []*actor.Record) error {
	present := map[actor.Role]int{}
	primaries := 0
	for _, record := range records {
		present[record.Role]++
		if record.Role == actor.RoleLandlord && record.Primary {
			primaries++
		}
		if strings.TrimSpace(record.Email) == "" {
			return fault.ErrIllegalTransition.With("actor %s (%s) has no email", record.ID, record.Role)
		}
	}
	var missing []string
	for _, role := range p.GuarantorRequirement.RequiredRoles() {
		if present[role] == 0 {
			missing = append(missing, string(role))
		}
	}
	if len(missing) > 0 {
		return fault.ErrIllegalTransition.With("missing required actors: %s", strings.Join(missing, ", "))
	}
	if primaries != 1 {
		return fault.ErrIllegalTransition.With("policy must have exactly one primary landlord, got %d", primaries)
	}
	return nil
}

func describePending(p *policy.Policy, records []*actor.Record) string {
	var pending []string
	for _, record := range verification.Pending(p.GuarantorRequirement, records) {
		pending = append(pending, fmt.Sprintf("%s %s is %s", record.Role, record.ID, record.Verification.Status))
	}
	present := map[actor.Role]bool{}
	for _, record := range records {
		present[record.Role] = true
	}
	for _, role := range p.GuarantorRequirement.RequiredRoles() {
		if !present[role] {
			pending = append(pending, fmt.Sprintf("%s is missing", role))
		}
	}
	return strings.Join(pending, "; ")
}
