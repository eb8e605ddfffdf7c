package lifecycle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/guaranty/access"
	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/model/audit"
	"github.com/viant/guaranty/model/investigation"
	"github.com/viant/guaranty/model/policy"
	"github.com/viant/guaranty/model/verification"
	actordao "github.com/viant/guaranty/service/dao/actor"
	"github.com/viant/guaranty/service/event"
	"github.com/viant/guaranty/service/messaging"
	"github.com/viant/guaranty/service/storage"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func countActions(t *testing.T, f *fixture, policyID string, action audit.Action) int {
	records, err := f.srv.Activity(context.Background(), policyID)
	require.NoError(t, err)
	count := 0
	for _, record := range records {
		if record.Action == action {
			count++
		}
	}
	return count
}

func TestService_JointObligorToExpiry(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()

	events, err := event.New(messaging.VendorMemory)
	require.NoError(t, err)
	defer events.Close()
	var mux sync.Mutex
	var transitions []string
	require.NoError(t, event.SetListenerOf[event.StatusChanged](ctx, events, func(_ context.Context, e *event.Event[event.StatusChanged]) error {
		mux.Lock()
		defer mux.Unlock()
		transitions = append(transitions, e.Data.From+"->"+e.Data.To)
		return nil
	}))

	f := newFixture(t, WithEvents(events))
	p, invitations := f.prepare(t, policy.GuarantorJointObligor)
	require.Len(t, invitations, 3)
	for _, invitation := range invitations {
		assert.Equal(t, invitation.Token, f.notifier.invitations[invitation.ActorID])
		assert.Equal(t, t0.Add(7*24*time.Hour), invitation.ExpiresAt)
	}
	p, err = f.srv.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.StatusCollectingInfo, p.Status)
	require.NotNil(t, p.Timestamps.SubmittedAt)

	f.submitAll(t, invitations)
	f.approveAll(t, p.ID, invitations)
	summary, err := f.srv.Summary(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, summary.Actors, 3)

	p, err = f.srv.StartInvestigation(ctx, staff, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, policy.StatusUnderInvestigation, p.Status)

	inv, err := f.srv.StartInvestigationProcess(ctx, staff, p.ID, "analyst-1", investigation.PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, investigation.StateInProgress, inv.State)
	assert.Equal(t, "analyst-1", inv.AssignedTo)

	clock.Advance(2 * time.Hour)
	p, err = f.srv.CompleteInvestigation(ctx, staff, p.ID, investigation.VerdictApproved, investigation.RiskLow, "clean record")
	require.NoError(t, err)
	assert.Equal(t, policy.StatusPendingApproval, p.Status)
	assert.Equal(t, 2.0, p.Investigation.ResponseTimeHours)

	p, err = f.srv.ApprovePolicy(ctx, staff, p.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.StatusApproved, p.Status)
	assert.Equal(t, staff.ID, p.ApprovedBy)
	records, err := f.srv.Actors(ctx, p.ID)
	require.NoError(t, err)
	for _, record := range records {
		assert.True(t, record.Locked, record.Role)
	}

	version, err := f.srv.UploadContract(ctx, staff, p.ID, &storage.File{Name: "lease.pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)
	assert.Equal(t, 1, version.Version)

	signedAt := clock.Now()
	p, err = f.srv.MarkContractSigned(ctx, staff, p.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.StatusActive, p.Status)
	require.NotNil(t, p.Timestamps.ExpiresAt)
	assert.Equal(t, signedAt.AddDate(0, 12, 0), *p.Timestamps.ExpiresAt)
	assert.Equal(t, signedAt, *p.Timestamps.ActivatedAt)

	restore := clock.Freeze(signedAt.AddDate(0, 12, 1))
	for i := 0; i < 2; i++ {
		expired, err := f.srv.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, policy.StatusExpired, expired.Status)
		assert.Equal(t, *p.Timestamps.ExpiresAt, *expired.Timestamps.ExpiresAt)
		assert.Equal(t, *p.Timestamps.ExpiresAt, *expired.Timestamps.ExpiredAt)
	}
	restore()
	assert.Equal(t, 1, countActions(t, f, p.ID, audit.ActionPolicyExpired))
	assert.Equal(t, 3, countActions(t, f, p.ID, audit.ActionActorApproved))

	expected := []string{
		"DRAFT->COLLECTING_INFO",
		"COLLECTING_INFO->UNDER_INVESTIGATION",
		"UNDER_INVESTIGATION->PENDING_APPROVAL",
		"PENDING_APPROVAL->APPROVED",
		"APPROVED->CONTRACT_PENDING",
		"CONTRACT_PENDING->ACTIVE",
		"ACTIVE->EXPIRED",
	}
	assert.Eventually(t, func() bool {
		mux.Lock()
		defer mux.Unlock()
		return len(transitions) == len(expected)
	}, 2*time.Second, 5*time.Millisecond)
	mux.Lock()
	assert.ElementsMatch(t, expected, transitions)
	mux.Unlock()
	assert.Contains(t, f.notifier.statuses, "EXPIRED")
}

func TestService_HighRiskLandlordReject(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()
	f := newFixture(t)
	p, invitations := f.underInvestigation(t, policy.GuarantorNone)

	p, err := f.srv.CompleteInvestigation(ctx, staff, p.ID, investigation.VerdictHighRisk, investigation.RiskHigh, "income gap")
	require.NoError(t, err)
	assert.Equal(t, policy.StatusUnderInvestigation, p.Status)
	assert.True(t, p.Investigation.AwaitingLandlord())

	_, err = f.srv.ApprovePolicy(ctx, staff, p.ID)
	assert.ErrorIs(t, err, fault.ErrInvestigationUnresolved)

	landlord := access.Landlord(landlordOf(invitations).ActorID)
	p, err = f.srv.LandlordOverride(ctx, landlord, p.ID, investigation.DecisionReject, "too risky")
	require.NoError(t, err)
	assert.Equal(t, policy.StatusInvestigationRejected, p.Status)
	assert.True(t, p.Investigation.LandlordOverride)
	assert.Equal(t, landlord.ID, p.Investigation.LandlordDecidedBy)

	_, err = f.srv.ApprovePolicy(ctx, staff, p.ID)
	assert.ErrorIs(t, err, fault.ErrIllegalTransition)
	_, err = f.srv.LandlordOverride(ctx, landlord, p.ID, investigation.DecisionProceed, "changed my mind")
	assert.ErrorIs(t, err, fault.ErrAlreadyDecided)

	_, err = f.srv.Reopen(ctx, landlord, p.ID, "new guarantor")
	assert.ErrorIs(t, err, fault.ErrNotAllowed)
	_, err = f.srv.Reopen(ctx, staff, p.ID, " ")
	assert.ErrorIs(t, err, fault.ErrEmptyReason)
	p, err = f.srv.Reopen(ctx, staff, p.ID, "new guarantor")
	require.NoError(t, err)
	assert.Equal(t, policy.StatusCollectingInfo, p.Status)
	assert.Nil(t, p.Investigation)
	require.Len(t, p.ArchivedInvestigations, 1)
	assert.Equal(t, investigation.DecisionReject, p.ArchivedInvestigations[0].LandlordDecision)
}

func TestService_HighRiskLandlordProceed(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()
	f := newFixture(t)
	p, _ := f.underInvestigation(t, policy.GuarantorAval)

	_, err := f.srv.CompleteInvestigation(ctx, staff, p.ID, investigation.VerdictHighRisk, investigation.RiskHigh, "")
	require.NoError(t, err)
	p, err = f.srv.LandlordOverride(ctx, staff, p.ID, investigation.DecisionProceed, "known family")
	require.NoError(t, err)
	assert.Equal(t, policy.StatusPendingApproval, p.Status)
	p, err = f.srv.ApprovePolicy(ctx, staff, p.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.StatusApproved, p.Status)
}

func TestService_CompleteInvestigation(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()

	type testCase struct {
		description string
		verdict     investigation.Verdict
		risk        investigation.RiskLevel
		expectErr   error
		expect      policy.Status
	}
	tests := []testCase{
		{description: "approved low", verdict: investigation.VerdictApproved, risk: investigation.RiskLow, expect: policy.StatusPendingApproval},
		{description: "approved medium", verdict: investigation.VerdictApproved, risk: investigation.RiskMedium, expect: policy.StatusPendingApproval},
		{description: "rejected", verdict: investigation.VerdictRejected, risk: investigation.RiskMedium, expect: policy.StatusInvestigationRejected},
		{description: "high risk", verdict: investigation.VerdictHighRisk, risk: investigation.RiskHigh, expect: policy.StatusUnderInvestigation},
		{description: "high risk with low risk", verdict: investigation.VerdictHighRisk, risk: investigation.RiskLow, expectErr: fault.ErrInvalidRiskForVerdict},
		{description: "approved with high risk", verdict: investigation.VerdictApproved, risk: investigation.RiskHigh, expectErr: fault.ErrInvalidRiskForVerdict},
		{description: "unknown verdict", verdict: "MAYBE", risk: investigation.RiskLow, expectErr: fault.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			f := newFixture(t)
			p, _ := f.underInvestigation(t, policy.GuarantorNone)
			actual, err := f.srv.CompleteInvestigation(ctx, staff, p.ID, tc.verdict, tc.risk, "")
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				stored, err := f.srv.Get(ctx, p.ID)
				require.NoError(t, err)
				assert.Equal(t, investigation.StateNotStarted, stored.Investigation.State)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, actual.Status)
			assert.Equal(t, investigation.StateCompleted, actual.Investigation.State)
			assert.Equal(t, staff.ID, actual.Investigation.AssignedTo)
			require.NotNil(t, actual.Timestamps.InvestigationCompletedAt)

			_, err = f.srv.CompleteInvestigation(ctx, staff, p.ID, investigation.VerdictApproved, investigation.RiskLow, "")
			assert.ErrorIs(t, err, fault.ErrAlreadyCompleted)
		})
	}
}

func TestService_LandlordOverrideGuards(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()
	f := newFixture(t)
	p, invitations := f.underInvestigation(t, policy.GuarantorNone)

	_, err := f.srv.LandlordOverride(ctx, staff, p.ID, investigation.DecisionProceed, "")
	assert.ErrorIs(t, err, fault.ErrVerdictNotHighRisk)

	tenant := access.Landlord(roleOf(invitations, actor.RoleTenant).ActorID)
	_, err = f.srv.LandlordOverride(ctx, tenant, p.ID, investigation.DecisionProceed, "")
	assert.ErrorIs(t, err, fault.ErrNotAllowed)
	_, err = f.srv.LandlordOverride(ctx, access.Landlord("ghost"), p.ID, investigation.DecisionProceed, "")
	assert.ErrorIs(t, err, fault.ErrNotAllowed)
	_, err = f.srv.LandlordOverride(ctx, access.Principal{ID: "t1", Role: access.RoleTenant}, p.ID, investigation.DecisionProceed, "")
	assert.ErrorIs(t, err, fault.ErrNotAllowed)

	_, err = f.srv.CompleteInvestigation(ctx, staff, p.ID, investigation.VerdictApproved, investigation.RiskLow, "")
	require.NoError(t, err)
	_, err = f.srv.LandlordOverride(ctx, staff, p.ID, investigation.DecisionProceed, "")
	assert.ErrorIs(t, err, fault.ErrVerdictNotHighRisk)
}

func TestService_StartInvestigation(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()

	t.Run("draft", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.srv.CreatePolicy(ctx, staff, &PolicyInput{GuarantorRequirement: policy.GuarantorNone})
		require.NoError(t, err)
		_, err = f.srv.StartInvestigation(ctx, staff, p.ID, false)
		assert.ErrorIs(t, err, fault.ErrIllegalTransition)
	})
	t.Run("actors not approved", func(t *testing.T) {
		f := newFixture(t)
		p, invitations := f.prepare(t, policy.GuarantorNone)
		f.submitAll(t, invitations)
		_, err := f.srv.StartInvestigation(ctx, staff, p.ID, false)
		assert.ErrorIs(t, err, fault.ErrActorsNotApproved)
	})
	t.Run("staff override with complete actors", func(t *testing.T) {
		f := newFixture(t)
		p, invitations := f.prepare(t, policy.GuarantorNone)
		f.submitAll(t, invitations)
		p, err := f.srv.StartInvestigation(ctx, staff, p.ID, true)
		require.NoError(t, err)
		assert.Equal(t, policy.StatusUnderInvestigation, p.Status)
		assert.Equal(t, investigation.StateNotStarted, p.Investigation.State)
	})
	t.Run("staff override with incomplete actors", func(t *testing.T) {
		f := newFixture(t)
		p, _ := f.prepare(t, policy.GuarantorNone)
		_, err := f.srv.StartInvestigation(ctx, staff, p.ID, true)
		assert.ErrorIs(t, err, fault.ErrActorsNotApproved)
	})
	t.Run("landlord caller", func(t *testing.T) {
		f := newFixture(t)
		p, invitations := f.prepare(t, policy.GuarantorNone)
		_, err := f.srv.StartInvestigation(ctx, access.Landlord(landlordOf(invitations).ActorID), p.ID, false)
		assert.ErrorIs(t, err, fault.ErrNotAllowed)
	})
	t.Run("assign twice", func(t *testing.T) {
		f := newFixture(t)
		p, invitations := f.prepare(t, policy.GuarantorNone)
		_, err := f.srv.StartInvestigationProcess(ctx, staff, p.ID, "", "")
		assert.ErrorIs(t, err, fault.ErrPolicyNotEligible)
		f.submitAll(t, invitations)
		f.approveAll(t, p.ID, invitations)
		_, err = f.srv.StartInvestigation(ctx, staff, p.ID, false)
		require.NoError(t, err)
		inv, err := f.srv.StartInvestigationProcess(ctx, staff, p.ID, "", "")
		require.NoError(t, err)
		assert.Equal(t, investigation.PriorityNormal, inv.Priority)
		assert.Equal(t, staff.ID, inv.AssignedTo)
		_, err = f.srv.StartInvestigationProcess(ctx, staff, p.ID, "analyst-2", investigation.PriorityUrgent)
		assert.ErrorIs(t, err, fault.ErrAlreadyStarted)
	})
}

func TestService_ActorReview(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()
	f := newFixture(t)
	p, invitations := f.prepare(t, policy.GuarantorNone)
	tenant := roleOf(invitations, actor.RoleTenant)
	landlord := landlordOf(invitations)

	_, err := f.srv.ApproveActor(ctx, staff, p.ID, tenant.ActorID)
	assert.ErrorIs(t, err, fault.ErrNotComplete)
	f.submitAll(t, invitations)

	record, err := f.srv.MarkActorInReview(ctx, staff, p.ID, tenant.ActorID)
	require.NoError(t, err)
	assert.Equal(t, verification.StatusInReview, record.Verification.Status)

	_, err = f.srv.RejectActor(ctx, staff, p.ID, tenant.ActorID, "")
	assert.ErrorIs(t, err, fault.ErrEmptyReason)
	record, err = f.srv.RejectActor(ctx, staff, p.ID, tenant.ActorID, "ID photo is blurry")
	require.NoError(t, err)
	assert.Equal(t, verification.StatusRejected, record.Verification.Status)
	assert.Equal(t, "ID photo is blurry", record.Verification.RejectionReason)
	assert.False(t, record.InformationComplete)

	_, err = f.self.Submit(ctx, tenant.Token, submission(actor.RoleTenant))
	assert.ErrorIs(t, err, fault.ErrAlreadyLocked)
	_, err = f.srv.ResendInvitation(ctx, staff, p.ID, landlord.ActorID)
	assert.ErrorIs(t, err, fault.ErrAlreadyLocked)

	resent, err := f.srv.ResendInvitation(ctx, staff, p.ID, tenant.ActorID)
	require.NoError(t, err)
	assert.NotEqual(t, tenant.Token, resent.Token)
	assert.Equal(t, resent.Token, f.notifier.invitations[tenant.ActorID])

	result, err := f.self.Submit(ctx, resent.Token, submission(actor.RoleTenant))
	require.NoError(t, err)
	assert.True(t, result.Record.InformationComplete)
	assert.Equal(t, verification.StatusPending, result.Record.Verification.Status)

	record, err = f.srv.ApproveActor(ctx, staff, p.ID, tenant.ActorID)
	require.NoError(t, err)
	assert.Equal(t, verification.StatusApproved, record.Verification.Status)
	record, err = f.srv.ApproveActor(ctx, staff, p.ID, tenant.ActorID)
	require.NoError(t, err)
	assert.Equal(t, verification.StatusApproved, record.Verification.Status)
	assert.Equal(t, 1, countActions(t, f, p.ID, audit.ActionActorApproved))

	_, err = f.srv.ApproveActor(ctx, staff, p.ID, "ghost")
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestService_Contract(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()
	file := &storage.File{Name: "lease.pdf", Data: []byte("%PDF-1.4")}

	t.Run("before approval", func(t *testing.T) {
		f := newFixture(t)
		p, _ := f.pendingApproval(t, policy.GuarantorNone)
		_, err := f.srv.UploadContract(ctx, staff, p.ID, file)
		assert.ErrorIs(t, err, fault.ErrIllegalTransition)
		_, err = f.srv.MarkContractSigned(ctx, staff, p.ID)
		assert.ErrorIs(t, err, fault.ErrIllegalTransition)
	})
	t.Run("versions", func(t *testing.T) {
		f := newFixture(t)
		p, _ := f.approved(t, policy.GuarantorNone)
		_, err := f.srv.MarkContractSigned(ctx, staff, p.ID)
		assert.ErrorIs(t, err, fault.ErrNoCurrentContract)

		for i := 1; i <= 3; i++ {
			version, err := f.srv.UploadContract(ctx, staff, p.ID, file)
			require.NoError(t, err)
			assert.Equal(t, i, version.Version)
			assert.True(t, version.IsCurrent)
		}
		p, err = f.srv.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, policy.StatusContractPending, p.Status)
		require.Len(t, p.Contracts, 3)
		currents := 0
		for _, version := range p.Contracts {
			if version.IsCurrent {
				currents++
			}
		}
		assert.Equal(t, 1, currents)
		assert.Equal(t, 3, p.Contracts.Current().Version)

		p, err = f.srv.MarkContractSigned(ctx, staff, p.ID)
		require.NoError(t, err)
		assert.Equal(t, policy.StatusActive, p.Status)
		assert.Equal(t, 3, p.Contracts.Signed().Version)
		assert.Equal(t, t0.AddDate(0, 12, 0), *p.Timestamps.ExpiresAt)

		_, err = f.srv.MarkContractSigned(ctx, staff, p.ID)
		assert.ErrorIs(t, err, fault.ErrAlreadySigned)
		_, err = f.srv.UploadContract(ctx, staff, p.ID, file)
		assert.ErrorIs(t, err, fault.ErrIllegalTransition)
	})
	t.Run("custom length", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.srv.CreatePolicy(ctx, staff, &PolicyInput{GuarantorRequirement: policy.GuarantorNone, ContractLengthMonths: 6})
		require.NoError(t, err)
		assert.Equal(t, 6, p.ContractLengthMonths)
		_, err = f.srv.CreatePolicy(ctx, staff, &PolicyInput{GuarantorRequirement: "SOMETIMES"})
		assert.ErrorIs(t, err, fault.ErrInvalidInput)
	})
}

func TestService_Cancel(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()

	t.Run("guards", func(t *testing.T) {
		f := newFixture(t)
		p, invitations := f.underInvestigation(t, policy.GuarantorNone)
		_, err := f.srv.Cancel(ctx, access.Landlord(landlordOf(invitations).ActorID), p.ID, "changed plans")
		assert.ErrorIs(t, err, fault.ErrNotAllowed)
		_, err = f.srv.Cancel(ctx, staff, p.ID, "  ")
		assert.ErrorIs(t, err, fault.ErrEmptyReason)

		p, err = f.srv.Cancel(ctx, staff, p.ID, "tenant withdrew")
		require.NoError(t, err)
		assert.Equal(t, policy.StatusCancelled, p.Status)
		assert.Equal(t, staff.ID, p.CancelledBy)
		assert.Equal(t, "tenant withdrew", p.CancellationReason)
		require.NotNil(t, p.Investigation.AbandonedAt)
		require.NotNil(t, p.Timestamps.CancelledAt)

		_, err = f.srv.Cancel(ctx, staff, p.ID, "again")
		assert.ErrorIs(t, err, fault.ErrIllegalTransition)
		_, err = f.srv.Cancel(ctx, staff, "missing", "gone")
		assert.ErrorIs(t, err, fault.ErrNotFound)
	})
	t.Run("expired active policy", func(t *testing.T) {
		f := newFixture(t)
		p, _ := f.approved(t, policy.GuarantorNone)
		_, err := f.srv.UploadContract(ctx, staff, p.ID, &storage.File{Name: "lease.pdf", Data: []byte("x")})
		require.NoError(t, err)
		p, err = f.srv.MarkContractSigned(ctx, staff, p.ID)
		require.NoError(t, err)

		defer clock.Freeze(p.Timestamps.ExpiresAt.Add(time.Hour))()
		_, err = f.srv.Cancel(ctx, staff, p.ID, "late")
		assert.ErrorIs(t, err, fault.ErrIllegalTransition)
		stored, err := f.policies.Load(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, policy.StatusExpired, stored.Status)
		assert.Equal(t, 1, countActions(t, f, p.ID, audit.ActionPolicyExpired))
	})
}

func TestService_AddActor(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.srv.CreatePolicy(ctx, staff, &PolicyInput{GuarantorRequirement: policy.GuarantorNone})
	require.NoError(t, err)

	type testCase struct {
		description string
		input       *ActorInput
		expectErr   error
		expectPrime bool
	}
	tests := []testCase{
		{description: "first landlord is primary", input: &ActorInput{Role: actor.RoleLandlord, Email: "l1@example.com", Name: "Luis"}, expectPrime: true},
		{description: "second landlord", input: &ActorInput{Role: actor.RoleLandlord, Email: "l2@example.com", Kind: actor.KindCompany, Name: "Rentas SA"}},
		{description: "second primary landlord", input: &ActorInput{Role: actor.RoleLandlord, Primary: true}, expectErr: fault.ErrInvalidInput},
		{description: "primary tenant", input: &ActorInput{Role: actor.RoleTenant, Primary: true}, expectErr: fault.ErrInvalidInput},
		{description: "tenant", input: &ActorInput{Role: actor.RoleTenant, Email: "t@example.com"}},
		{description: "second tenant", input: &ActorInput{Role: actor.RoleTenant}, expectErr: fault.ErrInvalidInput},
		{description: "role not required", input: &ActorInput{Role: actor.RoleAval}, expectErr: fault.ErrInvalidInput},
		{description: "unknown role", input: &ActorInput{Role: "BROKER"}, expectErr: fault.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			record, err := f.srv.AddActor(ctx, staff, p.ID, tc.input)
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectPrime, record.Primary)
			assert.Equal(t, tc.input.Name, record.DisplayName())
			assert.Equal(t, verification.StatusPending, record.Verification.Status)
		})
	}

	invitations, err := f.srv.SendInvitations(ctx, staff, p.ID)
	require.NoError(t, err)
	assert.Len(t, invitations, 3)

	_, err = f.srv.AddActor(ctx, staff, p.ID, &ActorInput{Role: actor.RoleLandlord})
	assert.ErrorIs(t, err, fault.ErrInvalidInput)
	late, err := f.srv.AddActor(ctx, staff, p.ID, &ActorInput{Role: actor.RoleLandlord, Email: "l3@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, f.notifier.invitations[late.ID])
	records, err := f.srv.Actors(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestService_SendInvitations(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()

	t.Run("missing tenant", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.srv.CreatePolicy(ctx, staff, &PolicyInput{GuarantorRequirement: policy.GuarantorNone})
		require.NoError(t, err)
		_, err = f.srv.AddActor(ctx, staff, p.ID, &ActorInput{Role: actor.RoleLandlord, Email: "l@example.com"})
		require.NoError(t, err)
		_, err = f.srv.SendInvitations(ctx, staff, p.ID)
		assert.ErrorIs(t, err, fault.ErrIllegalTransition)
		stored, err := f.srv.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, policy.StatusDraft, stored.Status)
	})
	t.Run("missing email", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.srv.CreatePolicy(ctx, staff, &PolicyInput{GuarantorRequirement: policy.GuarantorNone})
		require.NoError(t, err)
		_, err = f.srv.AddActor(ctx, staff, p.ID, &ActorInput{Role: actor.RoleLandlord, Email: "l@example.com"})
		require.NoError(t, err)
		_, err = f.srv.AddActor(ctx, staff, p.ID, &ActorInput{Role: actor.RoleTenant})
		require.NoError(t, err)
		_, err = f.srv.SendInvitations(ctx, staff, p.ID)
		assert.ErrorIs(t, err, fault.ErrIllegalTransition)
	})
	t.Run("twice", func(t *testing.T) {
		f := newFixture(t)
		p, _ := f.prepare(t, policy.GuarantorBoth)
		_, err := f.srv.SendInvitations(ctx, staff, p.ID)
		assert.ErrorIs(t, err, fault.ErrIllegalTransition)
	})
	t.Run("notifier failure is logged", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		f := newFixture(t, WithLogger(zap.New(core)))
		f.notifier.err = errors.New("smtp down")
		p, invitations := f.prepare(t, policy.GuarantorNone)
		assert.Len(t, invitations, 2)
		assert.Equal(t, 2, logs.FilterMessage("failed to send invitation").Len())
		stored, err := f.srv.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, policy.StatusCollectingInfo, stored.Status)
	})
}

type failingActors struct {
	actordao.Service
	failID    string
	failEmail string
}

func (f *failingActors) Save(ctx context.Context, record *actor.Record) error {
	if record.ID == f.failID && record.Locked {
		return errors.New("disk full")
	}
	if f.failEmail != "" && record.Email == f.failEmail {
		return errors.New("disk full")
	}
	return f.Service.Save(ctx, record)
}

func liveGrants(t *testing.T, f *fixture) int {
	grants, err := f.grants.List(context.Background())
	require.NoError(t, err)
	live := 0
	for _, g := range grants {
		if g.IsLive() {
			live++
		}
	}
	return live
}

func TestService_AddActorRevokesGrantOnFailedCommit(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()
	store := &failingActors{Service: actordao.NewMemory(), failEmail: "second@example.com"}
	f := newFixtureWith(t, store)
	p, invitations := f.prepare(t, policy.GuarantorJointObligor)
	require.Equal(t, len(invitations), liveGrants(t, f))

	_, err := f.srv.AddActor(ctx, staff, p.ID, &ActorInput{Role: actor.RoleJointObligor, Email: "second@example.com"})
	require.Error(t, err)
	assert.Equal(t, len(invitations), liveGrants(t, f))
	records, err := f.srv.Actors(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, records, len(invitations))

	added, err := f.srv.AddActor(ctx, staff, p.ID, &ActorInput{Role: actor.RoleJointObligor, Email: "third@example.com"})
	require.NoError(t, err)
	assert.Equal(t, len(invitations)+1, liveGrants(t, f))
	assert.Contains(t, f.notifier.invitations, added.ID)
}

func TestService_ApprovePolicyRollback(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()
	store := &failingActors{Service: actordao.NewMemory()}
	f := newFixtureWith(t, store)
	p, invitations := f.pendingApproval(t, policy.GuarantorBoth)

	var ids []string
	for _, invitation := range invitations {
		ids = append(ids, invitation.ActorID)
	}
	sort.Strings(ids)
	store.failID = ids[len(ids)-1]

	_, err := f.srv.ApprovePolicy(ctx, staff, p.ID)
	require.Error(t, err)
	stored, err := f.srv.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.StatusPendingApproval, stored.Status)
	assert.Nil(t, stored.Timestamps.ApprovedAt)
	records, err := f.srv.Actors(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, records, 4)
	for _, record := range records {
		assert.False(t, record.Locked, record.ID)
	}
	assert.Equal(t, 0, countActions(t, f, p.ID, audit.ActionPolicyApproved))

	store.failID = ""
	approved, err := f.srv.ApprovePolicy(ctx, staff, p.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.StatusApproved, approved.Status)
}

func TestService_ConcurrentApprovePolicy(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()
	f := newFixture(t)
	p, _ := f.pendingApproval(t, policy.GuarantorJointObligor)

	const callers = 4
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.srv.ApprovePolicy(ctx, staff, p.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, fault.ErrIllegalTransition)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, countActions(t, f, p.ID, audit.ActionPolicyApproved))
}
