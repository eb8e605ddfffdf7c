package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/viant/guaranty/access"
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/model/investigation"
	"github.com/viant/guaranty/model/policy"
	selfservice "github.com/viant/guaranty/service/actor"
	auditmemory "github.com/viant/guaranty/service/audit/memory"
	actordao "github.com/viant/guaranty/service/dao/actor"
	policydao "github.com/viant/guaranty/service/dao/policy"
	"github.com/viant/guaranty/service/grant"
	grantmemory "github.com/viant/guaranty/service/grant/memory"
	"github.com/viant/guaranty/service/lock"
	"github.com/viant/guaranty/service/storage"
)

var (
	t0    = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	staff = access.Staff("staff-1")
)

type recordingNotifier struct {
	mu          sync.Mutex
	invitations map[string]string
	statuses    []string
	err         error
}

func (n *recordingNotifier) SendInvitation(_ context.Context, actorID, token string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.invitations[actorID] = token
	return n.err
}

func (n *recordingNotifier) SendStatusChange(_ context.Context, _ string, status string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, status)
	return n.err
}

type fixture struct {
	srv      *Service
	self     *selfservice.Service
	policies policydao.Service
	actors   actordao.Service
	log      *auditmemory.Log
	notifier *recordingNotifier
	grants   grant.Store
}

func newFixture(t *testing.T, options ...Option) *fixture {
	return newFixtureWith(t, actordao.NewMemory(), options...)
}

func newFixtureWith(t *testing.T, actors actordao.Service, options ...Option) *fixture {
	f := &fixture{
		policies: policydao.NewMemory(),
		actors:   actors,
		log:      auditmemory.New(),
		notifier: &recordingNotifier{invitations: map[string]string{}},
	}
	f.grants = grantmemory.New()
	grants := grant.New(f.grants)
	locker := lock.New(2 * time.Second)
	base := []Option{
		WithLocker(locker),
		WithAudit(f.log),
		WithNotifier(f.notifier),
		WithStorage(storage.New(t.TempDir())),
	}
	f.srv = New(f.policies, f.actors, grants, append(base, options...)...)
	f.self = selfservice.New(f.actors, f.policies, grants, locker)
	return f
}

func references(n int) []actor.Reference {
	var ret []actor.Reference
	for i := 0; i < n; i++ {
		ret = append(ret, actor.Reference{Name: "Ref", Phone: "5550000", Relationship: "coworker"})
	}
	return ret
}

func submission(role actor.Role) *actor.Submission {
	ret := &actor.Submission{
		Email: string(role) + "@example.com", Phone: "5551234", Address: "Av. Reforma 1",
		FullName: "Ana Ruiz", Nationality: actor.NationalityMexican, CURP: "RUAA800101MDFXXX01",
		References: references(3),
	}
	if role == actor.RoleAval {
		ret.PropertyAddress = "Calle 5"
		ret.DeedNumber = "D-77"
	}
	return ret
}

// prepare creates a policy with every required actor and sends invitations.
func (f *fixture) prepare(t *testing.T, requirement policy.GuarantorRequirement) (*policy.Policy, []*Invitation) {
	ctx := context.Background()
	p, err := f.srv.CreatePolicy(ctx, staff, &PolicyInput{PropertyAddress: "Calle 5", MonthlyRent: 15000, GuarantorRequirement: requirement})
	require.NoError(t, err)
	for _, role := range requirement.RequiredRoles() {
		_, err = f.srv.AddActor(ctx, staff, p.ID, &ActorInput{Role: role, Email: string(role) + "@example.com"})
		require.NoError(t, err)
	}
	invitations, err := f.srv.SendInvitations(ctx, staff, p.ID)
	require.NoError(t, err)
	return p, invitations
}

func (f *fixture) submitAll(t *testing.T, invitations []*Invitation) {
	for _, invitation := range invitations {
		result, err := f.self.Submit(context.Background(), invitation.Token, submission(invitation.Role))
		require.NoError(t, err)
		require.True(t, result.Record.InformationComplete, result.Missing)
	}
}

func (f *fixture) approveAll(t *testing.T, policyID string, invitations []*Invitation) {
	for _, invitation := range invitations {
		_, err := f.srv.ApproveActor(context.Background(), staff, policyID, invitation.ActorID)
		require.NoError(t, err)
	}
}

// underInvestigation returns a policy whose actors are approved and whose
// investigation was requested.
func (f *fixture) underInvestigation(t *testing.T, requirement policy.GuarantorRequirement) (*policy.Policy, []*Invitation) {
	p, invitations := f.prepare(t, requirement)
	f.submitAll(t, invitations)
	f.approveAll(t, p.ID, invitations)
	p, err := f.srv.StartInvestigation(context.Background(), staff, p.ID, false)
	require.NoError(t, err)
	return p, invitations
}

func (f *fixture) pendingApproval(t *testing.T, requirement policy.GuarantorRequirement) (*policy.Policy, []*Invitation) {
	p, invitations := f.underInvestigation(t, requirement)
	p, err := f.srv.CompleteInvestigation(context.Background(), staff, p.ID, investigation.VerdictApproved, investigation.RiskLow, "clean record")
	require.NoError(t, err)
	return p, invitations
}

func (f *fixture) approved(t *testing.T, requirement policy.GuarantorRequirement) (*policy.Policy, []*Invitation) {
	p, invitations := f.pendingApproval(t, requirement)
	p, err := f.srv.ApprovePolicy(context.Background(), staff, p.ID)
	require.NoError(t, err)
	return p, invitations
}

func landlordOf(invitations []*Invitation) *Invitation {
	for _, invitation := range invitations {
		if invitation.Role == actor.RoleLandlord {
			return invitation
		}
	}
	return nil
}

func roleOf(invitations []*Invitation, role actor.Role) *Invitation {
	for _, invitation := range invitations {
		if invitation.Role == role {
			return invitation
		}
	}
	return nil
}
