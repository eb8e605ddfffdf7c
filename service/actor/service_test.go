package actor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/model/audit"
	"github.com/viant/guaranty/model/policy"
	"github.com/viant/guaranty/model/verification"
	saudit "github.com/viant/guaranty/service/audit"
	auditmemory "github.com/viant/guaranty/service/audit/memory"
	actordao "github.com/viant/guaranty/service/dao/actor"
	policydao "github.com/viant/guaranty/service/dao/policy"
	"github.com/viant/guaranty/service/grant"
	grantmemory "github.com/viant/guaranty/service/grant/memory"
	"github.com/viant/guaranty/service/lock"
	"github.com/viant/guaranty/service/storage"
)

var t0 = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	srv      *Service
	actors   actordao.Service
	policies policydao.Service
	grants   *grant.Service
	log      *auditmemory.Log
}

func newFixture(t *testing.T, options ...Option) *fixture {
	f := &fixture{
		actors:   actordao.NewMemory(),
		policies: policydao.NewMemory(),
		grants:   grant.New(grantmemory.New()),
		log:      auditmemory.New(),
	}
	options = append(options, WithRecorder(saudit.NewRecorder(f.log, nil)))
	f.srv = New(f.actors, f.policies, f.grants, lock.New(time.Second), options...)
	ctx := context.Background()
	aPolicy := policy.New("p1", policy.GuarantorNone, 0, "staff", t0)
	aPolicy.Status = policy.StatusCollectingInfo
	require.NoError(t, f.policies.Save(ctx, aPolicy))
	require.NoError(t, f.actors.Save(ctx, actor.New("t1", "p1", actor.RoleTenant, actor.KindIndividual, false, t0)))
	return f
}

func (f *fixture) issue(t *testing.T) string {
	issued, err := f.grants.Issue(context.Background(), "t1", "p1", time.Hour)
	require.NoError(t, err)
	return issued.Token
}

func references(n int) []actor.Reference {
	var ret []actor.Reference
	for i := 0; i < n; i++ {
		ret = append(ret, actor.Reference{Name: "Ref", Phone: "5550000", Relationship: "coworker"})
	}
	return ret
}

func complete() *actor.Submission {
	return &actor.Submission{
		Email: "ana@example.com", Phone: "5551234", Address: "Av. Reforma 1",
		FullName: "Ana Ruiz", Nationality: actor.NationalityMexican, CURP: "RUAA800101MDFXXX01",
		References: references(3),
	}
}

func TestService_Submit(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()

	type testCase struct {
		description string
		submissions []*actor.Submission
		expectDone  bool
		missing     []string
	}
	var testCases = []testCase{
		{
			description: "complete submission",
			submissions: []*actor.Submission{complete()},
			expectDone:  true,
		},
		{
			description: "two partial submissions",
			submissions: []*actor.Submission{
				{Email: "ana@example.com", Phone: "5551234", Address: "Av. Reforma 1", References: references(3)},
				{FullName: "Ana Ruiz", Nationality: actor.NationalityMexican, CURP: "RUAA800101MDFXXX01"},
			},
			expectDone: true,
		},
		{
			description: "invalid references do not count",
			submissions: []*actor.Submission{func() *actor.Submission {
				s := complete()
				s.References = append(references(2), actor.Reference{Name: "No phone", Relationship: "friend"})
				return s
			}()},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			f := newFixture(t)
			token := f.issue(t)
			var result *Result
			var err error
			for _, submission := range tc.submissions {
				result, err = f.srv.Submit(ctx, token, submission)
				require.NoError(t, err)
			}
			assert.Equal(t, tc.expectDone, result.Record.InformationComplete)
			assert.Equal(t, tc.expectDone, len(result.Missing) == 0)
			stored, err := f.actors.Load(ctx, "t1")
			require.NoError(t, err)
			assert.Equal(t, tc.expectDone, stored.InformationComplete)
			assert.NotNil(t, stored.SubmittedAt)

			records, _ := f.log.List(ctx, "p1")
			assert.Len(t, records, len(tc.submissions))
			assert.Equal(t, audit.ActionActorSubmitted, records[0].Action)
		})
	}
}

func TestService_Submit_TokenReuse(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()
	f := newFixture(t)
	token := f.issue(t)

	_, err := f.srv.Submit(ctx, token, complete())
	require.NoError(t, err)
	_, err = f.srv.Submit(ctx, token, complete())
	assert.ErrorIs(t, err, fault.ErrAlreadyLocked)
	assert.NotErrorIs(t, err, fault.ErrGrantNotFound)

	_, err = f.srv.Submit(ctx, "unknown", complete())
	assert.ErrorIs(t, err, fault.ErrGrantNotFound)
}

func TestService_Submit_Expired(t *testing.T) {
	defer clock.Freeze(t0)()
	f := newFixture(t)
	token := f.issue(t)
	clock.Advance(2 * time.Hour)
	_, err := f.srv.Submit(context.Background(), token, complete())
	assert.ErrorIs(t, err, fault.ErrGrantExpired)
	assert.Equal(t, fault.KindExpiredGrant, fault.KindOf(err))
}

func TestService_Submit_Resubmission(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()
	f := newFixture(t)
	record, err := f.actors.Load(ctx, "t1")
	require.NoError(t, err)
	record.Apply(complete())
	require.NoError(t, record.Verification.Reject("staff", "blurry ID", t0))
	require.NoError(t, f.actors.Save(ctx, record))

	result, err := f.srv.Submit(ctx, f.issue(t), &actor.Submission{CURP: "RUAA800101MDFXXX02"})
	require.NoError(t, err)
	assert.Equal(t, verification.StatusPending, result.Record.Verification.Status)
	assert.Empty(t, result.Record.Verification.RejectionReason)
	assert.Len(t, result.Record.Verification.History, 2)
	assert.True(t, result.Record.InformationComplete)
}

func TestService_Submit_Guards(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()

	t.Run("locked actor", func(t *testing.T) {
		f := newFixture(t)
		token := f.issue(t)
		record, _ := f.actors.Load(ctx, "t1")
		record.Locked = true
		require.NoError(t, f.actors.Save(ctx, record))
		_, err := f.srv.Submit(ctx, token, complete())
		assert.ErrorIs(t, err, fault.ErrAlreadyLocked)
	})
	t.Run("cancelled policy", func(t *testing.T) {
		f := newFixture(t)
		token := f.issue(t)
		aPolicy, _ := f.policies.Load(ctx, "p1")
		aPolicy.Status = policy.StatusCancelled
		require.NoError(t, f.policies.Save(ctx, aPolicy))
		_, err := f.srv.Submit(ctx, token, complete())
		assert.ErrorIs(t, err, fault.ErrIllegalTransition)
	})
	t.Run("too many references", func(t *testing.T) {
		f := newFixture(t)
		s := complete()
		s.References = references(6)
		_, err := f.srv.Submit(ctx, f.issue(t), s)
		assert.ErrorIs(t, err, fault.ErrInvalidInput)
	})
}

func TestService_SubmitForm(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()
	f := newFixture(t)
	result, err := f.srv.SubmitForm(ctx, f.issue(t), map[string]interface{}{
		"Email":   "ana@example.com",
		"Phone":   "5551234",
		"Address": "Av. Reforma 1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", result.Record.Email)
	assert.False(t, result.Record.InformationComplete)
	assert.Contains(t, result.Missing, "fullName")
}

func TestService_AttachDocument(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()
	rules := &actor.Rules{RequiredDocuments: map[actor.Role][]string{actor.RoleTenant: {"ID"}}}
	f := newFixture(t, WithRules(rules), WithStorage(storage.New(t.TempDir())))
	token := f.issue(t)

	result, err := f.srv.Submit(ctx, token, complete())
	require.NoError(t, err)
	assert.False(t, result.Record.InformationComplete)

	result, err = f.srv.AttachDocument(ctx, token, "ID", &storage.File{Name: "ine.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.True(t, result.Record.InformationComplete)
	assert.True(t, result.Record.HasDocument("ID"))

	_, err = f.srv.AttachDocument(ctx, token, "ID", &storage.File{Name: "ine.pdf", Data: []byte("%PDF")})
	assert.ErrorIs(t, err, fault.ErrAlreadyLocked)
}
