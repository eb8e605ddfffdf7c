package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/model/verification"
)

func TestCompute(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	landlord := actor.New("a1", "p1", actor.RoleLandlord, actor.KindIndividual, true, at)
	landlord.InformationComplete = true
	landlord.Verification.Status = verification.StatusApproved
	tenant := actor.New("a2", "p1", actor.RoleTenant, actor.KindIndividual, false, at)
	tenant.Verification.Status = verification.StatusRejected

	actual := Compute("p1", []*actor.Record{landlord, tenant}, []actor.Role{actor.RoleLandlord, actor.RoleTenant, actor.RoleAval})
	assert.Equal(t, Progress{
		PolicyID:     "p1",
		Total:        2,
		Complete:     1,
		Approved:     1,
		Rejected:     1,
		MissingRoles: []actor.Role{actor.RoleAval},
	}, actual)
}

func TestProgress_Apply(t *testing.T) {
	p := Progress{PolicyID: "p1"}
	p.Apply(Delta{Total: 1, Pending: 1})
	p.Apply(Delta{Pending: -1, Approved: 1, Complete: 1})
	assert.Equal(t, Progress{PolicyID: "p1", Total: 1, Approved: 1, Complete: 1}, p)
}
