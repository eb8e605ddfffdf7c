package render

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/model/audit"
	"github.com/viant/guaranty/model/policy"
	auditmemory "github.com/viant/guaranty/service/audit/memory"
	actordao "github.com/viant/guaranty/service/dao/actor"
	policydao "github.com/viant/guaranty/service/dao/policy"
	"gopkg.in/yaml.v3"
)

func TestYAML_RenderPolicy(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	policies := policydao.NewMemory()
	actors := actordao.NewMemory()
	log := auditmemory.New()

	aPolicy := policy.New("p1", policy.GuarantorAval, 0, "staff", at)
	aPolicy.PropertyAddress = "Calle 5"
	aPolicy.Contracts, _ = aPolicy.Contracts.Upload("doc-1", "lease.pdf", "staff", at)
	require.NoError(t, policies.Save(ctx, aPolicy))
	tenant := actor.New("t1", "p1", actor.RoleTenant, actor.KindIndividual, false, at)
	tenant.Individual.FullName = "Ana Ruiz"
	require.NoError(t, actors.Save(ctx, tenant))
	require.NoError(t, actors.Save(ctx, actor.New("l1", "p1", actor.RoleLandlord, actor.KindCompany, true, at)))
	require.NoError(t, log.Append(ctx, &audit.Record{PolicyID: "p1", Action: audit.ActionPolicyCreated, PerformedBy: "staff", Timestamp: at}))

	renderer := NewYAML(policies, actors, log, func() time.Time { return at })
	data, err := renderer.RenderPolicy(ctx, "p1")
	require.NoError(t, err)

	decoded := &Dossier{}
	require.NoError(t, yaml.Unmarshal(data, decoded))
	assert.Equal(t, "p1", decoded.Policy.ID)
	assert.Equal(t, "DRAFT", decoded.Policy.Status)
	require.Len(t, decoded.Actors, 2)
	assert.Equal(t, "LANDLORD", decoded.Actors[0].Role)
	assert.Equal(t, "Ana Ruiz", decoded.Actors[1].Name)
	require.Len(t, decoded.Contracts, 1)
	assert.True(t, decoded.Contracts[0].Current)
	require.Len(t, decoded.Activity, 1)
	assert.Equal(t, "POLICY_CREATED", decoded.Activity[0].Action)

	_, err = renderer.RenderPolicy(ctx, "missing")
	assert.ErrorIs(t, err, fault.ErrNotFound)
}
