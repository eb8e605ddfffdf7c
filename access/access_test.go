package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/guaranty/fault"
)

func TestRules_Authorize(t *testing.T) {
	type testCase struct {
		name      string
		rules     *Rules
		principal Principal
		action    Action
		allowed   bool
	}
	tests := []testCase{
		{name: "staff cancels", rules: DefaultRules(), principal: Staff("s1"), action: ActionCancel, allowed: true},
		{name: "landlord cannot cancel", rules: DefaultRules(), principal: Landlord("l1"), action: ActionCancel},
		{name: "landlord cannot reopen", rules: DefaultRules(), principal: Landlord("l1"), action: ActionReopen},
		{name: "landlord overrides", rules: DefaultRules(), principal: Landlord("l1"), action: ActionLandlordOverride, allowed: true},
		{name: "staff overrides", rules: DefaultRules(), principal: Staff("s1"), action: ActionLandlordOverride, allowed: true},
		{name: "tenant cannot override", rules: DefaultRules(), principal: Principal{ID: "t1", Role: RoleTenant}, action: ActionLandlordOverride},
		{name: "anonymous", rules: DefaultRules(), principal: Principal{Role: RoleStaff}, action: ActionApprovePolicy},
		{name: "blocked staff", rules: &Rules{Block: []string{"S1"}}, principal: Staff("s1"), action: ActionApprovePolicy},
		{
			name:      "configured allow",
			rules:     FromConfig(&Config{Allow: map[string][]string{"UploadContract": {"staff", "landlord"}}}),
			principal: Landlord("l1"),
			action:    ActionUploadContract,
			allowed:   true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rules.Authorize(tc.principal, tc.action)
			if tc.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, fault.ErrNotAllowed)
			assert.Equal(t, fault.KindForbidden, fault.KindOf(err))
		})
	}
}
