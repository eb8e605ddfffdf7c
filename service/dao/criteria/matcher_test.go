package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/guaranty/service/dao"
)

func TestMatch(t *testing.T) {
	fields := func(name string) (string, bool) {
		switch name {
		case dao.ParamStatus:
			return "ACTIVE", true
		case dao.ParamPolicyID:
			return "p1", true
		}
		return "", false
	}
	type testCase struct {
		name       string
		parameters []*dao.Parameter
		expect     bool
	}
	tests := []testCase{
		{name: "no parameters", expect: true},
		{name: "single match", parameters: []*dao.Parameter{dao.NewParameter(dao.ParamStatus, "ACTIVE")}, expect: true},
		{name: "single mismatch", parameters: []*dao.Parameter{dao.NewParameter(dao.ParamStatus, "DRAFT")}, expect: false},
		{name: "any of", parameters: []*dao.Parameter{dao.NewParameter(dao.ParamStatus, "DRAFT", "ACTIVE")}, expect: true},
		{name: "unknown ignored", parameters: []*dao.Parameter{dao.NewParameter("Color", "red")}, expect: true},
		{
			name: "all must match",
			parameters: []*dao.Parameter{
				dao.NewParameter(dao.ParamStatus, "ACTIVE"),
				dao.NewParameter(dao.ParamPolicyID, "p2"),
			},
			expect: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, Match(fields, tc.parameters))
		})
	}
}
