package policy

import (
	"fmt"
	"strings"

	"github.com/viant/guaranty/model/actor"
)

// GuarantorRequirement determines which guarantor roles a policy requires.
type GuarantorRequirement string

const (
	GuarantorNone         GuarantorRequirement = "NONE"
	GuarantorJointObligor GuarantorRequirement = "JOINT_OBLIGOR"
	GuarantorAval         GuarantorRequirement = "AVAL"
	GuarantorBoth         GuarantorRequirement = "BOTH"
)

// ParseGuarantorRequirement parses a requirement label; empty means none.
func ParseGuarantorRequirement(label string) (GuarantorRequirement, error) {
	switch GuarantorRequirement(strings.ToUpper(strings.TrimSpace(label))) {
	case GuarantorNone, "":
		return GuarantorNone, nil
	case GuarantorJointObligor:
		return GuarantorJointObligor, nil
	case GuarantorAval:
		return GuarantorAval, nil
	case GuarantorBoth:
		return GuarantorBoth, nil
	}
	return "", fmt.Errorf("unknown guarantor requirement: %q", label)
}

// RequiredRoles returns the roles that must be present and approved.
func (g GuarantorRequirement) RequiredRoles() []actor.Role {
	roles := []actor.Role{actor.RoleLandlord, actor.RoleTenant}
	switch g {
	case GuarantorJointObligor:
		roles = append(roles, actor.RoleJointObligor)
	case GuarantorAval:
		roles = append(roles, actor.RoleAval)
	case GuarantorBoth:
		roles = append(roles, actor.RoleJointObligor, actor.RoleAval)
	}
	return roles
}

// Requires reports whether role is required under g.
func (g GuarantorRequirement) Requires(role actor.Role) bool {
	for _, candidate := range g.RequiredRoles() {
		if candidate == role {
			return true
		}
	}
	return false
}
