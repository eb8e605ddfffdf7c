package access

import (
	"strings"

	"github.com/viant/guaranty/fault"
)

// Role is the caller role used for authorization and audit attribution.
type Role string

const (
	RoleStaff        Role = "STAFF"
	RoleLandlord     Role = "LANDLORD"
	RoleTenant       Role = "TENANT"
	RoleJointObligor Role = "JOINT_OBLIGOR"
	RoleAval         Role = "AVAL"
	// RoleSystem is used for lazy transitions such as expiry.
	RoleSystem Role = "SYSTEM"
)

// Principal identifies the caller of an orchestrator operation.
type Principal struct {
	ID   string `json:"id" yaml:"id"`
	Role Role   `json:"role" yaml:"role"`
}

// Staff returns a staff principal.
func Staff(id string) Principal { return Principal{ID: id, Role: RoleStaff} }

// Landlord returns a landlord principal.
func Landlord(id string) Principal { return Principal{ID: id, Role: RoleLandlord} }

// System is the principal recorded for transitions nobody triggered.
var System = Principal{ID: "system", Role: RoleSystem}

// Action names an orchestrator operation subject to authorization.
type Action string

const (
	ActionCreatePolicy          Action = "CreatePolicy"
	ActionAddActor              Action = "AddActor"
	ActionSendInvitations       Action = "SendInvitations"
	ActionResendInvitation      Action = "ResendInvitation"
	ActionApproveActor          Action = "ApproveActor"
	ActionRejectActor           Action = "RejectActor"
	ActionReviewActor           Action = "ReviewActor"
	ActionStartInvestigation    Action = "StartInvestigation"
	ActionOverrideApproval      Action = "OverrideApproval"
	ActionAssignInvestigation   Action = "AssignInvestigation"
	ActionCompleteInvestigation Action = "CompleteInvestigation"
	ActionLandlordOverride      Action = "LandlordOverride"
	ActionApprovePolicy         Action = "ApprovePolicy"
	ActionUploadContract        Action = "UploadContract"
	ActionMarkContractSigned    Action = "MarkContractSigned"
	ActionCancel                Action = "Cancel"
	ActionReopen                Action = "Reopen"
)

// Rules maps actions to the roles allowed to trigger them.
//
//   - Allow lists roles per action; an action without entry is staff only.
//   - Block denies listed principal ids regardless of role.
type Rules struct {
	Allow map[Action][]Role
	Block []string
}

// DefaultRules lets staff trigger everything and the landlord answer a
// HighRisk verdict.
func DefaultRules() *Rules {
	return &Rules{
		Allow: map[Action][]Role{
			ActionLandlordOverride: {RoleStaff, RoleLandlord},
		},
	}
}

// Authorize returns fault.ErrNotAllowed unless p may trigger action.
func (r *Rules) Authorize(p Principal, action Action) error {
	if strings.TrimSpace(p.ID) == "" {
		return fault.ErrNotAllowed.With("%s: anonymous caller", action)
	}
	if r.IsAllowed(p, action) {
		return nil
	}
	return fault.ErrNotAllowed.With("%s: role %s is not allowed", action, p.Role)
}

// IsAllowed evaluates Block and Allow. Block has priority; ids match
// case-insensitively.
func (r *Rules) IsAllowed(p Principal, action Action) bool {
	if r == nil {
		return p.Role == RoleStaff
	}
	for _, blocked := range r.Block {
		if strings.EqualFold(blocked, p.ID) {
			return false
		}
	}
	roles, ok := r.Allow[action]
	if !ok {
		return p.Role == RoleStaff
	}
	for _, role := range roles {
		if role == p.Role {
			return true
		}
	}
	return false
}

// Config is the serialisable form of Rules.
type Config struct {
	Allow map[string][]string `json:"allow,omitempty" yaml:"allow,omitempty"`
	Block []string            `json:"block,omitempty" yaml:"block,omitempty"`
}

// FromConfig merges c over DefaultRules.
func FromConfig(c *Config) *Rules {
	ret := DefaultRules()
	if c == nil {
		return ret
	}
	for action, roles := range c.Allow {
		var allowed []Role
		for _, role := range roles {
			allowed = append(allowed, Role(strings.ToUpper(strings.TrimSpace(role))))
		}
		ret.Allow[Action(action)] = allowed
	}
	ret.Block = append([]string(nil), c.Block...)
	return ret
}
