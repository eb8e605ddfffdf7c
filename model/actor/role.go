package actor

import (
	"fmt"
	"strings"
)

// Role identifies the party an actor record represents.
type Role string

const (
	RoleLandlord     Role = "LANDLORD"
	RoleTenant       Role = "TENANT"
	RoleJointObligor Role = "JOINT_OBLIGOR"
	RoleAval         Role = "AVAL"
)

// Roles lists every role in display order.
var Roles = []Role{RoleLandlord, RoleTenant, RoleJointObligor, RoleAval}

// ParseRole parses a role label.
func ParseRole(label string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(label)))
	for _, candidate := range Roles {
		if candidate == role {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown actor role: %q", label)
}

// Kind distinguishes natural persons from legal entities.
type Kind string

const (
	KindIndividual Kind = "INDIVIDUAL"
	KindCompany    Kind = "COMPANY"
)

// ParseKind parses a kind label; empty means individual.
func ParseKind(label string) (Kind, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(label))) {
	case KindIndividual, "":
		return KindIndividual, nil
	case KindCompany:
		return KindCompany, nil
	}
	return "", fmt.Errorf("unknown actor kind: %q", label)
}

// Nationality selects the national identifier required for individuals.
type Nationality string

const (
	NationalityMexican Nationality = "MEXICAN"
	NationalityForeign Nationality = "FOREIGN"
)
