package actor

import (
	"fmt"
	"strings"
)

const (
	// MinReferences is the minimum number of valid references.
	MinReferences = 3
	// MaxReferences caps the number of references an actor may list.
	MaxReferences = 5
)

// Rules evaluates record completeness.
type Rules struct {
	// RequiredDocuments lists document categories each role must attach.
	RequiredDocuments map[Role][]string
}

var defaultRules = &Rules{}

// IsComplete evaluates r with no required document categories.
func IsComplete(r *Record) bool {
	return defaultRules.IsComplete(r)
}

// IsComplete reports whether every field required for the record role and
// kind is populated and the reference rule holds.
func (s *Rules) IsComplete(r *Record) bool {
	return len(s.Missing(r)) == 0
}

// Missing lists the unmet requirements of r.
func (s *Rules) Missing(r *Record) []string {
	if r == nil {
		return []string{"record"}
	}
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	require("email", r.Email)
	require("phone", r.Phone)
	require("address", r.Address)
	switch r.Kind {
	case KindCompany:
		require("legalName", r.Company.LegalName)
		require("taxId", r.Company.TaxID)
		require("legalRepName", r.Company.LegalRepName)
		require("legalRepId", r.Company.LegalRepID)
	default:
		require("fullName", r.Individual.FullName)
		switch r.Individual.Nationality {
		case NationalityMexican:
			require("curp", r.Individual.CURP)
		case NationalityForeign:
			require("passport", r.Individual.Passport)
		default:
			missing = append(missing, "nationality")
		}
	}
	if r.Role == RoleAval {
		require("collateral.propertyAddress", r.Collateral.PropertyAddress)
		require("collateral.deedNumber", r.Collateral.DeedNumber)
	}
	if msg := checkReferences(r.References()); msg != "" {
		missing = append(missing, msg)
	}
	if s != nil {
		for _, category := range s.RequiredDocuments[r.Role] {
			if !r.HasDocument(category) {
				missing = append(missing, "document:"+category)
			}
		}
	}
	return missing
}

func checkReferences(refs []Reference) string {
	if len(refs) > MaxReferences {
		return fmt.Sprintf("references: at most %d allowed", MaxReferences)
	}
	valid := 0
	for _, ref := range refs {
		if ref.IsValid() {
			valid++
		}
	}
	if valid < MinReferences {
		return fmt.Sprintf("references: %d of %d valid", valid, MinReferences)
	}
	return ""
}
