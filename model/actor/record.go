package actor

import (
	"strings"
	"time"

	"github.com/viant/guaranty/model/verification"
)

// Reference is a personal (individual) or commercial (company) reference.
type Reference struct {
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	Phone        string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty" yaml:"relationship,omitempty"`
	Email        string `json:"email,omitempty" yaml:"email,omitempty"`
}

// IsValid reports whether the reference carries name, phone and relationship.
func (r Reference) IsValid() bool {
	return strings.TrimSpace(r.Name) != "" &&
		strings.TrimSpace(r.Phone) != "" &&
		strings.TrimSpace(r.Relationship) != ""
}

// Document is an uploaded file tracked by identity and category only.
type Document struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	FileName   string    `json:"fileName,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Individual holds natural-person identity fields.
type Individual struct {
	FullName    string      `json:"fullName,omitempty"`
	Nationality Nationality `json:"nationality,omitempty"`
	CURP        string      `json:"curp,omitempty"`
	Passport    string      `json:"passport,omitempty"`
}

// Company holds legal-entity identity fields.
type Company struct {
	LegalName    string `json:"legalName,omitempty"`
	TaxID        string `json:"taxId,omitempty"`
	LegalRepName string `json:"legalRepName,omitempty"`
	LegalRepID   string `json:"legalRepId,omitempty"`
}

// Employment is optional income information.
type Employment struct {
	Occupation    string  `json:"occupation,omitempty"`
	EmployerName  string  `json:"employerName,omitempty"`
	MonthlyIncome float64 `json:"monthlyIncome,omitempty"`
}

// Collateral is the property an aval pledges.
type Collateral struct {
	PropertyAddress string `json:"propertyAddress,omitempty"`
	DeedNumber      string `json:"deedNumber,omitempty"`
}

// Record is the per-role data container owned by exactly one policy.
type Record struct {
	ID                   string               `json:"id"`
	PolicyID             string               `json:"policyId"`
	Role                 Role                 `json:"role"`
	Kind                 Kind                 `json:"kind"`
	Primary              bool                 `json:"primary,omitempty"`
	Email                string               `json:"email,omitempty"`
	Phone                string               `json:"phone,omitempty"`
	Address              string               `json:"address,omitempty"`
	Individual           Individual           `json:"individual"`
	Company              Company              `json:"company"`
	Employment           Employment           `json:"employment"`
	Collateral           Collateral           `json:"collateral"`
	PersonalReferences   []Reference          `json:"personalReferences,omitempty"`
	CommercialReferences []Reference          `json:"commercialReferences,omitempty"`
	Documents            []Document           `json:"documents,omitempty"`
	InformationComplete  bool                 `json:"informationComplete"`
	Locked               bool                 `json:"locked,omitempty"`
	Verification         verification.Tracker `json:"verification"`
	SubmittedAt          *time.Time           `json:"submittedAt,omitempty"`
	CreatedAt            time.Time            `json:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt"`
	SCN                  int                  `json:"scn"`
}

// New creates a pending record for policyID.
func New(id, policyID string, role Role, kind Kind, primary bool, at time.Time) *Record {
	if kind == "" {
		kind = KindIndividual
	}
	return &Record{
		ID:           id,
		PolicyID:     policyID,
		Role:         role,
		Kind:         kind,
		Primary:      primary,
		Verification: verification.NewTracker(),
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

// References returns the reference list of the current kind branch.
func (r *Record) References() []Reference {
	if r.Kind == KindCompany {
		return r.CommercialReferences
	}
	return r.PersonalReferences
}

// DisplayName returns the full or legal name.
func (r *Record) DisplayName() string {
	if r.Kind == KindCompany {
		return r.Company.LegalName
	}
	return r.Individual.FullName
}

// HasDocument reports whether a document of category was attached.
func (r *Record) HasDocument(category string) bool {
	for _, doc := range r.Documents {
		if doc.Category == category {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	ret := *r
	ret.PersonalReferences = append([]Reference(nil), r.PersonalReferences...)
	ret.CommercialReferences = append([]Reference(nil), r.CommercialReferences...)
	ret.Documents = append([]Document(nil), r.Documents...)
	ret.Verification = r.Verification.Clone()
	if r.SubmittedAt != nil {
		at := *r.SubmittedAt
		ret.SubmittedAt = &at
	}
	return &ret
}
