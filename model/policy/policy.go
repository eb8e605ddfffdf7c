// Package policy defines the rental-guarantee policy aggregate, its status
// vocabulary and the timestamps written by lifecycle transitions.
package policy

import (
	"time"

	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/model/contract"
	"github.com/viant/guaranty/model/investigation"
)

// DefaultContractLengthMonths applies when a policy is created without a length.
const DefaultContractLengthMonths = 12

// Timestamps are null until the corresponding transition fires and never
// move backwards once set.
type Timestamps struct {
	SubmittedAt              *time.Time `json:"submittedAt,omitempty" yaml:"submittedAt,omitempty"`
	InvestigationStartedAt   *time.Time `json:"investigationStartedAt,omitempty" yaml:"investigationStartedAt,omitempty"`
	InvestigationCompletedAt *time.Time `json:"investigationCompletedAt,omitempty" yaml:"investigationCompletedAt,omitempty"`
	ApprovedAt               *time.Time `json:"approvedAt,omitempty" yaml:"approvedAt,omitempty"`
	ContractUploadedAt       *time.Time `json:"contractUploadedAt,omitempty" yaml:"contractUploadedAt,omitempty"`
	ContractSignedAt         *time.Time `json:"contractSignedAt,omitempty" yaml:"contractSignedAt,omitempty"`
	ActivatedAt              *time.Time `json:"activatedAt,omitempty" yaml:"activatedAt,omitempty"`
	ExpiresAt                *time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
	ExpiredAt                *time.Time `json:"expiredAt,omitempty" yaml:"expiredAt,omitempty"`
	CancelledAt              *time.Time `json:"cancelledAt,omitempty" yaml:"cancelledAt,omitempty"`
}

// Policy is the aggregate owned and mutated only by the lifecycle orchestrator.
type Policy struct {
	ID                     string                         `json:"id"`
	PropertyAddress        string                         `json:"propertyAddress,omitempty"`
	MonthlyRent            float64                        `json:"monthlyRent,omitempty"`
	Status                 Status                         `json:"status"`
	GuarantorRequirement   GuarantorRequirement           `json:"guarantorRequirement"`
	ContractLengthMonths   int                            `json:"contractLengthMonths"`
	CreatedBy              string                         `json:"createdBy,omitempty"`
	CreatedAt              time.Time                      `json:"createdAt"`
	UpdatedAt              time.Time                      `json:"updatedAt"`
	Timestamps             Timestamps                     `json:"timestamps"`
	ApprovedBy             string                         `json:"approvedBy,omitempty"`
	CancelledBy            string                         `json:"cancelledBy,omitempty"`
	CancellationReason     string                         `json:"cancellationReason,omitempty"`
	Investigation          *investigation.Investigation   `json:"investigation,omitempty"`
	ArchivedInvestigations []*investigation.Investigation `json:"archivedInvestigations,omitempty"`
	Contracts              contract.Versions              `json:"contracts,omitempty"`
	SCN                    int                            `json:"scn"`
}

// New creates a draft policy.
func New(id string, requirement GuarantorRequirement, contractLengthMonths int, createdBy string, at time.Time) *Policy {
	if requirement == "" {
		requirement = GuarantorNone
	}
	if contractLengthMonths <= 0 {
		contractLengthMonths = DefaultContractLengthMonths
	}
	return &Policy{
		ID:                   id,
		Status:               StatusDraft,
		GuarantorRequirement: requirement,
		ContractLengthMonths: contractLengthMonths,
		CreatedBy:            createdBy,
		CreatedAt:            at,
		UpdatedAt:            at,
	}
}

// ExpiryFor returns signedAt plus months calendar months.
func ExpiryFor(signedAt time.Time, months int) time.Time {
	return signedAt.AddDate(0, months, 0)
}

// Stamp writes at into dest unless that would move the timestamp backwards.
func Stamp(dest **time.Time, name string, at time.Time) error {
	if *dest != nil && at.Before(**dest) {
		return fault.ErrTimestampRegression.With("%s: %s before %s", name, at.Format(time.RFC3339), (*dest).Format(time.RFC3339))
	}
	*dest = &at
	return nil
}

// Activate records the signature, activation and the write-once expiry.
func (p *Policy) Activate(signedAt time.Time) error {
	if p.Timestamps.ExpiresAt != nil {
		return fault.ErrCorruptState.With("policy %s: expiresAt already set", p.ID)
	}
	if err := Stamp(&p.Timestamps.ContractSignedAt, "contractSignedAt", signedAt); err != nil {
		return err
	}
	if err := Stamp(&p.Timestamps.ActivatedAt, "activatedAt", signedAt); err != nil {
		return err
	}
	expiresAt := ExpiryFor(signedAt, p.ContractLengthMonths)
	p.Timestamps.ExpiresAt = &expiresAt
	p.Status = StatusActive
	return nil
}

// IsExpiredAt reports whether an active policy has run past its expiry.
func (p *Policy) IsExpiredAt(now time.Time) bool {
	return p.Status == StatusActive && p.Timestamps.ExpiresAt != nil && now.After(*p.Timestamps.ExpiresAt)
}

// ExpireAt moves an active policy past its expiry to Expired; expiresAt is
// left untouched. It returns false when nothing changed.
func (p *Policy) ExpireAt(now time.Time) bool {
	if !p.IsExpiredAt(now) {
		return false
	}
	p.Status = StatusExpired
	expiredAt := *p.Timestamps.ExpiresAt
	p.Timestamps.ExpiredAt = &expiredAt
	return true
}

// Validate checks invariants that must hold before a write commits.
func (p *Policy) Validate() error {
	if err := p.Contracts.Validate(); err != nil {
		return err
	}
	if p.ContractLengthMonths <= 0 {
		return fault.ErrCorruptState.With("policy %s: contract length %d", p.ID, p.ContractLengthMonths)
	}
	ts := p.Timestamps
	if ts.ExpiresAt != nil {
		if ts.ContractSignedAt == nil {
			return fault.ErrCorruptState.With("policy %s: expiresAt without contractSignedAt", p.ID)
		}
		if !ts.ExpiresAt.Equal(ExpiryFor(*ts.ContractSignedAt, p.ContractLengthMonths)) {
			return fault.ErrCorruptState.With("policy %s: expiresAt does not match signature date", p.ID)
		}
	}
	if p.Status == StatusActive && ts.ExpiresAt == nil {
		return fault.ErrCorruptState.With("policy %s: active without expiresAt", p.ID)
	}
	return nil
}

// Clone returns a deep copy.
func (p *Policy) Clone() *Policy {
	if p == nil {
		return nil
	}
	ret := *p
	ret.Timestamps = p.Timestamps.clone()
	ret.Investigation = p.Investigation.Clone()
	if len(p.ArchivedInvestigations) > 0 {
		ret.ArchivedInvestigations = make([]*investigation.Investigation, len(p.ArchivedInvestigations))
		for i, item := range p.ArchivedInvestigations {
			ret.ArchivedInvestigations[i] = item.Clone()
		}
	}
	ret.Contracts = p.Contracts.Clone()
	return &ret
}

func (t Timestamps) clone() Timestamps {
	return Timestamps{
		SubmittedAt:              cloneTime(t.SubmittedAt),
		InvestigationStartedAt:   cloneTime(t.InvestigationStartedAt),
		InvestigationCompletedAt: cloneTime(t.InvestigationCompletedAt),
		ApprovedAt:               cloneTime(t.ApprovedAt),
		ContractUploadedAt:       cloneTime(t.ContractUploadedAt),
		ContractSignedAt:         cloneTime(t.ContractSignedAt),
		ActivatedAt:              cloneTime(t.ActivatedAt),
		ExpiresAt:                cloneTime(t.ExpiresAt),
		ExpiredAt:                cloneTime(t.ExpiredAt),
		CancelledAt:              cloneTime(t.CancelledAt),
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
