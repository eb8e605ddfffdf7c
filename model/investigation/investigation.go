// Package investigation models the background investigation performed on a
// policy: a bounded sub-workflow NotStarted -> InProgress -> Completed that
// yields a verdict and risk level, with an optional single landlord override
// when the verdict is HighRisk.
package investigation

import (
	"time"

	"github.com/viant/guaranty/fault"
)

// State represents investigation progress.
type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateInProgress State = "IN_PROGRESS"
	StateCompleted  State = "COMPLETED"
)

// Verdict is the investigation outcome; empty until completed.
type Verdict string

const (
	VerdictApproved Verdict = "APPROVED"
	VerdictRejected Verdict = "REJECTED"
	VerdictHighRisk Verdict = "HIGH_RISK"
)

// RiskLevel classifies the applicant risk; empty until completed.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// LandlordDecision is the landlord's answer to a HighRisk verdict.
type LandlordDecision string

const (
	DecisionProceed LandlordDecision = "PROCEED"
	DecisionReject  LandlordDecision = "REJECT"
)

// Priority orders the investigation queue.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Resolution is how the policy lifecycle should treat the investigation.
type Resolution int

const (
	// ResolutionPending means the policy stays blocked.
	ResolutionPending Resolution = iota
	ResolutionProceed
	ResolutionReject
)

// Investigation is owned by exactly one policy.
type Investigation struct {
	ID                    string           `json:"id"`
	PolicyID              string           `json:"policyId"`
	State                 State            `json:"state"`
	Priority              Priority         `json:"priority,omitempty"`
	AssignedTo            string           `json:"assignedTo,omitempty"`
	StartedAt             *time.Time       `json:"startedAt,omitempty"`
	Verdict               Verdict          `json:"verdict,omitempty"`
	RiskLevel             RiskLevel        `json:"riskLevel,omitempty"`
	Notes                 string           `json:"notes,omitempty"`
	CompletedBy           string           `json:"completedBy,omitempty"`
	CompletedAt           *time.Time       `json:"completedAt,omitempty"`
	ResponseTimeHours     float64          `json:"responseTimeHours,omitempty"`
	LandlordDecision      LandlordDecision `json:"landlordDecision,omitempty"`
	LandlordOverride      bool             `json:"landlordOverride"`
	LandlordDecisionNotes string           `json:"landlordDecisionNotes,omitempty"`
	LandlordDecidedBy     string           `json:"landlordDecidedBy,omitempty"`
	LandlordDecidedAt     *time.Time       `json:"landlordDecidedAt,omitempty"`
	AbandonedAt           *time.Time       `json:"abandonedAt,omitempty"`
	CreatedAt             time.Time        `json:"createdAt"`
}

// New creates a not started investigation.
func New(id, policyID string, createdAt time.Time) *Investigation {
	return &Investigation{ID: id, PolicyID: policyID, State: StateNotStarted, CreatedAt: createdAt}
}

// Start assigns the investigation and moves it to InProgress.
func (i *Investigation) Start(assignee string, priority Priority, at time.Time) error {
	if i.State != StateNotStarted {
		return fault.ErrAlreadyStarted
	}
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.valid() {
		return fault.ErrInvalidInput.With("unknown priority %q", priority)
	}
	i.State = StateInProgress
	i.AssignedTo = assignee
	i.Priority = priority
	i.StartedAt = &at
	return nil
}

// Complete records the verdict; verdict and risk level are immutable afterwards.
func (i *Investigation) Complete(verdict Verdict, risk RiskLevel, completedBy, notes string, at time.Time) error {
	switch i.State {
	case StateNotStarted:
		return fault.ErrNotStarted
	case StateCompleted:
		return fault.ErrAlreadyCompleted
	}
	if err := ValidateVerdict(verdict, risk); err != nil {
		return err
	}
	i.State = StateCompleted
	i.Verdict = verdict
	i.RiskLevel = risk
	i.CompletedBy = completedBy
	i.Notes = notes
	i.CompletedAt = &at
	if i.StartedAt != nil {
		i.ResponseTimeHours = at.Sub(*i.StartedAt).Hours()
	}
	return nil
}

// ValidateVerdict checks that risk is High exactly when verdict is HighRisk.
func ValidateVerdict(verdict Verdict, risk RiskLevel) error {
	switch verdict {
	case VerdictApproved, VerdictRejected, VerdictHighRisk:
	default:
		return fault.ErrInvalidInput.With("unknown verdict %q", verdict)
	}
	switch risk {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		return fault.ErrInvalidRiskForVerdict.With("unknown risk level %q", risk)
	}
	if verdict == VerdictHighRisk && risk != RiskHigh {
		return fault.ErrInvalidRiskForVerdict.With("verdict %s requires risk %s, got %s", verdict, RiskHigh, risk)
	}
	if verdict != VerdictHighRisk && risk == RiskHigh {
		return fault.ErrInvalidRiskForVerdict.With("verdict %s cannot carry risk %s", verdict, risk)
	}
	return nil
}

// Override records the landlord decision; callable once, only after HighRisk.
func (i *Investigation) Override(decision LandlordDecision, notes, decidedBy string, at time.Time) error {
	if i.State != StateCompleted || i.Verdict != VerdictHighRisk {
		return fault.ErrVerdictNotHighRisk
	}
	if i.LandlordDecision != "" {
		return fault.ErrAlreadyDecided
	}
	if decision != DecisionProceed && decision != DecisionReject {
		return fault.ErrInvalidInput.With("unknown landlord decision %q", decision)
	}
	i.LandlordDecision = decision
	i.LandlordOverride = true
	i.LandlordDecisionNotes = notes
	i.LandlordDecidedBy = decidedBy
	i.LandlordDecidedAt = &at
	return nil
}

// Resolution applies the resolution rule consumed by the policy lifecycle.
func (i *Investigation) Resolution() Resolution {
	if i == nil || i.State != StateCompleted {
		return ResolutionPending
	}
	switch i.Verdict {
	case VerdictApproved:
		return ResolutionProceed
	case VerdictRejected:
		return ResolutionReject
	case VerdictHighRisk:
		switch i.LandlordDecision {
		case DecisionProceed:
			return ResolutionProceed
		case DecisionReject:
			return ResolutionReject
		}
	}
	return ResolutionPending
}

// AwaitingLandlord reports whether the verdict is HighRisk without a decision.
func (i *Investigation) AwaitingLandlord() bool {
	return i != nil && i.State == StateCompleted && i.Verdict == VerdictHighRisk && i.LandlordDecision == ""
}

// Abandon marks an open investigation as moot, used when the policy is cancelled.
func (i *Investigation) Abandon(at time.Time) {
	if i.State == StateCompleted || i.AbandonedAt != nil {
		return
	}
	i.AbandonedAt = &at
}

// Clone returns a deep copy.
func (i *Investigation) Clone() *Investigation {
	if i == nil {
		return nil
	}
	ret := *i
	ret.StartedAt = cloneTime(i.StartedAt)
	ret.CompletedAt = cloneTime(i.CompletedAt)
	ret.LandlordDecidedAt = cloneTime(i.LandlordDecidedAt)
	ret.AbandonedAt = cloneTime(i.AbandonedAt)
	return &ret
}

func (p Priority) valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
