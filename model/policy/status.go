package policy

import (
	"fmt"
	"strings"
)

// Status represents the lifecycle state of a policy.
type Status string

const (
	StatusDraft                 Status = "DRAFT"
	StatusCollectingInfo        Status = "COLLECTING_INFO"
	StatusUnderInvestigation    Status = "UNDER_INVESTIGATION"
	StatusInvestigationRejected Status = "INVESTIGATION_REJECTED"
	StatusPendingApproval       Status = "PENDING_APPROVAL"
	StatusApproved              Status = "APPROVED"
	StatusContractPending       Status = "CONTRACT_PENDING"
	StatusContractSigned        Status = "CONTRACT_SIGNED"
	StatusActive                Status = "ACTIVE"
	StatusExpired               Status = "EXPIRED"
	StatusCancelled             Status = "CANCELLED"
)

// aliases maps legacy vocabulary used by older screens onto the lifecycle.
var aliases = map[string]Status{
	"SENT_TO_TENANT": StatusCollectingInfo,
	"IN_PROGRESS":    StatusCollectingInfo,
}

var statuses = []Status{
	StatusDraft, StatusCollectingInfo, StatusUnderInvestigation, StatusInvestigationRejected,
	StatusPendingApproval, StatusApproved, StatusContractPending, StatusContractSigned,
	StatusActive, StatusExpired, StatusCancelled,
}

// ParseStatus converts a label (including legacy aliases) into a Status.
func ParseStatus(label string) (Status, error) {
	normalized := strings.ToUpper(strings.TrimSpace(label))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for _, candidate := range statuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	if status, ok := aliases[normalized]; ok {
		return status, nil
	}
	return "", fmt.Errorf("unknown policy status: %q", label)
}

// IsTerminal reports whether no further transition may leave s.
// InvestigationRejected is terminal unless explicitly reopened by staff.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusExpired, StatusCancelled, StatusInvestigationRejected:
		return true
	}
	return false
}

// AcceptsActors reports whether actors may still be added.
func (s Status) AcceptsActors() bool {
	return s == StatusDraft || s == StatusCollectingInfo
}

// AcceptsContract reports whether a contract version may be uploaded.
func (s Status) AcceptsContract() bool {
	return s == StatusApproved || s == StatusContractPending
}

// AcceptsSubmissions reports whether actors may still submit information.
func (s Status) AcceptsSubmissions() bool {
	switch s {
	case StatusDraft, StatusCollectingInfo, StatusUnderInvestigation, StatusPendingApproval:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }
