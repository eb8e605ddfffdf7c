// Package verification implements the per-actor approval sub-state,
// independent of the policy status.
//
//	Pending  -> Approved | Rejected | InReview
//	InReview -> Approved | Rejected
//	Rejected -> Pending (resubmission only)
package verification

import (
	"strings"
	"time"

	"github.com/viant/guaranty/fault"
)

// Status is the actor verification state.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusInReview Status = "IN_REVIEW"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Entry is one retained verification step.
type Entry struct {
	Status Status    `json:"status"`
	By     string    `json:"by,omitempty"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// Tracker holds the verification state of one actor record.
type Tracker struct {
	Status          Status     `json:"status"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	ReviewedBy      string     `json:"reviewedBy,omitempty"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectedBy      string     `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	History         []Entry    `json:"history,omitempty"`
}

// NewTracker returns a pending tracker.
func NewTracker() Tracker {
	return Tracker{Status: StatusPending}
}

// Approve records approval. It fails with NotComplete when the actor
// information is incomplete and is a no-op when already approved.
func (t *Tracker) Approve(approverID string, complete bool, at time.Time) (bool, error) {
	if !complete || t.Status == StatusRejected {
		return false, fault.ErrNotComplete
	}
	if t.Status == StatusApproved {
		return false, nil
	}
	t.Status = StatusApproved
	t.ApprovedBy = approverID
	t.ApprovedAt = &at
	t.append(StatusApproved, approverID, "", at)
	return true, nil
}

// Reject records a rejection with a mandatory human-readable reason.
func (t *Tracker) Reject(approverID, reason string, at time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fault.ErrEmptyReason
	}
	switch t.Status {
	case StatusPending, StatusInReview:
	default:
		return fault.ErrIllegalTransition.With("cannot reject actor in %s", t.Status)
	}
	t.Status = StatusRejected
	t.RejectionReason = reason
	t.RejectedBy = approverID
	t.RejectedAt = &at
	t.append(StatusRejected, approverID, reason, at)
	return nil
}

// MarkInReview moves a pending actor into manual review.
func (t *Tracker) MarkInReview(reviewerID string, at time.Time) (bool, error) {
	switch t.Status {
	case StatusInReview:
		return false, nil
	case StatusPending:
	default:
		return false, fault.ErrIllegalTransition.With("cannot review actor in %s", t.Status)
	}
	t.Status = StatusInReview
	t.ReviewedBy = reviewerID
	t.append(StatusInReview, reviewerID, "", at)
	return true, nil
}

// Resubmit resets a rejected tracker to pending and clears the reason; the
// rejection stays in History.
func (t *Tracker) Resubmit(at time.Time) bool {
	if t.Status != StatusRejected {
		return false
	}
	t.Status = StatusPending
	t.RejectionReason = ""
	t.append(StatusPending, "", "", at)
	return true
}

// IsApproved reports whether the actor has been approved.
func (t *Tracker) IsApproved() bool { return t.Status == StatusApproved }

// Clone returns a deep copy.
func (t Tracker) Clone() Tracker {
	ret := t
	if t.ApprovedAt != nil {
		at := *t.ApprovedAt
		ret.ApprovedAt = &at
	}
	if t.RejectedAt != nil {
		at := *t.RejectedAt
		ret.RejectedAt = &at
	}
	ret.History = append([]Entry(nil), t.History...)
	return ret
}

func (t *Tracker) append(status Status, by, reason string, at time.Time) {
	t.History = append(t.History, Entry{Status: status, By: by, Reason: reason, At: at})
}
