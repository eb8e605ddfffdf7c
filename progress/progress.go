// Package progress aggregates verification counters for the actors of a
// single policy (actors total, complete, approved, rejected, in review),
// plus the required roles still missing.
package progress

import (
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/model/verification"
)

// Delta represents an incremental counter change. The fields are signed and
// therefore can be either positive (increment) or negative (decrement).
type Delta struct {
	Total    int
	Complete int
	Approved int
	Rejected int
	InReview int
	Pending  int
}

// Progress is a point-in-time view of a policy verification state.
type Progress struct {
	PolicyID     string       `json:"policyId"`
	Total        int          `json:"total"`
	Complete     int          `json:"complete"`
	Approved     int          `json:"approved"`
	Rejected     int          `json:"rejected"`
	InReview     int          `json:"inReview"`
	Pending      int          `json:"pending"`
	MissingRoles []actor.Role `json:"missingRoles,omitempty"`
}

// Apply adds d to the counters.
func (p *Progress) Apply(d Delta) {
	p.Total += d.Total
	p.Complete += d.Complete
	p.Approved += d.Approved
	p.Rejected += d.Rejected
	p.InReview += d.InReview
	p.Pending += d.Pending
}

// DeltaOf returns the contribution of one actor record.
func DeltaOf(record *actor.Record) Delta {
	d := Delta{Total: 1}
	if record.InformationComplete {
		d.Complete = 1
	}
	switch record.Verification.Status {
	case verification.StatusApproved:
		d.Approved = 1
	case verification.StatusRejected:
		d.Rejected = 1
	case verification.StatusInReview:
		d.InReview = 1
	default:
		d.Pending = 1
	}
	return d
}

// Compute builds the progress of policyID from its actor records.
func Compute(policyID string, records []*actor.Record, required []actor.Role) Progress {
	ret := Progress{PolicyID: policyID}
	present := map[actor.Role]bool{}
	for _, record := range records {
		present[record.Role] = true
		ret.Apply(DeltaOf(record))
	}
	for _, role := range required {
		if !present[role] {
			ret.MissingRoles = append(ret.MissingRoles, role)
		}
	}
	return ret
}
