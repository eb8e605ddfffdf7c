// Package verification applies staff decisions to actor records and
// evaluates the cross-actor approval predicates used by the lifecycle
// guards. Callers hold the policy and actor locks and persist the result.
package verification

import (
	"time"

	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/model/policy"
)

// Approve approves record. It fails with NotComplete when the actor
// information is incomplete and reports false when already approved.
func Approve(record *actor.Record, approverID string, at time.Time) (bool, error) {
	changed, err := record.Verification.Approve(approverID, record.InformationComplete, at)
	if err != nil {
		return false, fault.ErrNotComplete.With("actor %s (%s) is not complete", record.ID, record.Role)
	}
	if changed {
		record.UpdatedAt = at
	}
	return changed, nil
}

// Reject rejects record with a reason. Fields are retained for the actor
// to correct but the record must be submitted again.
func Reject(record *actor.Record, approverID, reason string, at time.Time) error {
	if record.Locked {
		return fault.ErrAlreadyLocked.With("actor %s is locked", record.ID)
	}
	if err := record.Verification.Reject(approverID, reason, at); err != nil {
		return err
	}
	record.InformationComplete = false
	record.UpdatedAt = at
	return nil
}

// MarkInReview moves a pending record into manual review.
func MarkInReview(record *actor.Record, reviewerID string, at time.Time) (bool, error) {
	changed, err := record.Verification.MarkInReview(reviewerID, at)
	if changed {
		record.UpdatedAt = at
	}
	return changed, err
}

// AllApproved reports whether every required role is present and every
// actor filling a required role is approved.
func AllApproved(requirement policy.GuarantorRequirement, records []*actor.Record) bool {
	return all(requirement, records, func(r *actor.Record) bool { return r.Verification.IsApproved() })
}

// AllComplete reports whether every required role is present and every
// actor filling a required role has complete information.
func AllComplete(requirement policy.GuarantorRequirement, records []*actor.Record) bool {
	return all(requirement, records, func(r *actor.Record) bool { return r.InformationComplete })
}

// Pending returns the required actors not yet approved.
func Pending(requirement policy.GuarantorRequirement, records []*actor.Record) []*actor.Record {
	var ret []*actor.Record
	for _, record := range records {
		if requirement.Requires(record.Role) && !record.Verification.IsApproved() {
			ret = append(ret, record)
		}
	}
	return ret
}

func all(requirement policy.GuarantorRequirement, records []*actor.Record, ok func(r *actor.Record) bool) bool {
	present := map[actor.Role]bool{}
	for _, record := range records {
		if !requirement.Requires(record.Role) {
			continue
		}
		if !ok(record) {
			return false
		}
		present[record.Role] = true
	}
	for _, role := range requirement.RequiredRoles() {
		if !present[role] {
			return false
		}
	}
	return true
}
