// Package model groups the domain types of a rental-guarantee policy.
//
// The aggregate root is policy.Policy; it owns its investigation and
// contract versions. Actor records (actor.Record) are stored separately,
// one per party, each carrying its own verification.Tracker. Access grants
// and audit records reference a policy by id only.
package model
