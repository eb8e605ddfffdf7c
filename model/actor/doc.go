// Package actor defines the per-role actor record (landlord, tenant, joint
// obligor, aval crossed with individual or company) and its completeness
// evaluation.
package actor
