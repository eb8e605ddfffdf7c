// Package guaranty manages rental-guarantee policies: the policy lifecycle
// from draft to active contract, the multi-actor verification each policy
// requires (landlord, tenant, joint obligor, aval), the background
// investigation with its optional landlord override, and versioned lease
// contracts.
//
// The service layers are:
//
//   - lifecycle – the orchestrator, the only component changing a policy status
//   - actor     – self-service submission through single-use access links
//   - grant     – issuing and redeeming access links
//   - audit     – append-only activity log (memory or PostgreSQL)
//   - event     – typed domain events over memory, afs or Kafka queues
//   - notify    – queue-backed notification outbox and dispatcher
//   - storage   – afs document storage with signed download links
//
// Host applications typically build everything through the Service façade:
//
//	srv, _ := guaranty.New(ctx, guaranty.DefaultConfig())
//	staff := access.Staff("staff-1")
//	p, _ := srv.Lifecycle().CreatePolicy(ctx, staff, &lifecycle.PolicyInput{GuarantorRequirement: policy.GuarantorNone})
//	invitations, _ := srv.Lifecycle().SendInvitations(ctx, staff, p.ID)
//	_, _ = srv.SelfService().Submit(ctx, invitations[0].Token, submission)
package guaranty
