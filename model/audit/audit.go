// Package audit defines the immutable activity record emitted for every
// successful transition and actor decision.
package audit

import "time"

// Action names an audited operation.
type Action string

const (
	ActionPolicyCreated          Action = "POLICY_CREATED"
	ActionActorAdded             Action = "ACTOR_ADDED"
	ActionInvitationsSent        Action = "INVITATIONS_SENT"
	ActionInvitationResent       Action = "INVITATION_RESENT"
	ActionActorSubmitted         Action = "ACTOR_SUBMITTED"
	ActionDocumentAttached       Action = "DOCUMENT_ATTACHED"
	ActionActorApproved          Action = "ACTOR_APPROVED"
	ActionActorRejected          Action = "ACTOR_REJECTED"
	ActionActorInReview          Action = "ACTOR_IN_REVIEW"
	ActionInvestigationRequested Action = "INVESTIGATION_REQUESTED"
	ActionInvestigationStarted   Action = "INVESTIGATION_STARTED"
	ActionInvestigationCompleted Action = "INVESTIGATION_COMPLETED"
	ActionLandlordOverride       Action = "LANDLORD_OVERRIDE"
	ActionPolicyApproved         Action = "POLICY_APPROVED"
	ActionContractUploaded       Action = "CONTRACT_UPLOADED"
	ActionContractSigned         Action = "CONTRACT_SIGNED"
	ActionPolicyExpired          Action = "POLICY_EXPIRED"
	ActionPolicyCancelled        Action = "POLICY_CANCELLED"
	ActionPolicyReopened         Action = "POLICY_REOPENED"
)

// Record is append-only; guards never read it.
type Record struct {
	ID          string            `json:"id"`
	PolicyID    string            `json:"policyId"`
	ActorID     string            `json:"actorId,omitempty"`
	Action      Action            `json:"action"`
	PerformedBy string            `json:"performedBy"`
	Timestamp   time.Time         `json:"timestamp"`
	Details     map[string]string `json:"details,omitempty"`
}
