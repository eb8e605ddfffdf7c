package fault

// Validation failures: malformed input.
var (
	ErrEmptyReason           = New(KindValidation, "EMPTY_REASON", "reason is required")
	ErrInvalidRiskForVerdict = New(KindValidation, "INVALID_RISK_FOR_VERDICT", "")
	ErrInvalidInput          = New(KindValidation, "INVALID_INPUT", "")
)

// Guard failures: the current state does not allow the operation.
var (
	ErrIllegalTransition       = New(KindIllegalTransition, "ILLEGAL_TRANSITION", "")
	ErrActorsNotApproved       = New(KindIllegalTransition, "ACTORS_NOT_APPROVED", "")
	ErrInvestigationUnresolved = New(KindIllegalTransition, "INVESTIGATION_UNRESOLVED", "")
	ErrNotComplete             = New(KindIllegalTransition, "NOT_COMPLETE", "actor information is not complete")
	ErrAlreadyStarted          = New(KindIllegalTransition, "ALREADY_STARTED", "investigation already started")
	ErrPolicyNotEligible       = New(KindIllegalTransition, "POLICY_NOT_ELIGIBLE", "")
	ErrAlreadyCompleted        = New(KindIllegalTransition, "ALREADY_COMPLETED", "investigation already completed")
	ErrNotStarted              = New(KindIllegalTransition, "NOT_STARTED", "investigation not started")
	ErrVerdictNotHighRisk      = New(KindIllegalTransition, "VERDICT_NOT_HIGH_RISK", "landlord override requires a high risk verdict")
	ErrAlreadyDecided          = New(KindIllegalTransition, "ALREADY_DECIDED", "landlord decision already recorded")
	ErrNoCurrentContract       = New(KindIllegalTransition, "NO_CURRENT_CONTRACT", "no current contract version")
	ErrAlreadySigned           = New(KindIllegalTransition, "ALREADY_SIGNED", "contract already signed")
	ErrAlreadyLocked           = New(KindIllegalTransition, "ALREADY_LOCKED", "actor information is locked")
)

// Lookup failures.
var (
	ErrNotFound      = New(KindNotFound, "NOT_FOUND", "")
	ErrGrantNotFound = New(KindNotFound, "GRANT_NOT_FOUND", "access link not found")
	ErrGrantExpired  = New(KindExpiredGrant, "GRANT_EXPIRED", "access link expired")
)

// Concurrency and authorization failures.
var (
	ErrLockTimeout = New(KindConcurrencyConflict, "LOCK_TIMEOUT", "")
	ErrNotAllowed  = New(KindForbidden, "NOT_ALLOWED", "")
)

// Invariant violations.
var (
	ErrMultipleCurrentContracts = New(KindInvariantViolation, "MULTIPLE_CURRENT_CONTRACTS", "")
	ErrTimestampRegression      = New(KindInvariantViolation, "TIMESTAMP_REGRESSION", "")
	ErrCorruptState             = New(KindInvariantViolation, "CORRUPT_STATE", "")
)
