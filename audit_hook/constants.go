package audithook

// Action constants for audit events.
const (
	// Club actions
	ActionClubCreated      = "club.created"
	ActionClubOwnerChanged = "club.owner_changed"
	ActionClubFeeChanged   = "club.fee_changed"

	// Membership actions
	ActionMembershipRequested = "membership.requested"
	ActionRenewalRequested    = "membership.renewal_requested"
	ActionMemberAdmitted      = "membership.admitted"
	ActionMembershipExpired   = "membership.expired"
)

// Resource constants for audit events.
const (
	ResourceClub       = "club"
	ResourceMembership = "membership"
)

// Category constants for audit events.
const (
	CategoryGovernance = "governance"
	CategoryPayment    = "payment"
	CategoryAccess     = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
