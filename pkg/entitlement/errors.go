package entitlement

import "errors"

// Domain errors for entitlement operations
var (
	// Plan errors
	ErrPlanNotFound             = errors.New("entitlement.errors.plan_not_found")
	ErrInvalidPlanConfiguration = errors.New("entitlement.errors.invalid_plan_configuration")
	ErrFailedToLoadPlans        = errors.New("entitlement.errors.failed_to_load_plans")

	// Consumption outcomes
	ErrLimitReached        = errors.New("entitlement.errors.limit_reached")
	ErrProjectCreateFailed = errors.New("entitlement.errors.project_create_failed")
	ErrLedgerFailed        = errors.New("entitlement.errors.ledger_failed")
	ErrInvalidPayload      = errors.New("entitlement.errors.invalid_payload")

	// Read path
	ErrFailedToComputeLimits = errors.New("entitlement.errors.failed_to_compute_limits")

	// Store errors
	ErrUserNotFound          = errors.New("entitlement.errors.user_not_found")
	ErrDuplicateLedgerEntry  = errors.New("entitlement.errors.duplicate_ledger_entry")
	ErrStorageUnavailable    = errors.New("entitlement.errors.storage_unavailable")
	ErrInvalidLedgerType     = errors.New("entitlement.errors.invalid_ledger_type")
	ErrInvalidQuota          = errors.New("entitlement.errors.invalid_quota")
	ErrInvalidReferralStatus = errors.New("entitlement.errors.invalid_referral_status")
)
