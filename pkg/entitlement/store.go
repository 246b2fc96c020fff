package entitlement

import (
	"context"

	"github.com/google/uuid"
)

// LedgerFilter scopes a ledger count. An empty PeriodKey counts all periods.
type LedgerFilter struct {
	Type      LedgerType
	PeriodKey string
}

// Reader is the read view limits are computed against. Store implements it
// for advisory reads; Tx implements it for reads inside the consume transaction.
type Reader interface {
	// UserPlanCode returns the user's current plan code.
	// Returns ErrUserNotFound if the user has no account row.
	UserPlanCode(ctx context.Context, userID uuid.UUID) (PlanCode, error)

	// CountLedgerEntries counts the user's ledger entries matching filter.
	CountLedgerEntries(ctx context.Context, userID uuid.UUID, filter LedgerFilter) (int64, error)

	// CountUnledgeredProjects counts the user's projects without a ledger entry.
	// Only projects created before the ledger existed can match.
	CountUnledgeredProjects(ctx context.Context, userID uuid.UUID) (int64, error)

	// CountApprovedReferrals counts approved referrals credited to the user in periodKey.
	CountApprovedReferrals(ctx context.Context, userID uuid.UUID, periodKey string) (int64, error)
}

// Tx is the transactional view passed to WithUserLock callbacks.
// There is no update or delete: the ledger is append-only.
type Tx interface {
	Reader

	// InsertProject stores a new project row.
	InsertProject(ctx context.Context, p Project) error

	// AppendLedgerEntry stores a new ledger entry.
	// Returns ErrDuplicateLedgerEntry if the project already has one.
	AppendLedgerEntry(ctx context.Context, e LedgerEntry) error
}

// Store persists projects and the credit ledger.
type Store interface {
	Reader

	// WithUserLock runs fn in a single transaction that holds an exclusive
	// lock scoped to userID until commit or rollback. The transaction is
	// committed only if fn returns nil.
	WithUserLock(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx Tx) error) error

	// ListLedgerEntries returns up to limit of the user's entries, newest first.
	ListLedgerEntries(ctx context.Context, userID uuid.UUID, limit int) ([]LedgerEntry, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}
