package entitlement

import (
	"context"

	"github.com/google/uuid"
)

// LifetimeBaseConsumed returns how many base credits the user has spent:
// BASE ledger entries plus projects that predate the ledger.
func LifetimeBaseConsumed(ctx context.Context, r Reader, userID uuid.UUID) (int64, error) {
	ledgered, err := r.CountLedgerEntries(ctx, userID, LedgerFilter{Type: LedgerBase})
	if err != nil {
		return 0, err
	}

	legacy, err := r.CountUnledgeredProjects(ctx, userID)
	if err != nil {
		return 0, err
	}

	return ledgered + legacy, nil
}

// BonusConsumed returns how many bonus credits the user spent in periodKey.
func BonusConsumed(ctx context.Context, r Reader, userID uuid.UUID, periodKey string) (int64, error) {
	return r.CountLedgerEntries(ctx, userID, LedgerFilter{Type: LedgerBonusMonthly, PeriodKey: periodKey})
}
