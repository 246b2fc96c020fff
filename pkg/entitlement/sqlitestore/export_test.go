package sqlitestore

import (
	"context"

	"github.com/dmitrymomot/projectquota/pkg/entitlement"
)

// ExecForTest runs a raw statement inside a WithUserLock transaction.
func ExecForTest(ctx context.Context, tx entitlement.Tx, query string, args ...any) error {
	_, err := tx.(txView).tx.ExecContext(ctx, query, args...)
	return err
}
