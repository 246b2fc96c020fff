// Package entitlement decides whether a user may create a project and records
// every accepted decision in an append-only credit ledger.
//
// Three kinds of entitlement are combined into one decision:
//
//   - Unlimited tier: plans whose base quota is Unlimited() never run out.
//   - Base quota: a lifetime allowance tied to the plan, never replenished.
//   - Monthly bonus: one credit per approved referral in the current period,
//     spent before base credits and lost when the period ends.
//
// Key types:
//
//   - PlanResolver: maps a user to a Plan from the plan catalog (Source).
//   - LimitsService: read-only Limits snapshot, safe to call for UI rendering.
//   - Gate: the only writer. TryConsume runs the limit check and both inserts
//     inside one Store transaction that holds a per-user lock.
//   - Store: persistence contract; see the pgstore and sqlitestore packages.
//
// Basic usage:
//
//	resolver, err := entitlement.NewPlanResolver(ctx, entitlement.NewInMemSource(entitlement.DefaultPlans()))
//	if err != nil {
//		return err
//	}
//	limits := entitlement.NewLimitsService(resolver, store, period.MustNew("America/New_York"))
//	gate := entitlement.NewGate(store, limits, entitlement.WithLogger(log))
//
//	receipt, err := gate.TryConsume(ctx, userID, entitlement.ProjectPayload{Name: "Warehouse"})
//	switch {
//	case errors.Is(err, entitlement.ErrLimitReached):
//		// business rejection: ask the user to upgrade or wait for the next period
//	case err != nil:
//		// configuration or storage failure
//	}
//
// Lifetime base consumption counts BASE ledger entries plus projects that
// have no ledger entry at all. The second term only covers projects created
// before the ledger existed; a project created through the Gate always has
// exactly one entry, so no consumption is counted twice.
package entitlement
