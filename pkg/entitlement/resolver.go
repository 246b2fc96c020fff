package entitlement

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"
)

// PlanResolver maps a user to their plan.
// The catalog is treated as immutable after construction.
type PlanResolver struct {
	plans map[PlanCode]Plan
}

// NewPlanResolver loads and validates the plan catalog from src.
func NewPlanResolver(ctx context.Context, src Source) (*PlanResolver, error) {
	if src == nil {
		panic("entitlement: plan Source is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	if err := validatePlans(plans); err != nil {
		return nil, err
	}

	return &PlanResolver{plans: plans}, nil
}

// Resolve returns the user's plan as seen through r.
// A user without an account or with a code missing from the catalog yields
// ErrPlanNotFound; it is never treated as zero quota.
func (pr *PlanResolver) Resolve(ctx context.Context, r Reader, userID uuid.UUID) (Plan, error) {
	code, err := r.UserPlanCode(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Plan{}, errors.Join(ErrPlanNotFound, err)
		}
		return Plan{}, err
	}

	plan, ok := pr.plans[code]
	if !ok {
		return Plan{}, errors.Join(ErrPlanNotFound, fmt.Errorf("plan code %q is not in the catalog", code))
	}
	return plan, nil
}

// Plan returns the catalog entry for code.
func (pr *PlanResolver) Plan(code PlanCode) (Plan, bool) {
	plan, ok := pr.plans[code]
	return plan, ok
}

// Plans returns a copy of the catalog.
func (pr *PlanResolver) Plans() map[PlanCode]Plan {
	return maps.Clone(pr.plans)
}
