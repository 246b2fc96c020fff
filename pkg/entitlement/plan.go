package entitlement

import (
	"errors"
	"fmt"
)

// Plan is immutable reference data: a plan code and its lifetime base quota.
type Plan struct {
	Code      PlanCode
	Name      string
	BaseQuota Quota
}

// DefaultPlans returns the built-in plan catalog.
func DefaultPlans() map[PlanCode]Plan {
	return map[PlanCode]Plan{
		PlanBasic: {
			Code:      PlanBasic,
			Name:      "Basic",
			BaseQuota: Limited(3),
		},
		PlanPro: {
			Code:      PlanPro,
			Name:      "Pro",
			BaseQuota: Limited(20),
		},
		PlanEnterprise: {
			Code:      PlanEnterprise,
			Name:      "Enterprise",
			BaseQuota: Unlimited(),
		},
	}
}

// validatePlans checks plan configurations for validity.
func validatePlans(plans map[PlanCode]Plan) error {
	if len(plans) == 0 {
		return errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("plan catalog is empty"))
	}
	for code, plan := range plans {
		if !code.Valid() {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("unknown plan code %q", code))
		}
		if plan.Code != code {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s is registered under code %s", plan.Code, code))
		}
		if !plan.BaseQuota.IsSet() {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has no base quota", code))
		}
	}
	return nil
}
