package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/projectquota/pkg/period"
)

// Clock returns the current time. Injected so period boundaries are testable.
type Clock func() time.Time

// LimitsService computes Limits snapshots. It never writes.
type LimitsService struct {
	resolver *PlanResolver
	store    Reader
	periods  period.Calculator
	clock    Clock
}

// LimitsOption configures a LimitsService.
type LimitsOption func(*LimitsService)

// WithClock overrides the wall clock used to derive the current period.
func WithClock(clock Clock) LimitsOption {
	return func(s *LimitsService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewLimitsService creates a LimitsService reading from store.
// Panics if resolver or store is nil to fail fast during initialization.
func NewLimitsService(resolver *PlanResolver, store Reader, periods period.Calculator, opts ...LimitsOption) *LimitsService {
	if resolver == nil {
		panic("entitlement: PlanResolver is required")
	}
	if store == nil {
		panic("entitlement: Reader is required")
	}
	if periods.Location() == nil {
		panic("entitlement: period calculator is not initialized")
	}

	s := &LimitsService{
		resolver: resolver,
		store:    store,
		periods:  periods,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentPeriodKey returns the period key for the service clock's current time.
func (s *LimitsService) CurrentPeriodKey() string {
	return s.periods.Key(s.clock())
}

// Periods returns the period calculator.
func (s *LimitsService) Periods() period.Calculator {
	return s.periods
}

// GetLimits returns the user's limits in the current period.
// Reads run outside any lock, so the result is advisory.
func (s *LimitsService) GetLimits(ctx context.Context, userID uuid.UUID) (Limits, error) {
	return s.LimitsAt(ctx, s.store, userID, s.CurrentPeriodKey())
}

// LimitsAt computes limits for periodKey using the read view r.
// The Gate passes its transaction here so the decision and the inserts share
// one snapshot.
func (s *LimitsService) LimitsAt(ctx context.Context, r Reader, userID uuid.UUID, periodKey string) (Limits, error) {
	plan, err := s.resolver.Resolve(ctx, r, userID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return Limits{}, err
		}
		return Limits{}, errors.Join(ErrFailedToComputeLimits, err)
	}

	baseUsed, err := LifetimeBaseConsumed(ctx, r, userID)
	if err != nil {
		return Limits{}, errors.Join(ErrFailedToComputeLimits, err)
	}

	bonusGranted, err := r.CountApprovedReferrals(ctx, userID, periodKey)
	if err != nil {
		return Limits{}, errors.Join(ErrFailedToComputeLimits, err)
	}

	bonusUsed, err := BonusConsumed(ctx, r, userID, periodKey)
	if err != nil {
		return Limits{}, errors.Join(ErrFailedToComputeLimits, err)
	}

	return Limits{
		PlanCode:       plan.Code,
		PeriodKey:      periodKey,
		BaseQuota:      plan.BaseQuota,
		BaseUsed:       baseUsed,
		BaseRemaining:  plan.BaseQuota.Remaining(baseUsed),
		BonusGranted:   bonusGranted,
		BonusUsed:      bonusUsed,
		BonusRemaining: max(bonusGranted-bonusUsed, 0),
	}, nil
}
