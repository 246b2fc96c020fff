package limitscache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/projectquota/pkg/entitlement"
	"github.com/dmitrymomot/projectquota/pkg/logger"
)

const (
	DefaultTTL    = 30 * time.Second
	defaultPrefix = "projectquota:limits:"
)

// Service serves advisory limits snapshots from a cache in front of
// entitlement.LimitsService. Cache failures fall back to the store and never
// fail the request.
type Service struct {
	limits  *entitlement.LimitsService
	backend Backend
	ttl     time.Duration
	prefix  string
	log     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTTL sets how long a snapshot may be served. Referral approvals are
// only picked up when the snapshot expires.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces cache keys.
func WithKeyPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New wraps limits with backend. Panics on nil arguments.
func New(limits *entitlement.LimitsService, backend Backend, opts ...Option) *Service {
	if limits == nil {
		panic("limitscache: LimitsService is required")
	}
	if backend == nil {
		panic("limitscache: Backend is required")
	}
	s := &Service{
		limits:  limits,
		backend: backend,
		ttl:     DefaultTTL,
		prefix:  defaultPrefix,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetLimits returns the user's limits in the current period.
func (s *Service) GetLimits(ctx context.Context, userID uuid.UUID) (entitlement.Limits, error) {
	key := s.key(userID, s.limits.CurrentPeriodKey())

	data, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.log.WarnContext(ctx, "limits cache read failed", logger.Error(err), logger.UserID(userID), logger.Component("limitscache"))
	}
	if ok {
		var cached entitlement.Limits
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		s.log.WarnContext(ctx, "discarding undecodable limits snapshot", logger.UserID(userID), logger.Component("limitscache"))
	}

	limits, err := s.limits.GetLimits(ctx, userID)
	if err != nil {
		return entitlement.Limits{}, err
	}

	if data, err := json.Marshal(limits); err == nil {
		if err := s.backend.Set(ctx, s.key(userID, limits.PeriodKey), data, s.ttl); err != nil {
			s.log.WarnContext(ctx, "limits cache write failed", logger.Error(err), logger.UserID(userID), logger.Component("limitscache"))
		}
	}
	return limits, nil
}

// Invalidate drops the user's snapshot for periodKey.
func (s *Service) Invalidate(ctx context.Context, userID uuid.UUID, periodKey string) {
	if err := s.backend.Delete(ctx, s.key(userID, periodKey)); err != nil {
		s.log.WarnContext(ctx, "limits cache invalidation failed",
			logger.Error(err),
			logger.UserID(userID),
			logger.PeriodKey(periodKey),
			logger.Component("limitscache"),
		)
	}
}

// AfterCommit returns a Gate hook that invalidates the snapshot of the
// period a consumption was recorded in.
func (s *Service) AfterCommit() entitlement.AfterCommitFunc {
	return func(ctx context.Context, userID uuid.UUID, receipt entitlement.Receipt) {
		s.Invalidate(context.WithoutCancel(ctx), userID, receipt.PeriodKey)
	}
}

func (s *Service) key(userID uuid.UUID, periodKey string) string {
	return s.prefix + userID.String() + ":" + periodKey
}
