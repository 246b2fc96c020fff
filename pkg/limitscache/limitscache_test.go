package limitscache_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/projectquota/pkg/entitlement"
	"github.com/dmitrymomot/projectquota/pkg/entitlement/sqlitestore"
	"github.com/dmitrymomot/projectquota/pkg/limitscache"
	"github.com/dmitrymomot/projectquota/pkg/period"
)

type env struct {
	store  *sqlitestore.Store
	limits *entitlement.LimitsService
}

func setup(t *testing.T) env {
	t.Helper()
	store, err := sqlitestore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	resolver, err := entitlement.NewPlanResolver(context.Background(), entitlement.NewInMemSource(entitlement.DefaultPlans()))
	require.NoError(t, err)

	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	limits := entitlement.NewLimitsService(resolver, store, period.MustNew(period.DefaultTimezone),
		entitlement.WithClock(func() time.Time { return now }))
	return env{store: store, limits: limits}
}

func (e env) user(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, e.store.UpsertUserAccount(context.Background(), id, entitlement.PlanBasic))
	return id
}

func quiet() limitscache.Option {
	return limitscache.WithLogger(slog.New(slog.DiscardHandler))
}

func TestService_ServesSnapshotUntilInvalidated(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()
	userID := e.user(t)

	cached := limitscache.New(e.limits, limitscache.NewMemoryBackend(100, time.Minute), quiet())
	gate := entitlement.NewGate(e.store, e.limits,
		entitlement.WithLogger(slog.New(slog.DiscardHandler)),
		entitlement.WithAfterCommit(cached.AfterCommit()),
	)

	first, err := cached.GetLimits(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.Limited(3), first.BaseRemaining)

	require.NoError(t, e.store.InsertReferral(ctx, sqlitestore.Referral{
		ReferrerUserID: userID, Status: entitlement.ReferralApproved, PeriodKey: "2025-03",
	}))

	stale, err := cached.GetLimits(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first, stale, "snapshot is served until it expires or is invalidated")

	_, err = gate.TryConsume(ctx, userID, entitlement.ProjectPayload{Name: "p"})
	require.NoError(t, err)

	fresh, err := cached.GetLimits(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.BonusGranted)
	assert.Equal(t, int64(1), fresh.BonusUsed)
	assert.Equal(t, entitlement.Limited(3), fresh.BaseRemaining)
}

func TestService_UnlimitedSurvivesRoundTrip(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()
	userID := uuid.New()
	require.NoError(t, e.store.UpsertUserAccount(ctx, userID, entitlement.PlanEnterprise))

	cached := limitscache.New(e.limits, limitscache.NewMemoryBackend(100, time.Minute), quiet())

	miss, err := cached.GetLimits(ctx, userID)
	require.NoError(t, err)
	hit, err := cached.GetLimits(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, miss, hit)
	assert.True(t, hit.IsUnlimited())
}

func TestService_PlanNotFoundIsNotCached(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	cached := limitscache.New(e.limits, limitscache.NewMemoryBackend(100, time.Minute), quiet())
	userID := uuid.New()

	_, err := cached.GetLimits(ctx, userID)
	require.ErrorIs(t, err, entitlement.ErrPlanNotFound)

	require.NoError(t, e.store.UpsertUserAccount(ctx, userID, entitlement.PlanPro))
	limits, err := cached.GetLimits(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.PlanPro, limits.PlanCode)
}

type brokenBackend struct{}

func (brokenBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenBackend) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (brokenBackend) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

type garbageBackend struct{}

func (garbageBackend) Get(context.Context, string) ([]byte, bool, error) {
	return []byte("{not json"), true, nil
}

func (garbageBackend) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (garbageBackend) Delete(context.Context, string) error { return nil }

func TestService_FallsBackToStore(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()
	userID := e.user(t)

	for name, backend := range map[string]limitscache.Backend{
		"backend errors":    brokenBackend{},
		"corrupt snapshots": garbageBackend{},
	} {
		t.Run(name, func(t *testing.T) {
			cached := limitscache.New(e.limits, backend, quiet())
			limits, err := cached.GetLimits(ctx, userID)
			require.NoError(t, err)
			assert.Equal(t, entitlement.PlanBasic, limits.PlanCode)
			cached.Invalidate(ctx, userID, limits.PeriodKey)
		})
	}
}

func TestService_UnreachableRedis(t *testing.T) {
	t.Parallel()
	e := setup(t)
	userID := e.user(t)

	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	cached := limitscache.New(e.limits, limitscache.NewRedisBackend(client), quiet())
	limits, err := cached.GetLimits(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.Limited(3), limits.BaseQuota)
}

func TestService_Redis(t *testing.T) {
	t.Parallel()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)
	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	e := setup(t)
	ctx := context.Background()
	userID := e.user(t)

	prefix := "projectquota:test:" + uuid.NewString() + ":"
	cached := limitscache.New(e.limits, limitscache.NewRedisBackend(client), quiet(), limitscache.WithKeyPrefix(prefix))

	first, err := cached.GetLimits(ctx, userID)
	require.NoError(t, err)

	n, err := client.Exists(ctx, prefix+userID.String()+":"+first.PeriodKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	second, err := cached.GetLimits(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	cached.Invalidate(ctx, userID, first.PeriodKey)
	n, err = client.Exists(ctx, prefix+userID.String()+":"+first.PeriodKey).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNew_Panics(t *testing.T) {
	t.Parallel()
	e := setup(t)

	assert.Panics(t, func() { limitscache.New(nil, limitscache.NewMemoryBackend(1, time.Second)) })
	assert.Panics(t, func() { limitscache.New(e.limits, nil) })
	assert.Panics(t, func() { limitscache.NewRedisBackend(nil) })
}
