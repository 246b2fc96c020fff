package sqlitestore_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/projectquota/pkg/entitlement"
	"github.com/dmitrymomot/projectquota/pkg/entitlement/sqlitestore"
)

func openStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	store, err := sqlitestore.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func insertConsumption(t *testing.T, store *sqlitestore.Store, userID uuid.UUID, typ entitlement.LedgerType, periodKey string, at time.Time) entitlement.LedgerEntry {
	t.Helper()
	project := entitlement.Project{ID: uuid.New(), UserID: userID, Name: "p", CreatedAt: at}
	entry := entitlement.LedgerEntry{
		ID:        uuid.New(),
		UserID:    userID,
		ProjectID: project.ID,
		Type:      typ,
		PeriodKey: periodKey,
		CreatedAt: at,
	}
	err := store.WithUserLock(context.Background(), userID, func(ctx context.Context, tx entitlement.Tx) error {
		if err := tx.InsertProject(ctx, project); err != nil {
			return err
		}
		return tx.AppendLedgerEntry(ctx, entry)
	})
	require.NoError(t, err)
	return entry
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		_, err := sqlitestore.Open(context.Background(), "  ")
		assert.ErrorIs(t, err, sqlitestore.ErrEmptyPath)
	})

	t.Run("in memory", func(t *testing.T) {
		t.Parallel()
		store, err := sqlitestore.Open(context.Background(), ":memory:")
		require.NoError(t, err)
		defer store.Close()
		assert.NoError(t, store.Ping(context.Background()))

		current, latest, err := store.SchemaVersion(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(2), latest)
		assert.Equal(t, latest, current)
	})

	t.Run("reopen keeps data", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "ledger.db")
		userID := uuid.New()

		store, err := sqlitestore.Open(context.Background(), path)
		require.NoError(t, err)
		require.NoError(t, store.UpsertUserAccount(context.Background(), userID, entitlement.PlanPro))
		require.NoError(t, store.Close())

		store, err = sqlitestore.Open(context.Background(), path)
		require.NoError(t, err)
		defer store.Close()

		code, err := store.UserPlanCode(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, entitlement.PlanPro, code)
	})
}

func TestUserPlanCode(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	_, err := store.UserPlanCode(ctx, uuid.New())
	assert.ErrorIs(t, err, entitlement.ErrUserNotFound)

	userID := uuid.New()
	require.NoError(t, store.UpsertUserAccount(ctx, userID, entitlement.PlanBasic))
	require.NoError(t, store.UpsertUserAccount(ctx, userID, entitlement.PlanEnterprise))

	code, err := store.UserPlanCode(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.PlanEnterprise, code)
}

func TestCountLedgerEntries(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	insertConsumption(t, store, userID, entitlement.LedgerBase, "2025-02", now)
	insertConsumption(t, store, userID, entitlement.LedgerBase, "2025-03", now)
	insertConsumption(t, store, userID, entitlement.LedgerBonusMonthly, "2025-03", now)
	insertConsumption(t, store, uuid.New(), entitlement.LedgerBase, "2025-03", now)

	tests := []struct {
		name   string
		filter entitlement.LedgerFilter
		want   int64
	}{
		{"base all periods", entitlement.LedgerFilter{Type: entitlement.LedgerBase}, 2},
		{"base one period", entitlement.LedgerFilter{Type: entitlement.LedgerBase, PeriodKey: "2025-03"}, 1},
		{"bonus one period", entitlement.LedgerFilter{Type: entitlement.LedgerBonusMonthly, PeriodKey: "2025-03"}, 1},
		{"bonus other period", entitlement.LedgerFilter{Type: entitlement.LedgerBonusMonthly, PeriodKey: "2025-02"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := store.CountLedgerEntries(ctx, userID, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}

	_, err := store.CountLedgerEntries(ctx, userID, entitlement.LedgerFilter{})
	assert.ErrorIs(t, err, entitlement.ErrInvalidLedgerType)
}

func TestCountApprovedReferrals(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()
	userID := uuid.New()

	for _, r := range []sqlitestore.Referral{
		{ReferrerUserID: userID, Status: entitlement.ReferralApproved, PeriodKey: "2025-03"},
		{ReferrerUserID: userID, Status: entitlement.ReferralApproved, PeriodKey: "2025-03"},
		{ReferrerUserID: userID, Status: entitlement.ReferralPending, PeriodKey: "2025-03"},
		{ReferrerUserID: userID, Status: entitlement.ReferralRejected, PeriodKey: "2025-03"},
		{ReferrerUserID: userID, Status: entitlement.ReferralApproved, PeriodKey: "2025-02"},
		{ReferrerUserID: uuid.New(), Status: entitlement.ReferralApproved, PeriodKey: "2025-03"},
	} {
		require.NoError(t, store.InsertReferral(ctx, r))
	}

	n, err := store.CountApprovedReferrals(ctx, userID, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = store.CountApprovedReferrals(ctx, userID, "2025-04")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCountUnledgeredProjects(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.InsertLegacyProject(ctx, entitlement.Project{UserID: userID, Name: "old"}))
	insertConsumption(t, store, userID, entitlement.LedgerBase, "2025-03", time.Now())

	n, err := store.CountUnledgeredProjects(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	total, err := store.CountProjects(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestWithUserLock(t *testing.T) {
	t.Parallel()

	t.Run("callback error rolls back", func(t *testing.T) {
		t.Parallel()
		store := openStore(t)
		ctx := context.Background()
		userID := uuid.New()
		boom := errors.New("boom")

		err := store.WithUserLock(ctx, userID, func(ctx context.Context, tx entitlement.Tx) error {
			require.NoError(t, tx.InsertProject(ctx, entitlement.Project{
				ID: uuid.New(), UserID: userID, Name: "p", CreatedAt: time.Now(),
			}))
			return boom
		})
		require.ErrorIs(t, err, boom)

		n, err := store.CountProjects(ctx, userID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("duplicate ledger entry for project", func(t *testing.T) {
		t.Parallel()
		store := openStore(t)
		ctx := context.Background()
		userID := uuid.New()
		entry := insertConsumption(t, store, userID, entitlement.LedgerBase, "2025-03", time.Now())

		err := store.WithUserLock(ctx, userID, func(ctx context.Context, tx entitlement.Tx) error {
			return tx.AppendLedgerEntry(ctx, entitlement.LedgerEntry{
				ID:        uuid.New(),
				UserID:    userID,
				ProjectID: entry.ProjectID,
				Type:      entitlement.LedgerBase,
				PeriodKey: "2025-03",
				CreatedAt: time.Now(),
			})
		})
		assert.ErrorIs(t, err, entitlement.ErrDuplicateLedgerEntry)
	})

	t.Run("ledger entry needs existing project", func(t *testing.T) {
		t.Parallel()
		store := openStore(t)
		ctx := context.Background()
		userID := uuid.New()

		err := store.WithUserLock(ctx, userID, func(ctx context.Context, tx entitlement.Tx) error {
			return tx.AppendLedgerEntry(ctx, entitlement.LedgerEntry{
				ID:        uuid.New(),
				UserID:    userID,
				ProjectID: uuid.New(),
				Type:      entitlement.LedgerBase,
				PeriodKey: "2025-03",
				CreatedAt: time.Now(),
			})
		})
		require.Error(t, err)
		assert.NotErrorIs(t, err, entitlement.ErrDuplicateLedgerEntry)
	})

	t.Run("payload round trip", func(t *testing.T) {
		t.Parallel()
		store := openStore(t)
		ctx := context.Background()
		userID := uuid.New()

		err := store.WithUserLock(ctx, userID, func(ctx context.Context, tx entitlement.Tx) error {
			return tx.InsertProject(ctx, entitlement.Project{
				ID: uuid.New(), UserID: userID, Name: "p",
				Payload:   json.RawMessage(`{"region":"eu"}`),
				CreatedAt: time.Now(),
			})
		})
		require.NoError(t, err)
	})
}

func TestLedgerIsAppendOnly(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()
	userID := uuid.New()
	entry := insertConsumption(t, store, userID, entitlement.LedgerBase, "2025-03", time.Now())

	err := store.WithUserLock(ctx, userID, func(ctx context.Context, tx entitlement.Tx) error {
		return sqlitestore.ExecForTest(ctx, tx, `UPDATE credit_ledger_entries SET type = 'BONUS_MONTHLY' WHERE id = ?`, entry.ID.String())
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append-only")

	err = store.WithUserLock(ctx, userID, func(ctx context.Context, tx entitlement.Tx) error {
		return sqlitestore.ExecForTest(ctx, tx, `DELETE FROM credit_ledger_entries WHERE id = ?`, entry.ID.String())
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append-only")

	n, err := store.CountLedgerEntries(ctx, userID, entitlement.LedgerFilter{Type: entitlement.LedgerBase})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestListLedgerEntries(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()
	userID := uuid.New()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	first := insertConsumption(t, store, userID, entitlement.LedgerBase, "2025-02", start)
	second := insertConsumption(t, store, userID, entitlement.LedgerBonusMonthly, "2025-03", start.Add(time.Hour))
	third := insertConsumption(t, store, userID, entitlement.LedgerBase, "2025-03", start.Add(2*time.Hour))

	entries, err := store.ListLedgerEntries(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, third.ID, entries[0].ID)
	assert.Equal(t, second.ID, entries[1].ID)
	assert.Equal(t, first.ID, entries[2].ID)
	assert.Equal(t, entitlement.LedgerBonusMonthly, entries[1].Type)
	assert.Equal(t, start.Add(time.Hour), entries[1].CreatedAt)

	entries, err = store.ListLedgerEntries(ctx, userID, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = store.ListLedgerEntries(ctx, userID, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
