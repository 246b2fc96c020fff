// Package pgstore is the PostgreSQL implementation of entitlement.Store.
//
// WithUserLock opens a READ COMMITTED transaction and takes
// pg_advisory_xact_lock keyed by the user ID before running the callback.
// Every statement after the lock sees all consumptions committed by earlier
// holders, so the aggregate limit check cannot race. The lock is released by
// commit or rollback; a disconnected caller rolls back.
package pgstore

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/projectquota/pkg/entitlement"
	"github.com/dmitrymomot/projectquota/pkg/pg"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the goose migrations for this store.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(fmt.Sprintf("pgstore: embedded migrations: %v", err))
	}
	return sub
}

// Store persists projects and the credit ledger in PostgreSQL.
type Store struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout bounds how long WithUserLock waits for the user's lock.
// Zero waits indefinitely.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.lockTimeout = d
		}
	}
}

// New returns a Store backed by pool.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	if pool == nil {
		panic("pgstore: pool is required")
	}
	s := &Store{pool: pool, lockTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ entitlement.Store = (*Store)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) UserPlanCode(ctx context.Context, userID uuid.UUID) (entitlement.PlanCode, error) {
	return reader{q: s.pool}.UserPlanCode(ctx, userID)
}

func (s *Store) CountLedgerEntries(ctx context.Context, userID uuid.UUID, filter entitlement.LedgerFilter) (int64, error) {
	return reader{q: s.pool}.CountLedgerEntries(ctx, userID, filter)
}

func (s *Store) CountUnledgeredProjects(ctx context.Context, userID uuid.UUID) (int64, error) {
	return reader{q: s.pool}.CountUnledgeredProjects(ctx, userID)
}

func (s *Store) CountApprovedReferrals(ctx context.Context, userID uuid.UUID, periodKey string) (int64, error) {
	return reader{q: s.pool}.CountApprovedReferrals(ctx, userID, periodKey)
}

// WithUserLock implements entitlement.Store.
func (s *Store) WithUserLock(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx entitlement.Tx) error) (err error) {
	pgTx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	defer func() {
		if err != nil {
			// The caller's context may already be cancelled; rollback must still run.
			_ = pgTx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err = pgTx.Exec(ctx, stmt); err != nil {
			return wrapErr("set lock timeout", err)
		}
	}

	if _, err = pgTx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, userID.String()); err != nil {
		return wrapErr("acquire user lock", err)
	}

	if err = fn(ctx, txView{reader: reader{q: pgTx}, tx: pgTx}); err != nil {
		return err
	}

	if err = pgTx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}

// ListLedgerEntries implements entitlement.Store.
func (s *Store) ListLedgerEntries(ctx context.Context, userID uuid.UUID, limit int) ([]entitlement.LedgerEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, project_id, type, period_key, created_at
		FROM credit_ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, wrapErr("list ledger entries", err)
	}
	defer rows.Close()

	var entries []entitlement.LedgerEntry
	for rows.Next() {
		var (
			e   entitlement.LedgerEntry
			typ string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProjectID, &typ, &e.PeriodKey, &e.CreatedAt); err != nil {
			return nil, wrapErr("scan ledger entry", err)
		}
		if e.Type, err = entitlement.ParseLedgerType(typ); err != nil {
			return nil, err
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list ledger entries", err)
	}
	return entries, nil
}

// Ping implements entitlement.Store.
func (s *Store) Ping(ctx context.Context) error {
	return pg.Healthcheck(s.pool)(ctx)
}

type reader struct {
	q querier
}

func (r reader) UserPlanCode(ctx context.Context, userID uuid.UUID) (entitlement.PlanCode, error) {
	var code string
	err := r.q.QueryRow(ctx, `SELECT plan_code FROM user_accounts WHERE id = $1`, userID).Scan(&code)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return "", entitlement.ErrUserNotFound
		}
		return "", wrapErr("get user plan", err)
	}
	return entitlement.PlanCode(code), nil
}

func (r reader) CountLedgerEntries(ctx context.Context, userID uuid.UUID, filter entitlement.LedgerFilter) (int64, error) {
	if !filter.Type.Valid() {
		return 0, entitlement.ErrInvalidLedgerType
	}

	var n int64
	err := r.q.QueryRow(ctx, `
		SELECT count(*)
		FROM credit_ledger_entries
		WHERE user_id = $1
		  AND type = $2
		  AND ($3 = '' OR period_key = $3)`,
		userID, filter.Type.String(), filter.PeriodKey,
	).Scan(&n)
	if err != nil {
		return 0, wrapErr("count ledger entries", err)
	}
	return n, nil
}

func (r reader) CountUnledgeredProjects(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		SELECT count(*)
		FROM projects p
		WHERE p.user_id = $1
		  AND NOT EXISTS (SELECT 1 FROM credit_ledger_entries e WHERE e.project_id = p.id)`,
		userID,
	).Scan(&n)
	if err != nil {
		return 0, wrapErr("count unledgered projects", err)
	}
	return n, nil
}

func (r reader) CountApprovedReferrals(ctx context.Context, userID uuid.UUID, periodKey string) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		SELECT count(*)
		FROM referrals
		WHERE referrer_user_id = $1
		  AND status = 'APPROVED'
		  AND period_key = $2`,
		userID, periodKey,
	).Scan(&n)
	if err != nil {
		return 0, wrapErr("count approved referrals", err)
	}
	return n, nil
}

type txView struct {
	reader
	tx pgx.Tx
}

func (t txView) InsertProject(ctx context.Context, p entitlement.Project) error {
	var payload any
	if len(p.Payload) > 0 {
		payload = json.RawMessage(p.Payload)
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO projects (id, user_id, name, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.UserID, p.Name, payload, p.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert project", err)
	}
	return nil
}

func (t txView) AppendLedgerEntry(ctx context.Context, e entitlement.LedgerEntry) error {
	if !e.Type.Valid() {
		return entitlement.ErrInvalidLedgerType
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO credit_ledger_entries (id, user_id, project_id, type, period_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.UserID, e.ProjectID, e.Type.String(), e.PeriodKey, e.CreatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return errors.Join(entitlement.ErrDuplicateLedgerEntry, err)
		}
		return wrapErr("append ledger entry", err)
	}
	return nil
}

// wrapErr marks transient driver failures with ErrStorageUnavailable so
// callers know the whole operation can be retried.
func wrapErr(op string, err error) error {
	wrapped := fmt.Errorf("pgstore: %s: %w", op, err)
	if pg.IsTransientError(err) {
		return errors.Join(entitlement.ErrStorageUnavailable, wrapped)
	}
	return wrapped
}
