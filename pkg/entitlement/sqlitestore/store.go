// Package sqlitestore is the SQLite implementation of entitlement.Store,
// used for local development, the CLI and tests.
//
// The database handle is limited to one connection and every transaction is
// opened with BEGIN IMMEDIATE, so WithUserLock callbacks are fully
// serialized. That is stricter than a per-user lock and gives the same
// guarantee.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/dmitrymomot/projectquota/pkg/entitlement"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	ErrEmptyPath               = errors.New("sqlitestore: storage path is required")
	ErrFailedToOpen            = errors.New("sqlitestore: failed to open database")
	ErrFailedToApplyMigrations = errors.New("sqlitestore: failed to apply migrations")
)

// Store persists projects and the credit ledger in SQLite.
type Store struct {
	db *sql.DB
}

var _ entitlement.Store = (*Store)(nil)

// Open opens the database at path and applies embedded migrations.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrEmptyPath
	}
	if path != ":memory:" {
		path = filepath.Clean(path)
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Join(ErrFailedToOpen, err)
	}
	// One connection: an in-memory database lives and dies with it, and
	// writers never contend with each other.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrFailedToOpen, err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	provider, err := s.provider()
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}

func (s *Store) provider() (*goose.Provider, error) {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
}

// SchemaVersion returns the applied schema version and the latest
// embedded one. They match for any Store returned by Open.
func (s *Store) SchemaVersion(ctx context.Context) (current, latest int64, err error) {
	provider, err := s.provider()
	if err != nil {
		return 0, 0, err
	}
	current, err = provider.GetDBVersion(ctx)
	if err != nil {
		return 0, 0, wrapErr("schema version", err)
	}
	sources := provider.ListSources()
	if len(sources) > 0 {
		latest = sources[len(sources)-1].Version
	}
	return current, latest, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) UserPlanCode(ctx context.Context, userID uuid.UUID) (entitlement.PlanCode, error) {
	return reader{q: s.db}.UserPlanCode(ctx, userID)
}

func (s *Store) CountLedgerEntries(ctx context.Context, userID uuid.UUID, filter entitlement.LedgerFilter) (int64, error) {
	return reader{q: s.db}.CountLedgerEntries(ctx, userID, filter)
}

func (s *Store) CountUnledgeredProjects(ctx context.Context, userID uuid.UUID) (int64, error) {
	return reader{q: s.db}.CountUnledgeredProjects(ctx, userID)
}

func (s *Store) CountApprovedReferrals(ctx context.Context, userID uuid.UUID, periodKey string) (int64, error) {
	return reader{q: s.db}.CountApprovedReferrals(ctx, userID, periodKey)
}

// CountProjects counts all of the user's projects, ledgered or not.
func (s *Store) CountProjects(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM projects WHERE user_id = ?`, userID.String()).Scan(&n)
	if err != nil {
		return 0, wrapErr("count projects", err)
	}
	return n, nil
}

// WithUserLock implements entitlement.Store.
func (s *Store) WithUserLock(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx entitlement.Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(ctx, txView{reader: reader{q: sqlTx}, tx: sqlTx}); err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}

// ListLedgerEntries implements entitlement.Store.
func (s *Store) ListLedgerEntries(ctx context.Context, userID uuid.UUID, limit int) ([]entitlement.LedgerEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, project_id, type, period_key, created_at
		FROM credit_ledger_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, userID.String(), limit)
	if err != nil {
		return nil, wrapErr("list ledger entries", err)
	}
	defer rows.Close()

	var entries []entitlement.LedgerEntry
	for rows.Next() {
		var (
			e         entitlement.LedgerEntry
			typ       string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProjectID, &typ, &e.PeriodKey, &createdAt); err != nil {
			return nil, wrapErr("scan ledger entry", err)
		}
		if e.Type, err = entitlement.ParseLedgerType(typ); err != nil {
			return nil, err
		}
		e.CreatedAt = fromMillis(createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list ledger entries", err)
	}
	return entries, nil
}

// Ping implements entitlement.Store.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return wrapErr("ping", err)
	}
	return nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type reader struct {
	q querier
}

func (r reader) UserPlanCode(ctx context.Context, userID uuid.UUID) (entitlement.PlanCode, error) {
	var code string
	err := r.q.QueryRowContext(ctx, `SELECT plan_code FROM user_accounts WHERE id = ?`, userID.String()).Scan(&code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	err := r.q.QueryRowContext(ctx, `
		SELECT count(*)
		FROM credit_ledger_entries
		WHERE user_id = ?1
		  AND type = ?2
		  AND (?3 = '' OR period_key = ?3)`,
		userID.String(), filter.Type.String(), filter.PeriodKey,
	).Scan(&n)
	if err != nil {
		return 0, wrapErr("count ledger entries", err)
	}
	return n, nil
}

func (r reader) CountUnledgeredProjects(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `
		SELECT count(*)
		FROM projects p
		WHERE p.user_id = ?
		  AND NOT EXISTS (SELECT 1 FROM credit_ledger_entries e WHERE e.project_id = p.id)`,
		userID.String(),
	).Scan(&n)
	if err != nil {
		return 0, wrapErr("count unledgered projects", err)
	}
	return n, nil
}

func (r reader) CountApprovedReferrals(ctx context.Context, userID uuid.UUID, periodKey string) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `
		SELECT count(*)
		FROM referrals
		WHERE referrer_user_id = ?
		  AND status = 'APPROVED'
		  AND period_key = ?`,
		userID.String(), periodKey,
	).Scan(&n)
	if err != nil {
		return 0, wrapErr("count approved referrals", err)
	}
	return n, nil
}

type txView struct {
	reader
	tx *sql.Tx
}

func (t txView) InsertProject(ctx context.Context, p entitlement.Project) error {
	var payload any
	if len(p.Payload) > 0 {
		payload = string(p.Payload)
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO projects (id, user_id, name, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID.String(), p.UserID.String(), p.Name, payload, toMillis(p.CreatedAt),
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
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO credit_ledger_entries (id, user_id, project_id, type, period_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.UserID.String(), e.ProjectID.String(), e.Type.String(), e.PeriodKey, toMillis(e.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Join(entitlement.ErrDuplicateLedgerEntry, err)
		}
		return wrapErr("append ledger entry", err)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func isBusy(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code() & 0xff
	return code == sqlite3lib.SQLITE_BUSY || code == sqlite3lib.SQLITE_LOCKED
}

func wrapErr(op string, err error) error {
	wrapped := fmt.Errorf("sqlitestore: %s: %w", op, err)
	if isBusy(err) {
		return errors.Join(entitlement.ErrStorageUnavailable, wrapped)
	}
	return wrapped
}
