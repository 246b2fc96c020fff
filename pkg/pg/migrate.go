package pg

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// logger is the subset of *slog.Logger used for migration output.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MigrationState describes one migration for status reports.
type MigrationState struct {
	Version int64
	Path    string
	Applied bool
}

// Migrate applies all pending goose migrations found in fsys.
// fsys must have the .sql files at its root.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, log logger) error {
	return withProvider(ctx, pool, fsys, log, func(p *goose.Provider) error {
		results, err := p.Up(ctx)
		for _, r := range results {
			if r.Error != nil {
				continue
			}
			log.InfoContext(ctx, "migration applied",
				"version", r.Source.Version,
				"path", r.Source.Path,
				"duration", r.Duration,
			)
		}
		return err
	})
}

// Status returns the state of every migration in fsys.
func Status(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, log logger) ([]MigrationState, error) {
	var states []MigrationState
	err := withProvider(ctx, pool, fsys, log, func(p *goose.Provider) error {
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			states = append(states, MigrationState{
				Version: s.Source.Version,
				Path:    s.Source.Path,
				Applied: s.State == goose.StateApplied,
			})
		}
		return nil
	})
	return states, err
}

// withProvider bridges the pgx pool to database/sql, which goose requires.
func withProvider(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, log logger, fn func(*goose.Provider) error) error {
	if fsys == nil {
		return errors.Join(ErrFailedToApplyMigrations, ErrMigrationsNotProvided)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "failed to close migration connection", "error", err)
		}
	}(db)

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	if err := fn(provider); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}
