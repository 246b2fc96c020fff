// Package pg bootstraps the PostgreSQL layer on top of pgx/v5: a retrying
// connection pool, goose migrations from an embedded filesystem, a health
// check and helpers that classify driver errors.
//
// Usage:
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations(), log); err != nil {
//		return err
//	}
//
// Error helpers:
//
//   - IsDuplicateKeyError / IsForeignKeyViolationError map constraint failures.
//   - IsTransientError reports failures after which the whole transaction can
//     be retried: serialization failures, deadlocks, lock timeouts and lost
//     connections.
package pg
