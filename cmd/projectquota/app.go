package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/projectquota/pkg/config"
	"github.com/dmitrymomot/projectquota/pkg/entitlement"
	"github.com/dmitrymomot/projectquota/pkg/entitlement/pgstore"
	"github.com/dmitrymomot/projectquota/pkg/entitlement/sqlitestore"
	"github.com/dmitrymomot/projectquota/pkg/logger"
	"github.com/dmitrymomot/projectquota/pkg/period"
	"github.com/dmitrymomot/projectquota/pkg/pg"
	"github.com/dmitrymomot/projectquota/pkg/requestid"
)

const serviceName = "projectquota"

var errUnknownDriver = errors.New("unknown STORE_DRIVER, expected postgres or sqlite")

// app holds the dependencies shared by commands.
type app struct {
	cfg    appConfig
	log    *slog.Logger
	store  entitlement.Store
	sqlite *sqlitestore.Store // set when STORE_DRIVER=sqlite
	pool   *pgxpool.Pool      // set when STORE_DRIVER=postgres
	limits *entitlement.LimitsService

	closers []func()
}

func loadAppConfig() (appConfig, error) {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return cfg, err
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return cfg, nil
}

func newLogger(cfg appConfig) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, serviceName),
		logger.WithOutput(os.Stderr),
		logger.WithContextExtractors(requestid.LogExtractor()),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	log := logger.New(opts...)
	logger.SetAsDefault(log)
	return log
}

// newApp opens the store and builds the limits service. PostgreSQL
// migrations are applied only when migrate is true; SQLite always
// migrates on open.
func newApp(ctx context.Context, migrate bool) (*app, error) {
	cfg, err := loadAppConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: newLogger(cfg)}

	if err := a.openStore(ctx, migrate); err != nil {
		a.close()
		return nil, err
	}

	src := entitlement.NewInMemSource(entitlement.DefaultPlans())
	if cfg.PlansFile != "" {
		src = entitlement.NewYAMLSource(cfg.PlansFile)
	}
	resolver, err := entitlement.NewPlanResolver(ctx, src)
	if err != nil {
		a.close()
		return nil, err
	}

	periods, err := period.New(cfg.timezone())
	if err != nil {
		a.close()
		return nil, err
	}

	a.limits = entitlement.NewLimitsService(resolver, a.store, periods)
	return a, nil
}

func (a *app) openStore(ctx context.Context, migrate bool) error {
	switch a.cfg.StoreDriver {
	case driverSQLite:
		store, err := sqlitestore.Open(ctx, a.cfg.SQLitePath)
		if err != nil {
			return err
		}
		a.sqlite = store
		a.store = store
		a.closers = append(a.closers, func() { _ = store.Close() })
		a.log.InfoContext(ctx, "sqlite store opened", slog.String("path", a.cfg.SQLitePath))
		return nil

	case driverPostgres:
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		a.pool = pool
		a.closers = append(a.closers, pool.Close)

		if migrate {
			if err := pg.Migrate(ctx, pool, pgstore.Migrations(), a.log); err != nil {
				return err
			}
		}
		a.store = pgstore.New(pool, pgstore.WithLockTimeout(pgCfg.LockTimeout))
		a.log.InfoContext(ctx, "postgres store connected")
		return nil
	}

	return fmt.Errorf("%w: %q", errUnknownDriver, a.cfg.StoreDriver)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
