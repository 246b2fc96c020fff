package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/projectquota/handler"
	"github.com/dmitrymomot/projectquota/modules/projects"
	"github.com/dmitrymomot/projectquota/pkg/config"
	"github.com/dmitrymomot/projectquota/pkg/entitlement"
	"github.com/dmitrymomot/projectquota/pkg/httpserver"
	"github.com/dmitrymomot/projectquota/pkg/jwt"
	"github.com/dmitrymomot/projectquota/pkg/limitscache"
	"github.com/dmitrymomot/projectquota/pkg/logger"
	"github.com/dmitrymomot/projectquota/pkg/redis"
)

func newServeCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  `Serve GET /limits, POST /projects, GET /ledger and GET /healthz until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending PostgreSQL migrations before serving")

	return cmd
}

func runServe(ctx context.Context, migrate bool) error {
	a, err := newApp(ctx, migrate)
	if err != nil {
		return err
	}
	defer a.close()

	tokens, err := jwt.New(a.cfg.JWTSecret,
		jwt.WithIssuer(a.cfg.JWTIssuer),
		jwt.WithAudience(a.cfg.JWTAudience),
		jwt.WithTTL(a.cfg.JWTTTL),
	)
	if err != nil {
		return err
	}

	checks := map[string]projects.HealthCheck{"store": a.store.Ping}

	backend, err := a.cacheBackend(ctx, checks)
	if err != nil {
		return err
	}
	cached := limitscache.New(a.limits, backend,
		limitscache.WithTTL(a.cfg.LimitsCacheTTL),
		limitscache.WithLogger(a.log),
	)

	gate := entitlement.NewGate(a.store, a.limits,
		entitlement.WithLogger(a.log),
		entitlement.WithAfterCommit(cached.AfterCommit()),
	)

	errs := handler.NewErrorHandler(a.log, handler.WithErrorMappers(projects.MapError))
	router := projects.Router(projects.RouterOptions{
		Projects: projects.NewService(gate, cached, a.store, errs),
		Health:   projects.NewHealthService(a.cfg.HealthTimeout, checks),
		Auth:     tokens,
		Logger:   a.log,
		Timeout:  a.cfg.RequestTimeout,
	})

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}
	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(a.log),
		httpserver.WithShutdownFunc(func(ctx context.Context) {
			a.log.InfoContext(ctx, "releasing store connections")
			a.close()
		}),
	)

	a.log.InfoContext(ctx, "starting projectquota",
		slog.String("addr", httpCfg.Addr),
		slog.String("store", a.cfg.StoreDriver),
		slog.String("billing_timezone", a.cfg.timezone()),
		logger.PeriodKey(a.limits.CurrentPeriodKey()),
	)
	return srv.Run(ctx, router)
}

// cacheBackend picks Redis when REDIS_URL is set and the in-process LRU
// otherwise. The Redis health check is registered alongside.
func (a *app) cacheBackend(ctx context.Context, checks map[string]projects.HealthCheck) (limitscache.Backend, error) {
	var redisCfg redis.Config
	if err := config.Load(&redisCfg); err != nil {
		return nil, err
	}
	if !redisCfg.Enabled() {
		a.log.InfoContext(ctx, "REDIS_URL not set, caching limits in process")
		return limitscache.NewMemoryBackend(a.cfg.LimitsCacheSize, a.cfg.LimitsCacheTTL), nil
	}

	client, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	checks["redis"] = redis.Healthcheck(client)
	return limitscache.NewRedisBackend(client), nil
}
