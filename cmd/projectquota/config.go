package main

import (
	"time"

	"github.com/dmitrymomot/projectquota/pkg/period"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

// appConfig holds the settings shared by every command. Package configs
// (pg.Config, redis.Config, httpserver.Config) are loaded next to it.
type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"` // overrides the per-environment default

	BillingTimezone string `env:"BILLING_TIMEZONE" envDefault:"America/New_York"`
	PlansFile       string `env:"PLANS_FILE"` // YAML plan catalog; empty uses the built-in plans

	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"projectquota.db"`

	JWTSecret   string        `env:"JWT_SECRET"`
	JWTIssuer   string        `env:"JWT_ISSUER" envDefault:"projectquota"`
	JWTAudience string        `env:"JWT_AUDIENCE"`
	JWTTTL      time.Duration `env:"JWT_TTL" envDefault:"1h"`

	LimitsCacheTTL  time.Duration `env:"LIMITS_CACHE_TTL" envDefault:"30s"`
	LimitsCacheSize int           `env:"LIMITS_CACHE_SIZE" envDefault:"10000"`

	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"15s"`
	HealthTimeout  time.Duration `env:"HEALTHCHECK_TIMEOUT" envDefault:"2s"`
}

func (c appConfig) timezone() string {
	if c.BillingTimezone == "" {
		return period.DefaultTimezone
	}
	return c.BillingTimezone
}
