// Package redis connects to Redis with retries and exposes a readiness check.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//	if cfg.Enabled() {
//	    client, err := redis.Connect(ctx, cfg)
//	    ...
//	}
//
// The client is used by pkg/limitscache; Redis is optional and never on the
// path that decides whether a project may be created.
package redis
