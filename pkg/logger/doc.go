// Package logger builds *slog.Logger instances for the service and keeps
// attribute names consistent across packages.
//
// New creates a JSON or text handler, applies static attributes and wraps the
// handler with LogHandlerDecorator, which injects request-scoped values
// (request ID, user ID) pulled from context on every record.
//
// Usage:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.AppEnv, "projectquota"),
//	    logger.WithContextExtractors(requestid.LogExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "project entitlement consumed",
//	    logger.UserID(userID),
//	    logger.LedgerType("BONUS_MONTHLY"),
//	    logger.PeriodKey("2025-01"),
//	)
//
// Attribute helpers return an empty slog.Attr for nil input, so callers can
// pass optional values without nil checks.
package logger
