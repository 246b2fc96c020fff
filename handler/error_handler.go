package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/projectquota/pkg/logger"
)

// ErrorHandlerOption configures NewErrorHandler.
type ErrorHandlerOption func(*errorHandlerConfig)

type errorHandlerConfig struct {
	mappers []ErrorMapper
}

// WithErrorMappers registers domain error mappers. They run before the
// built-in classification, in the given order.
func WithErrorMappers(mappers ...ErrorMapper) ErrorHandlerOption {
	return func(c *errorHandlerConfig) {
		c.mappers = append(c.mappers, mappers...)
	}
}

// logLevel maps HTTP status codes to log levels. Client errors are
// expected traffic; 503 is transient.
func logLevel(status int) slog.Level {
	switch {
	case status == http.StatusServiceUnavailable:
		return slog.LevelWarn
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHTTPErrorHandler returns a plain net/http error writer. Its signature
// fits middleware hooks such as jwt.MiddlewareConfig.ErrorHandler.
func NewHTTPErrorHandler(log *slog.Logger, opts ...ErrorHandlerOption) func(w http.ResponseWriter, r *http.Request, err error) {
	if log == nil {
		log = slog.Default()
	}
	cfg := &errorHandlerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request, err error) {
		httpErr := ClassifyError(err, cfg.mappers...)

		// A client that went away gets nothing; log it quietly.
		if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
			log.DebugContext(r.Context(), "request cancelled by client",
				logger.Error(err),
				logger.Component("error_handler"),
			)
			return
		}

		log.LogAttrs(r.Context(), logLevel(httpErr.Code), "request error",
			logger.Error(err),
			slog.String("code", httpErr.Key),
			slog.Int("status_code", httpErr.Code),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		if renderErr := JSONError(err, cfg.mappers...).Render(w, r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response",
				logger.Error(renderErr),
				logger.Event("render_error_response"),
			)
		}
	}
}

// NewErrorHandler creates the JSON error handler used by Wrap.
// Configure this once in main.go and pass it to every route.
func NewErrorHandler(log *slog.Logger, opts ...ErrorHandlerOption) ErrorHandler[Context] {
	write := NewHTTPErrorHandler(log, opts...)
	return func(ctx Context, err error) {
		write(ctx.ResponseWriter(), ctx.Request(), err)
	}
}
