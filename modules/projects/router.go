package projects

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/projectquota/handler"
	"github.com/dmitrymomot/projectquota/pkg/jwt"
	"github.com/dmitrymomot/projectquota/pkg/requestid"
)

// Mountable is a service that serves its own routes.
type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures the HTTP API.
type RouterOptions struct {
	Projects Mountable    // required; mounted behind authentication
	Health   Mountable    // optional; mounted at /healthz without authentication
	Auth     *jwt.Service // required; verifies bearer tokens
	Logger   *slog.Logger
	Timeout  time.Duration // per-request timeout, 0 disables it
}

// Router builds the API router.
//
// Example:
//
//	errs := handler.NewErrorHandler(log, handler.WithErrorMappers(projects.MapError))
//	svc := projects.NewService(gate, cachedLimits, store, errs)
//	r := projects.Router(projects.RouterOptions{
//		Projects: svc,
//		Health:   projects.NewHealthService(0, checks),
//		Auth:     tokens,
//		Logger:   log,
//	})
func Router(opts RouterOptions) chi.Router {
	if opts.Projects == nil || opts.Auth == nil {
		panic("projects: router requires Projects and Auth")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	writeError := handler.NewHTTPErrorHandler(log, handler.WithErrorMappers(MapError))

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.Timeout > 0 {
		r.Use(middleware.Timeout(opts.Timeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, handler.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, handler.ErrMethodNotAllowed)
	})

	if opts.Health != nil {
		r.Mount("/healthz", opts.Health.Handle())
	}

	r.Group(func(r chi.Router) {
		r.Use(jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{
			Service:      opts.Auth,
			ErrorHandler: writeError,
		}))
		r.Mount("/", opts.Projects.Handle())
	})

	return r
}
